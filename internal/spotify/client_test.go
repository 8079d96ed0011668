package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recentlyPlayedBody = `{
  "items": [
    {
      "track": {
        "id": "t1",
        "name": "Windowlicker",
        "type": "track",
        "artists": [{"id": "a1", "name": "Aphex Twin"}],
        "external_urls": {"spotify": "https://open.spotify.com/track/t1"},
        "album": {"name": "Windowlicker", "images": [
          {"url": "https://i.scdn.co/640", "width": 640, "height": 640},
          {"url": "https://i.scdn.co/300", "width": 300, "height": 300},
          {"url": "https://i.scdn.co/64", "width": 64, "height": 64}
        ]}
      },
      "played_at": "2024-01-01T00:00:00.500Z"
    },
    {
      "track": {
        "id": "t2",
        "name": "Teardrop",
        "type": "track",
        "artists": [{"id": "a2", "name": "Massive Attack"}, {"id": "a3", "name": "Elizabeth Fraser"}],
        "external_urls": {"spotify": "https://open.spotify.com/track/t2"},
        "album": {"name": "Mezzanine", "images": []}
      },
      "played_at": "2023-12-31T23:55:00Z"
    }
  ],
  "next": null,
  "cursors": {"after": "1704067200500"},
  "limit": 2
}`

func newTestAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL)
}

func TestClientRecentlyPlayed(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, recentlyPlayedPath, r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(recentlyPlayedBody))
	})

	plays, err := client.RecentlyPlayed(context.Background(), "access-123", 2)
	require.NoError(t, err)
	require.Len(t, plays, 2)

	assert.Equal(t, "Windowlicker", plays[0].Track.Name)
	assert.Equal(t, []string{"Aphex Twin"}, plays[0].Track.ArtistNames())
	assert.Equal(t, "https://open.spotify.com/track/t1", plays[0].Track.ExternalURLs.Spotify)
	assert.Len(t, plays[0].Track.Album.Images, 3)
	assert.True(t, plays[0].PlayedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 500_000_000, time.UTC)))

	assert.Equal(t, []string{"Massive Attack", "Elizabeth Fraser"}, plays[1].Track.ArtistNames())
	assert.Empty(t, plays[1].Track.Album.Images)
}

func TestClientRecentlyPlayedUpstreamError(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.RecentlyPlayed(context.Background(), "expired", 5)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClientRecentlyPlayedMalformedBody(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	})

	_, err := client.RecentlyPlayed(context.Background(), "access-123", 5)
	assert.Error(t, err)
}

func TestClientCurrentlyPlaying(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, currentlyPlayingPath, r.URL.Path)
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "is_playing": true,
		  "progress_ms": 1000,
		  "timestamp": 1704067260123,
		  "currently_playing_type": "track",
		  "item": {"id": "t9", "name": "Roygbiv", "type": "track", "artists": [{"name": "Boards of Canada"}],
		           "external_urls": {"spotify": "https://open.spotify.com/track/t9"},
		           "album": {"images": [{"url": "big"}, {"url": "medium"}]}}
		}`))
	})

	current, err := client.CurrentlyPlaying(context.Background(), "access-123")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.True(t, current.IsPlaying)
	assert.True(t, current.IsTrack())
	assert.EqualValues(t, 1704067260123, current.Timestamp)
	assert.Equal(t, "Roygbiv", current.Item.Name)
}

func TestClientCurrentlyPlayingNoContent(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	current, err := client.CurrentlyPlaying(context.Background(), "access-123")
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestClientCurrentlyPlayingUpstreamError(t *testing.T) {
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	current, err := client.CurrentlyPlaying(context.Background(), "access-123")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Nil(t, current)
}

func TestClientKeepsHTTPTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			_, _ = w.Write([]byte(recentlyPlayedBody))
		}
	}))
	defer srv.Close()

	httpClient := srv.Client()
	httpClient.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := NewClient(httpClient, srv.URL).RecentlyPlayed(context.Background(), "access", 5)

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCurrentlyPlayingIsTrack(t *testing.T) {
	episode := &CurrentlyPlaying{CurrentlyPlayingType: "episode", Item: &TrackItem{Name: "Podcast"}}
	assert.False(t, episode.IsTrack())

	noItem := &CurrentlyPlaying{CurrentlyPlayingType: ItemTypeTrack}
	assert.False(t, noItem.IsTrack())
}
