package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"skidoodle/spotify-activity/internal/activity"
	"skidoodle/spotify-activity/internal/github"
	"skidoodle/spotify-activity/internal/spotify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	res    activity.Result
	limits []int
	panic  bool
}

func (f *fakeSource) Latest(_ context.Context, limit int) activity.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("pipeline exploded")
	}
	f.limits = append(f.limits, limit)
	return f.res
}

func (f *fakeSource) set(res activity.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.res = res
}

type fakeRepos struct {
	repo *github.Repository
	err  error
	seen string
}

func (f *fakeRepos) Repository(_ context.Context, fullName string) (*github.Repository, error) {
	f.seen = fullName
	return f.repo, f.err
}

var sampleEvents = []activity.PlayEvent{
	{Title: "C", Artist: "W", Timestamp: 1704067800, URL: "https://open.spotify.com/track/c", Cover: "medium-c", IsPlaying: true},
	{Title: "A", Artist: "X", Timestamp: 1704067200, URL: "https://open.spotify.com/track/a", Cover: "medium-a"},
}

func newTestServer(source ActivitySource, repos RepositorySource) *Server {
	return NewServer(":0", source, repos, Options{DefaultLimit: 10, MaxAge: time.Minute})
}

func serve(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleSpotifySuccess(t *testing.T) {
	source := &fakeSource{res: activity.Result{Outcome: activity.OutcomeTracks, Events: sampleEvents}}
	s := newTestServer(source, &fakeRepos{})

	rec := serve(t, s, "/activity/spotify?limit=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=60, s-maxage=60", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, []int{2}, source.limits)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, map[string]any{
		"title":   "C",
		"artist":  "W",
		"date":    float64(1704067800),
		"url":     "https://open.spotify.com/track/c",
		"cover":   "medium-c",
		"playing": true,
	}, body[0])
}

func TestHandleSpotifyDefaultLimit(t *testing.T) {
	source := &fakeSource{res: activity.Result{Outcome: activity.OutcomeTracks, Events: sampleEvents}}
	s := newTestServer(source, &fakeRepos{})

	rec := serve(t, s, "/activity/spotify")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{10}, source.limits)
}

func TestHandleSpotifyInvalidLimit(t *testing.T) {
	for _, limit := range []string{"abc", "0", "-3", "1.5", ""} {
		t.Run(limit, func(t *testing.T) {
			source := &fakeSource{}
			s := newTestServer(source, &fakeRepos{})

			rec := serve(t, s, "/activity/spotify?limit="+limit)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, source.limits, "source must not be called")
		})
	}
}

func TestHandleSpotifyOutcomes(t *testing.T) {
	testCases := []struct {
		name   string
		res    activity.Result
		status int
		body   string
	}{
		{
			name:   "empty",
			res:    activity.Result{Outcome: activity.OutcomeEmpty, Events: []activity.PlayEvent{}},
			status: http.StatusNotFound,
			body:   "No songs found",
		},
		{
			name:   "missing credentials",
			res:    activity.Result{Outcome: activity.OutcomeFailed, Err: spotify.ErrMissingCredentials},
			status: http.StatusInternalServerError,
			body:   "Missing required Spotify credentials",
		},
		{
			name:   "token rejected",
			res:    activity.Result{Outcome: activity.OutcomeFailed, Err: fmt.Errorf("%w: 400", spotify.ErrAuthUnavailable)},
			status: http.StatusBadRequest,
			body:   "Failed to get access token",
		},
		{
			name:   "recent history down",
			res:    activity.Result{Outcome: activity.OutcomeFailed, Err: fmt.Errorf("%w: 503", spotify.ErrUpstreamUnavailable)},
			status: http.StatusBadRequest,
			body:   "Failed to fetch recently played tracks",
		},
		{
			name:   "unexpected",
			res:    activity.Result{Outcome: activity.OutcomeFailed, Err: errors.New("decode recently played: unexpected EOF")},
			status: http.StatusInternalServerError,
			body:   "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&fakeSource{res: tc.res}, &fakeRepos{})

			rec := serve(t, s, "/activity/spotify")

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
			assert.Empty(t, rec.Header().Get("Cache-Control"))
		})
	}
}

func TestHandleSpotifyPanicIs500(t *testing.T) {
	s := newTestServer(&fakeSource{panic: true}, &fakeRepos{})

	rec := serve(t, s, "/activity/spotify")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleRepository(t *testing.T) {
	repos := &fakeRepos{repo: &github.Repository{Created: "2023-02-01T10:00:00Z", Stars: 42, Forks: 3}}
	s := newTestServer(&fakeSource{}, repos)

	rec := serve(t, s, "/github/repos/vaibhav1663/capto")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vaibhav1663/capto", repos.seen)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2023-02-01T10:00:00Z", body["created"])
	assert.Equal(t, float64(42), body["stars"])
	assert.Equal(t, float64(3), body["forks"])
	assert.Contains(t, body, "watchers")
}

func TestHandleRepositoryErrors(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{err: github.ErrInvalidRepository, status: http.StatusBadRequest},
		{err: fmt.Errorf("%w: a/b", github.ErrRepositoryNotFound), status: http.StatusNotFound},
		{err: fmt.Errorf("%w: 403", github.ErrUpstreamUnavailable), status: http.StatusBadGateway},
		{err: errors.New("decode"), status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			s := newTestServer(&fakeSource{}, &fakeRepos{err: tc.err})

			rec := serve(t, s, "/github/repos/a/b")

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	rec := serve(t, newTestServer(&fakeSource{}, &fakeRepos{}), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCacheHeadersDisabled(t *testing.T) {
	source := &fakeSource{res: activity.Result{Outcome: activity.OutcomeTracks, Events: sampleEvents}}
	s := NewServer(":0", source, &fakeRepos{}, Options{DefaultLimit: 10})

	rec := serve(t, s, "/activity/spotify")

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestLiveRouteOnlyWhenEnabled(t *testing.T) {
	rec := serve(t, newTestServer(&fakeSource{}, &fakeRepos{}), "/activity/spotify/live")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
