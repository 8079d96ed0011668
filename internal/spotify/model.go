package spotify

import "time"

// Image is one rendition of an album cover. Spotify lists renditions widest first.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Artist is the simplified artist object embedded in tracks.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TrackItem represents the track object from the Spotify API.
type TrackItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	DurationMs   int      `json:"duration_ms"`
	Artists      []Artist `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Album struct {
		Name   string  `json:"name"`
		Images []Image `json:"images"`
	} `json:"album"`
}

// ArtistNames returns the artist names in the order the API listed them.
func (t *TrackItem) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// PlayHistory is one entry of the recently played feed.
type PlayHistory struct {
	Track    TrackItem `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}

// recentlyPlayed is the cursor-paged envelope of /me/player/recently-played.
type recentlyPlayed struct {
	Items   []PlayHistory `json:"items"`
	Next    string        `json:"next"`
	Limit   int           `json:"limit"`
	Cursors struct {
		After  string `json:"after"`
		Before string `json:"before"`
	} `json:"cursors"`
}

// ItemTypeTrack is the currently_playing_type of music tracks, as opposed to
// "episode", "ad" or "unknown".
const ItemTypeTrack = "track"

// CurrentlyPlaying represents the currently playing object from the Spotify API.
// The Item field is a pointer to handle cases where nothing is playing (item is null).
type CurrentlyPlaying struct {
	IsPlaying            bool       `json:"is_playing"`
	ProgressMs           int        `json:"progress_ms"`
	Timestamp            int64      `json:"timestamp"`
	CurrentlyPlayingType string     `json:"currently_playing_type"`
	Item                 *TrackItem `json:"item"`
}

// IsTrack reports whether the playing item is a music track.
func (c *CurrentlyPlaying) IsTrack() bool {
	return c.CurrentlyPlayingType == ItemTypeTrack && c.Item != nil
}
