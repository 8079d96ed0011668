package activity

import (
	"fmt"
	"slices"
	"strings"

	"skidoodle/spotify-activity/internal/spotify"
)

// CoverImageIndex selects the album rendition used as cover. Spotify lists
// renditions widest first, so index 1 is the medium (300px) one.
const CoverImageIndex = 1

// artistSeparator joins multiple artist names.
const artistSeparator = ", "

// Matcher decides whether two tracks are the same song for de-duplication.
type Matcher func(a, b *spotify.TrackItem) bool

// MatchTitle treats tracks with exactly equal names as the same song.
func MatchTitle(a, b *spotify.TrackItem) bool {
	return a.Name == b.Name
}

// MatchTrack compares Spotify track IDs when both sides carry one and falls
// back to title plus artists otherwise.
func MatchTrack(a, b *spotify.TrackItem) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.Name == b.Name && slices.Equal(a.ArtistNames(), b.ArtistNames())
}

// ParseMatcher maps a configuration value to a Matcher.
func ParseMatcher(name string) (Matcher, error) {
	switch strings.ToLower(name) {
	case "", "title":
		return MatchTitle, nil
	case "track", "id":
		return MatchTrack, nil
	default:
		return nil, fmt.Errorf("unknown match policy %q", name)
	}
}

// Merge combines the recent history and the current playback into at most
// limit events. The current track is prepended only when it is actively
// playing, is a music track, and matches no recent entry; a matching recent
// entry is flagged as playing instead. A nil match selects MatchTitle.
func Merge(recent []spotify.PlayHistory, current *spotify.CurrentlyPlaying, limit int, match Matcher) []PlayEvent {
	if limit < 1 {
		return []PlayEvent{}
	}
	if match == nil {
		match = MatchTitle
	}

	active := current != nil && current.IsPlaying && current.Item != nil

	events := make([]PlayEvent, 0, len(recent)+1)
	flagged := false
	for i := range recent {
		track := &recent[i].Track
		event := newEvent(track, float64(recent[i].PlayedAt.UnixMilli())/1000)
		if active && !flagged && match(current.Item, track) {
			event.IsPlaying = true
			flagged = true
		}
		events = append(events, event)
	}

	if active && current.IsTrack() && !containsMatch(recent, current.Item, match) {
		candidate := newEvent(current.Item, float64(current.Timestamp)/1000)
		candidate.IsPlaying = true
		events = append([]PlayEvent{candidate}, events...)
	}

	if len(events) > limit {
		events = events[:limit]
	}
	return events
}

func containsMatch(recent []spotify.PlayHistory, item *spotify.TrackItem, match Matcher) bool {
	for i := range recent {
		if match(item, &recent[i].Track) {
			return true
		}
	}
	return false
}

func newEvent(track *spotify.TrackItem, timestamp float64) PlayEvent {
	cover, _ := coverURL(track.Album.Images)
	return PlayEvent{
		Title:     track.Name,
		Artist:    strings.Join(track.ArtistNames(), artistSeparator),
		Timestamp: timestamp,
		URL:       track.ExternalURLs.Spotify,
		Cover:     cover,
	}
}

func coverURL(images []spotify.Image) (string, bool) {
	if len(images) <= CoverImageIndex {
		return "", false
	}
	return images[CoverImageIndex].URL, true
}
