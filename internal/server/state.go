package server

import (
	"time"

	"skidoodle/spotify-activity/internal/activity"
)

// Snapshot is the client-facing payload of the live feed.
type Snapshot struct {
	Tracks    []activity.PlayEvent `json:"tracks"`
	IsPlaying bool                 `json:"playing"`
	UpdatedAt int64                `json:"updated_at,omitempty"`
}

// newSnapshot creates a client-facing Snapshot from the aggregated events.
func newSnapshot(events []activity.PlayEvent, realtime bool, now time.Time) Snapshot {
	if events == nil {
		events = []activity.PlayEvent{}
	}
	snap := Snapshot{Tracks: events}
	for _, e := range events {
		if e.IsPlaying {
			snap.IsPlaying = true
			break
		}
	}
	if realtime {
		snap.UpdatedAt = now.Unix()
	}
	return snap
}
