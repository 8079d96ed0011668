// Package activity turns the Spotify listening feeds into the short list of
// tracks shown on the site.
package activity

import (
	"errors"
	"time"
)

// ErrInvalidLimit is returned for non-positive limits.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// PlayEvent is one normalized track play.
type PlayEvent struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	// Timestamp is in Unix seconds, fractional when the source carried milliseconds.
	Timestamp float64 `json:"date"`
	URL       string  `json:"url"`
	Cover     string  `json:"cover"`
	IsPlaying bool    `json:"playing"`
}

// Time returns the event timestamp as a time.Time.
func (e PlayEvent) Time() time.Time {
	return time.UnixMilli(int64(e.Timestamp * 1000))
}

// Outcome classifies the result of one aggregation.
type Outcome int

const (
	// OutcomeTracks means at least one event was produced.
	OutcomeTracks Outcome = iota
	// OutcomeEmpty means every call succeeded but there was nothing to show.
	OutcomeEmpty
	// OutcomeFailed means the pipeline stopped; Result.Err says why.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTracks:
		return "tracks"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single aggregation.
type Result struct {
	Outcome Outcome
	Events  []PlayEvent
	Err     error
}

func failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Err: err}
}

func tracks(events []PlayEvent) Result {
	if len(events) == 0 {
		return Result{Outcome: OutcomeEmpty, Events: []PlayEvent{}}
	}
	return Result{Outcome: OutcomeTracks, Events: events}
}

// Playing returns the event flagged as playing, if any.
func (r Result) Playing() (PlayEvent, bool) {
	for _, e := range r.Events {
		if e.IsPlaying {
			return e, true
		}
	}
	return PlayEvent{}, false
}
