package server

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"skidoodle/spotify-activity/internal/activity"
)

// Poller is responsible for running the aggregation periodically and
// pushing changes to the hub.
type Poller struct {
	source    ActivitySource
	hub       *Hub
	limit     int
	interval  time.Duration
	realtime  bool
	now       func() time.Time
	lastState []activity.PlayEvent
	hasState  bool
	mu        sync.RWMutex
}

// NewPoller creates a new Poller.
func NewPoller(source ActivitySource, hub *Hub, limit int, interval time.Duration, realtime bool) *Poller {
	return &Poller{
		source:   source,
		hub:      hub,
		limit:    limit,
		interval: interval,
		realtime: realtime,
		now:      time.Now,
	}
}

// Run starts the polling loop. It must be run in a separate goroutine.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("poller started", "interval", p.interval, "limit", p.limit)
	defer slog.Info("poller stopped")

	p.UpdateState(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.UpdateState(ctx)
		}
	}
}

// UpdateState runs one aggregation, compares it, and broadcasts if needed.
func (p *Poller) UpdateState(ctx context.Context) {
	res := p.source.Latest(ctx, p.limit)
	if res.Outcome == activity.OutcomeFailed {
		if ctx.Err() == nil {
			slog.Error("failed to refresh listening activity", "error", res.Err)
		}
		return
	}

	p.mu.Lock()
	hasChanged := p.hasStateChanged(res.Events)
	if hasChanged {
		p.lastState = res.Events
		p.hasState = true
	}
	p.mu.Unlock()

	if hasChanged {
		if !p.realtime {
			trackName := "Nothing"
			if now, ok := res.Playing(); ok {
				trackName = now.Title
			} else if len(res.Events) > 0 {
				trackName = res.Events[0].Title
			}
			slog.Info("state changed, broadcasting update", "outcome", res.Outcome, "track", trackName)
		}
		p.hub.Broadcast(newSnapshot(res.Events, p.realtime, p.now()))
	}
}

// LastSnapshot returns the cached state for greeting a new client.
func (p *Poller) LastSnapshot() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.hasState {
		return Snapshot{}, false
	}
	return newSnapshot(p.lastState, p.realtime, p.now()), true
}

// hasStateChanged compares the new events against the last broadcast.
// This function must be called within a lock.
func (p *Poller) hasStateChanged(current []activity.PlayEvent) bool {
	if !p.hasState {
		return true
	}
	if p.realtime && slices.ContainsFunc(current, func(e activity.PlayEvent) bool { return e.IsPlaying }) {
		return true
	}
	return !slices.Equal(p.lastState, current)
}
