package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skidoodle/spotify-activity/internal/spotify"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// TokenExchanger obtains a fresh access token.
type TokenExchanger interface {
	Exchange(ctx context.Context) (string, error)
}

// Fetcher reads the two player feeds.
type Fetcher interface {
	RecentlyPlayed(ctx context.Context, accessToken string, limit int) ([]spotify.PlayHistory, error)
	CurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, error)
}

// Aggregator runs the token exchange, both fetches and the merge for every call.
// It keeps no state between calls and is safe for concurrent use.
type Aggregator struct {
	tokens  TokenExchanger
	fetcher Fetcher
	match   Matcher
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
	err     error
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMatcher sets the de-duplication policy.
func WithMatcher(m Matcher) Option {
	return func(a *Aggregator) {
		if m != nil {
			a.match = m
		}
	}
}

// WithTimeout bounds a whole Latest call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

// WithRateLimit throttles how often the upstream pipeline may start.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(a *Aggregator) { a.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Aggregator.
func New(tokens TokenExchanger, fetcher Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		tokens:  tokens,
		fetcher: fetcher,
		match:   MatchTitle,
		timeout: defaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Unavailable returns an Aggregator that fails every call with err without
// touching the network. It stands in when configuration was rejected at startup.
func Unavailable(err error, opts ...Option) *Aggregator {
	a := New(nil, nil, opts...)
	a.err = err
	return a
}

// Latest returns up to limit normalized events, the current track first.
// A failed token exchange stops the pipeline before any fetch is issued.
// A failing currently-playing fetch is treated as nothing playing.
func (a *Aggregator) Latest(ctx context.Context, limit int) Result {
	if a.err != nil {
		return failed(a.err)
	}
	if limit < 1 {
		return failed(fmt.Errorf("%w: got %d", ErrInvalidLimit, limit))
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return failed(fmt.Errorf("waiting for upstream rate limit: %w", err))
		}
	}

	accessToken, err := a.tokens.Exchange(ctx)
	if err != nil {
		a.logger.Warn("spotify token exchange failed", "error", err)
		return failed(err)
	}

	var (
		recent  []spotify.PlayHistory
		current *spotify.CurrentlyPlaying
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		plays, err := a.fetcher.RecentlyPlayed(gctx, accessToken, limit)
		if err != nil {
			return err
		}
		recent = plays
		return nil
	})
	g.Go(func() error {
		playing, err := a.fetcher.CurrentlyPlaying(gctx, accessToken)
		if err != nil {
			a.logger.Debug("ignoring currently playing failure", "error", err)
			return nil
		}
		current = playing
		return nil
	})
	if err := g.Wait(); err != nil {
		a.logger.Warn("failed to fetch recently played tracks", "error", err)
		return failed(err)
	}

	return tracks(Merge(recent, current, limit, a.match))
}

// LatestSongs is the forgiving variant of Latest: any failure, including a
// panic in the pipeline, is logged and yields an empty slice.
func (a *Aggregator) LatestSongs(ctx context.Context, limit int) (events []PlayEvent) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("recovered from panic while fetching latest songs", "panic", r)
			events = []PlayEvent{}
		}
	}()

	res := a.Latest(ctx, limit)
	if res.Outcome == OutcomeFailed {
		a.logger.Error("error fetching recently played tracks", "error", res.Err)
		return []PlayEvent{}
	}
	return res.Events
}
