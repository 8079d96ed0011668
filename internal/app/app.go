// Package app builds the collaborators shared by the server and the CLI.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"skidoodle/spotify-activity/internal/activity"
	"skidoodle/spotify-activity/internal/config"
	"skidoodle/spotify-activity/internal/github"
	"skidoodle/spotify-activity/internal/spotify"

	"golang.org/x/time/rate"
)

// NewAggregator wires the Spotify clients into an activity.Aggregator. Without
// credentials the aggregator reports spotify.ErrMissingCredentials on every call.
func NewAggregator(cfg *config.Config, httpClient *http.Client) (*activity.Aggregator, error) {
	match, err := activity.ParseMatcher(cfg.Activity.MatchBy)
	if err != nil {
		return nil, err
	}

	// A zero rate disables throttling.
	limit := rate.Limit(cfg.Activity.RateLimit)
	if cfg.Activity.RateLimit == 0 {
		limit = rate.Inf
	}

	opts := []activity.Option{
		activity.WithMatcher(match),
		activity.WithTimeout(cfg.Activity.RequestTimeout),
		activity.WithRateLimit(limit, cfg.Activity.RateBurst),
		activity.WithLogger(slog.Default().With("component", "activity")),
	}

	creds := spotify.Credentials{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	}
	if err := creds.Validate(); err != nil {
		slog.Warn("spotify credentials are not configured, activity requests will fail")
		return activity.Unavailable(err, opts...), nil
	}

	tokens := spotify.NewTokenExchanger(creds, cfg.Spotify.TokenURL, httpClient)
	return activity.New(tokens, spotify.NewClient(httpClient, cfg.Spotify.APIURL), opts...), nil
}

// NewGitHub creates the repository statistics client.
func NewGitHub(ctx context.Context, cfg *config.Config, httpClient *http.Client) *github.Client {
	return github.NewClient(ctx, cfg.GitHub.AccessToken, cfg.GitHub.APIURL, httpClient)
}
