package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultAPIURL is the base of the Spotify Web API.
const DefaultAPIURL = "https://api.spotify.com/v1"

const (
	recentlyPlayedPath   = "/me/player/recently-played"
	currentlyPlayingPath = "/me/player/currently-playing"
)

// ErrUpstreamUnavailable is returned when the Web API answers with a non-success status.
var ErrUpstreamUnavailable = errors.New("spotify api unavailable")

// Client is a thread-safe client for the player endpoints of the Spotify Web API.
// It holds no credentials; each call is authorized with the access token it is given.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Spotify API client. An empty baseURL selects
// DefaultAPIURL and a nil httpClient selects http.DefaultClient.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// RecentlyPlayed fetches the user's most recent plays, newest first.
// limit is passed through verbatim; the API enforces its own maximum.
func (c *Client) RecentlyPlayed(ctx context.Context, accessToken string, limit int) ([]PlayHistory, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, accessToken, recentlyPlayedPath+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: recently played returned %s", ErrUpstreamUnavailable, resp.Status)
	}

	var page recentlyPlayed
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode recently played: %w", err)
	}

	return page.Items, nil
}

// CurrentlyPlaying fetches the user's in-progress playback.
// A nil result with a nil error means nothing is playing.
func (c *Client) CurrentlyPlaying(ctx context.Context, accessToken string) (*CurrentlyPlaying, error) {
	resp, err := c.get(ctx, accessToken, currentlyPlayingPath)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	// When nothing is playing, Spotify returns 204 No Content.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: currently playing returned %s", ErrUpstreamUnavailable, resp.Status)
	}

	var currentlyPlaying CurrentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&currentlyPlaying); err != nil {
		return nil, fmt.Errorf("decode currently playing: %w", err)
	}

	return &currentlyPlaying, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Base: c.httpClient.Transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: accessToken,
				TokenType:   "Bearer",
			}),
		},
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close spotify api response body", "error", err)
	}
}
