// Package github reads repository statistics shown on project cards.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub REST API.
const DefaultAPIURL = "https://api.github.com"

var (
	// ErrInvalidRepository is returned for names not of the form "owner/name".
	ErrInvalidRepository = errors.New("repository must be of the form owner/name")
	// ErrRepositoryNotFound is returned when GitHub answers 404.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrUpstreamUnavailable is returned for any other non-success answer.
	ErrUpstreamUnavailable = errors.New("github api unavailable")
)

// Repository holds the public statistics of a repository.
type Repository struct {
	Created  string `json:"created"`
	Updated  string `json:"updated"`
	Pushed   string `json:"pushed"`
	Forks    int    `json:"forks"`
	Issues   int    `json:"issues"`
	Stars    int    `json:"stars"`
	Watchers int    `json:"watchers"`
}

type repositoryResponse struct {
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	PushedAt        string `json:"pushed_at"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	StargazersCount int    `json:"stargazers_count"`
	WatchersCount   int    `json:"watchers_count"`
}

// Client fetches repository metadata. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Client. When accessToken is set, requests carry
// "Authorization: token <accessToken>". An empty baseURL selects DefaultAPIURL.
func NewClient(_ context.Context, accessToken, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if accessToken != "" {
		// oauth2.NewClient would drop the caller's Timeout; keep it.
		httpClient = &http.Client{
			Timeout: httpClient.Timeout,
			Transport: &oauth2.Transport{
				Base: httpClient.Transport,
				Source: oauth2.StaticTokenSource(&oauth2.Token{
					AccessToken: accessToken,
					TokenType:   "token",
				}),
			},
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     slog.Default().With("component", "github"),
	}
}

// Repository fetches the statistics of fullName ("owner/name").
func (c *Client) Repository(ctx context.Context, fullName string) (*Repository, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, fullName)
	}

	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close github api response body", "error", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, fullName)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s returned %s", ErrUpstreamUnavailable, fullName, resp.Status)
	}

	var body repositoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode repository %s: %w", fullName, err)
	}

	return &Repository{
		Created:  body.CreatedAt,
		Updated:  body.UpdatedAt,
		Pushed:   body.PushedAt,
		Forks:    body.ForksCount,
		Issues:   body.OpenIssuesCount,
		Stars:    body.StargazersCount,
		Watchers: body.WatchersCount,
	}, nil
}

// Lookup is the forgiving variant of Repository: failures are logged and
// reported as a nil result.
func (c *Client) Lookup(ctx context.Context, fullName string) *Repository {
	repo, err := c.Repository(ctx, fullName)
	if err != nil {
		c.logger.Error("failed to fetch repository", "repository", fullName, "error", err)
		return nil
	}
	return repo
}
