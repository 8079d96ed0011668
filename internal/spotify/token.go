package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// DefaultTokenURL is Spotify's accounts service token endpoint.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

var (
	// ErrMissingCredentials is returned when any of the three secrets is empty.
	ErrMissingCredentials = errors.New("spotify credentials are not set")
	// ErrAuthUnavailable is returned when the refresh token could not be exchanged.
	ErrAuthUnavailable = errors.New("spotify access token unavailable")
)

// Credentials are the long-lived secrets of the Spotify application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Validate reports ErrMissingCredentials when any field is empty.
func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return ErrMissingCredentials
	}
	return nil
}

// TokenExchanger trades the refresh token for a short-lived access token.
// Nothing is cached: every Exchange performs one POST to the token endpoint.
type TokenExchanger struct {
	conf         *oauth2.Config
	refreshToken string
	httpClient   *http.Client
}

// NewTokenExchanger creates a TokenExchanger. An empty tokenURL selects
// DefaultTokenURL and a nil httpClient selects http.DefaultClient.
func NewTokenExchanger(creds Credentials, tokenURL string, httpClient *http.Client) *TokenExchanger {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &TokenExchanger{
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		refreshToken: creds.RefreshToken,
		httpClient:   httpClient,
	}
}

// Exchange performs a single refresh_token grant and returns the access token.
// Any failure, including missing credentials, is reported as ErrAuthUnavailable.
func (e *TokenExchanger) Exchange(ctx context.Context) (string, error) {
	if e.conf.ClientID == "" || e.conf.ClientSecret == "" || e.refreshToken == "" {
		return "", fmt.Errorf("%w: %w", ErrAuthUnavailable, ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)

	// A token without an access token is never valid, so the source refreshes exactly once.
	token, err := e.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: e.refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", fmt.Errorf("%w: token endpoint returned %s", ErrAuthUnavailable, retrieveErr.Response.Status)
		}
		return "", fmt.Errorf("%w: %w", ErrAuthUnavailable, err)
	}

	return token.AccessToken, nil
}
