// Package auth handles the Spotify OAuth2 authorization code flow for the web app.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// requestTimeout bounds every call made with an authorized client.
const requestTimeout = 10 * time.Second

var (
	// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrAccessDenied is returned when Spotify reports an error on the callback.
	ErrAccessDenied = errors.New("spotify authorization failed")
)

// Scopes needed to read the source playlist and write recommendation playlists.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Authenticator handles Spotify OAuth2 authentication.
type Authenticator struct {
	auth       *spotifyauth.Authenticator
	httpClient *http.Client
}

// New creates an Authenticator for the given app credentials.
// redirectURI must match the Spotify app configuration.
func New(clientID, clientSecret, redirectURI string) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithScopes(Scopes...),
	)

	return &Authenticator{
		auth:       auth,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// AuthURL returns the Spotify consent page URL for state.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange validates the callback request and trades its code for a token.
func (a *Authenticator) Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error) {
	if r.URL.Query().Get("state") != expectedState {
		return nil, ErrStateMismatch
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, errMsg)
	}

	token, err := a.auth.Token(a.withHTTPClient(ctx), expectedState, r)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return token, nil
}

// Client returns a Spotify client authorized with token. The token is
// refreshed transparently; read it back with (*spotify.Client).Token.
func (a *Authenticator) Client(ctx context.Context, token *oauth2.Token) *spotify.Client {
	httpClient := a.auth.Client(a.withHTTPClient(ctx), token)
	httpClient.Timeout = requestTimeout
	return spotify.New(httpClient, spotify.WithRetry(true))
}

// withHTTPClient makes oauth2 use the bounded client for token requests.
func (a *Authenticator) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// NewState creates a random state string for OAuth.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
