// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api                *spotify.Client
	featureConcurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithFeatureConcurrency sets how many audio-feature batches are fetched at once.
func WithFeatureConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.featureConcurrency = n
		}
	}
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client, opts ...Option) *Client {
	c := &Client{
		api:                api,
		featureConcurrency: DefaultFeatureConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	id, _, err := c.CurrentUser(ctx)
	return id, err
}

// CurrentUser returns the current user's Spotify ID and display name.
func (c *Client) CurrentUser(ctx context.Context) (id, displayName string, err error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", "", fmt.Errorf("getting current user: %w", err)
	}
	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return user.ID, name, nil
}

// Token returns the OAuth token the client currently holds, which may have
// been refreshed since the client was created.
func (c *Client) Token() (*oauth2.Token, error) {
	return c.api.Token()
}
