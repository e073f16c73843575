package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testRedirect = "http://127.0.0.1:8080/callback"

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		secret string
	}{
		{"both missing", "", ""},
		{"id missing", "", "secret"},
		{"secret missing", "id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.id, tt.secret, testRedirect)
			assert.ErrorIs(t, err, ErrMissingCredentials)
			assert.Nil(t, a)
		})
	}
}

func TestAuthURL(t *testing.T) {
	a, err := New("test-client-id", "test-client-secret", testRedirect)
	require.NoError(t, err)

	url := a.AuthURL("abc123")

	for _, want := range []string{
		"client_id=test-client-id",
		"state=abc123",
		"playlist-read-private",
		"playlist-modify-private",
		"redirect_uri=http%3A%2F%2F127.0.0.1%3A8080%2Fcallback",
	} {
		assert.Contains(t, url, want)
	}
}

func TestExchange_RejectsBadCallbacks(t *testing.T) {
	a, err := New("id", "secret", testRedirect)
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		wantErr error
	}{
		{"state mismatch", "?state=other&code=xyz", ErrStateMismatch},
		{"missing state", "?code=xyz", ErrStateMismatch},
		{"access denied", "?state=expected&error=access_denied", ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/callback"+tt.query, nil)

			token, err := a.Exchange(context.Background(), "expected", r)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, token)
		})
	}
}

func TestClient_KeepsValidToken(t *testing.T) {
	a, err := New("id", "secret", testRedirect)
	require.NoError(t, err)

	client := a.Client(context.Background(), &oauth2.Token{
		AccessToken: "access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	got, err := client.Token()
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
}

func TestNewState(t *testing.T) {
	state1, err := NewState()
	require.NoError(t, err)
	assert.Len(t, state1, 32) // 16 bytes hex-encoded

	state2, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, state1, state2)
}
