package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLastfm answers track.getTopTags and artist.getTopTags with canned
// JSON bodies keyed by method.
type fakeLastfm struct {
	bodies   map[string]string
	requests atomic.Int32
	seen     []string
}

func (f *fakeLastfm) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	method := r.URL.Query().Get("method")
	f.seen = append(f.seen, method)

	body, ok := f.bodies[method]
	if !ok {
		body = `{"toptags":{"tag":[]}}`
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	c := newClient(&Config{APIKey: "test-key"}, server.Client(), server.URL+"/")
	c.retryDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return c
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name       string
		bodies     map[string]string
		wantSource Source
		wantNames  []string
		wantCalls  []string
	}{
		{
			name: "track tags",
			bodies: map[string]string{
				"track.getTopTags": `{"toptags":{"tag":[{"name":"sad","count":100},{"name":"piano","count":40}]}}`,
			},
			wantSource: SourceTrack,
			wantNames:  []string{"sad", "piano"},
			wantCalls:  []string{"track.getTopTags"},
		},
		{
			name: "artist fallback",
			bodies: map[string]string{
				"artist.getTopTags": `{"toptags":{"tag":[{"name":"pop"},{"name":"dance"}]}}`,
			},
			wantSource: SourceArtist,
			wantNames:  []string{"pop", "dance"},
			wantCalls:  []string{"track.getTopTags", "artist.getTopTags"},
		},
		{
			name: "unknown track falls back to artist",
			bodies: map[string]string{
				"track.getTopTags":  `{"error":6,"message":"Track not found"}`,
				"artist.getTopTags": `{"toptags":{"tag":[{"name":"indie","count":12}]}}`,
			},
			wantSource: SourceArtist,
			wantNames:  []string{"indie"},
			wantCalls:  []string{"track.getTopTags", "artist.getTopTags"},
		},
		{
			name: "single tag object",
			bodies: map[string]string{
				"track.getTopTags": `{"toptags":{"tag":{"name":"chill","count":3}}}`,
			},
			wantSource: SourceTrack,
			wantNames:  []string{"chill"},
			wantCalls:  []string{"track.getTopTags"},
		},
		{
			name:       "nothing anywhere",
			wantSource: SourceNone,
			wantNames:  []string{},
			wantCalls:  []string{"track.getTopTags", "artist.getTopTags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeLastfm{bodies: tt.bodies}
			c := newTestClient(t, fake)

			got, err := c.Lookup(context.Background(), "Band", "Song")
			require.NoError(t, err)

			assert.Equal(t, tt.wantSource, got.Source)
			names := make([]string, len(got.Tags))
			for i, tag := range got.Tags {
				names[i] = tag.Name
				assert.Equal(t, i, tag.Rank, "rank of %q", tag.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantCalls, fake.seen)
		})
	}
}

func TestLookup_RanksFollowResponseOrder(t *testing.T) {
	fake := &fakeLastfm{bodies: map[string]string{
		"track.getTopTags": `{"toptags":{"tag":[{"name":"b","count":100},{"name":"","count":100},{"name":"a","count":100}]}}`,
	}}
	c := newTestClient(t, fake)

	got, err := c.Lookup(context.Background(), "Band", "Song")
	require.NoError(t, err)

	assert.Equal(t, []Tag{
		{Name: "b", Count: 100, Rank: 0},
		{Name: "a", Count: 100, Rank: 1},
	}, got.Tags)
}

func TestLookup_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"invalid key", http.StatusForbidden, `{"error":10,"message":"Invalid API key"}`, ErrInvalidAPIKey},
		{"server error", http.StatusBadGateway, `<html>bad gateway</html>`, nil},
		{"bad json", http.StatusOK, `{"toptags":{"tag":7}}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			_, err := c.Lookup(context.Background(), "Band", "Song")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLookup_Caching(t *testing.T) {
	fake := &fakeLastfm{bodies: map[string]string{
		"artist.getTopTags": `{"toptags":{"tag":[{"name":"rock"}]}}`,
	}}
	c := newTestClient(t, fake)

	for range 2 {
		got, err := c.Lookup(context.Background(), "Band", "Song")
		require.NoError(t, err)
		assert.Equal(t, SourceArtist, got.Source)
	}
	// Keys ignore case.
	_, err := c.Lookup(context.Background(), "BAND", "song")
	require.NoError(t, err)

	assert.EqualValues(t, 2, fake.requests.Load(), "one request per endpoint")
}

func TestLookup_RateLimit(t *testing.T) {
	tests := []struct {
		name         string
		limitedCalls int32
		wantErr      error
		wantRequests int32
	}{
		{"recovers after retries", 2, nil, 3},
		{"gives up after three retries", 100, ErrRateLimited, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if requests.Add(1) <= tt.limitedCalls {
					fmt.Fprint(w, `{"error":29,"message":"Rate limit exceeded"}`)
					return
				}
				fmt.Fprint(w, `{"toptags":{"tag":[{"name":"rock","count":100}]}}`)
			}))

			got, err := c.Lookup(context.Background(), "Band", "Song")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "rock", got.Tags[0].Name)
			}
			assert.Equal(t, tt.wantRequests, requests.Load())
		})
	}
}

func TestLookup_CancelledWhileBackingOff(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":29,"message":"Rate limit exceeded"}`)
	}))
	c.retryDelays = []time.Duration{time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Lookup(ctx, "Band", "Song")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient(t *testing.T) {
	c := NewClient(&Config{APIKey: "test-key"})

	assert.Equal(t, "test-key", c.apiKey)
	assert.Equal(t, baseURL, c.baseURL)
	assert.Equal(t, requestTimeout, c.httpClient.Timeout)
	assert.Equal(t, defaultRetryDelays, c.retryDelays)
}

func TestNewClient_CacheIsBounded(t *testing.T) {
	c := newClient(&Config{APIKey: "k", CacheSize: 2}, http.DefaultClient, baseURL)

	c.cache.Add("track:a:1", []Tag{{Name: "rock"}})
	c.cache.Add("track:b:2", []Tag{{Name: "pop"}})
	c.cache.Add("track:c:3", []Tag{{Name: "jazz"}})

	assert.Equal(t, 2, c.cache.Len())
	_, ok := c.cache.Get("track:a:1")
	assert.False(t, ok, "oldest entry should have been evicted")
}
