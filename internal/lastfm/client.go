package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	baseURL        = "http://ws.audioscrobbler.com/2.0/"
	userAgent      = "moodtunes/1.0"
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

// Last.fm API error codes.
const (
	errCodeNotFound      = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

var (
	// ErrRateLimited is returned when the API rate limit is still exceeded
	// after every retry.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when Last.fm rejects the API key.
	ErrInvalidAPIKey = errors.New("invalid API key")

	errNotFound = errors.New("not found")
)

// defaultRetryDelays are the waits between attempts on a rate-limited request.
var defaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// Client looks up top tags on Last.fm. Responses are kept in a bounded
// in-memory cache keyed by endpoint, artist and title.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
	cache       *lru.Cache[string, []Tag]
}

// NewClient creates a Last.fm client from the provided configuration.
func NewClient(cfg *Config) *Client {
	return newClient(cfg, &http.Client{Timeout: requestTimeout}, baseURL)
}

func newClient(cfg *Config, httpClient *http.Client, base string) *Client {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, []Tag](size)

	return &Client{
		apiKey:      cfg.APIKey,
		httpClient:  httpClient,
		baseURL:     base,
		retryDelays: defaultRetryDelays,
		cache:       cache,
	}
}

// Lookup returns the top tags of a track. A track without tags, including
// one Last.fm does not know, falls back to the artist's tags. The returned
// slices are shared with the cache and must not be modified.
func (c *Client) Lookup(ctx context.Context, artist, track string) (TopTags, error) {
	tags, err := c.topTags(ctx, trackQuery(artist, track))
	if err != nil {
		return TopTags{}, fmt.Errorf("fetching track tags: %w", err)
	}
	if len(tags) > 0 {
		return TopTags{Tags: tags, Source: SourceTrack}, nil
	}

	tags, err = c.topTags(ctx, artistQuery(artist))
	if err != nil {
		return TopTags{}, fmt.Errorf("fetching artist tags: %w", err)
	}
	if len(tags) > 0 {
		return TopTags{Tags: tags, Source: SourceArtist}, nil
	}

	return TopTags{Tags: []Tag{}, Source: SourceNone}, nil
}

type query struct {
	key    string
	params url.Values
}

func trackQuery(artist, track string) query {
	return query{
		key: "track:" + strings.ToLower(artist) + ":" + strings.ToLower(track),
		params: url.Values{
			"method": {"track.getTopTags"},
			"artist": {artist},
			"track":  {track},
		},
	}
}

func artistQuery(artist string) query {
	return query{
		key: "artist:" + strings.ToLower(artist),
		params: url.Values{
			"method": {"artist.getTopTags"},
			"artist": {artist},
		},
	}
}

func (c *Client) topTags(ctx context.Context, q query) ([]Tag, error) {
	if tags, ok := c.cache.Get(q.key); ok {
		return tags, nil
	}

	q.params.Set("autocorrect", "1")
	q.params.Set("format", "json")
	q.params.Set("api_key", c.apiKey)

	body, err := c.get(ctx, q.params)
	if errors.Is(err, errNotFound) {
		c.cache.Add(q.key, []Tag{})
		return []Tag{}, nil
	}
	if err != nil {
		return nil, err
	}

	var resp topTagsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", q.params.Get("method"), err)
	}

	tags := resp.TopTags.Tag.ranked()
	c.cache.Add(q.key, tags)
	return tags, nil
}

// get performs the request, retrying rate-limited attempts after each of
// the client's retry delays.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	for attempt := 0; ; attempt++ {
		body, err := c.getOnce(ctx, reqURL)
		if !errors.Is(err, ErrRateLimited) || attempt == len(c.retryDelays) {
			return body, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelays[attempt]):
		}
	}
}

func (c *Client) getOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Errors arrive as {"error": code} with either a 200 or a 4xx status.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		switch apiErr.Code {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeNotFound:
			return nil, errNotFound
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Code, apiErr.Message)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}
