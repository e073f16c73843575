// Package tags provides a service for fetching Last.fm tags for music tracks.
package tags

import (
	"context"
	"strings"
	"sync"

	"github.com/justestif/moodtunes/internal/lastfm"
	"github.com/justestif/moodtunes/internal/mood"
)

// Default concurrency for batch processing.
const DefaultConcurrency = 5

// TrackTags holds the tags fetched for a track.
type TrackTags struct {
	TrackID string
	Tags    []lastfm.Tag // In Last.fm rank order
	Source  lastfm.Source
	Error   error // Non-nil if fetching failed
}

// TagFetcher abstracts the Last.fm client for testing.
type TagFetcher interface {
	Lookup(ctx context.Context, artist, track string) (lastfm.TopTags, error)
}

// TagService defines the interface for fetching tags for tracks.
type TagService interface {
	FetchTagsForTracks(ctx context.Context, tracks []mood.Track) ([]TrackTags, error)
}

// Service implements TagService using Last.fm as the tag source.
type Service struct {
	fetcher     TagFetcher
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency sets the number of concurrent tag fetch operations.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a new tag service.
func NewService(fetcher TagFetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTagsForTracks fetches tags for multiple tracks concurrently.
// Results are returned in the same order as input tracks.
// Individual fetch errors are captured in TrackTags.Error rather than failing the batch.
func (s *Service) FetchTagsForTracks(ctx context.Context, tracks []mood.Track) ([]TrackTags, error) {
	if len(tracks) == 0 {
		return []TrackTags{}, nil
	}

	results := make([]TrackTags, len(tracks))

	// Create work channel and semaphore
	type workItem struct {
		index int
		track mood.Track
	}
	workCh := make(chan workItem, len(tracks))

	// Feed work items
	for i, t := range tracks {
		workCh <- workItem{index: i, track: t}
	}
	close(workCh)

	// Process with worker pool
	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				select {
				case <-ctx.Done():
					results[work.index] = TrackTags{
						TrackID: work.track.ID,
						Tags:    []lastfm.Tag{},
						Source:  lastfm.SourceNone,
						Error:   ctx.Err(),
					}
					continue
				default:
				}

				found, err := s.fetcher.Lookup(ctx, work.track.Artist, work.track.Name)
				result := TrackTags{
					TrackID: work.track.ID,
					Tags:    found.Tags,
					Source:  found.Source,
					Error:   err,
				}
				if err != nil || len(found.Tags) == 0 {
					result.Tags = []lastfm.Tag{}
					result.Source = lastfm.SourceNone
				}

				results[work.index] = result
			}
		}()
	}

	wg.Wait()

	// Check if context was cancelled
	if ctx.Err() != nil {
		return results, ctx.Err()
	}

	return results, nil
}

// Names returns up to limit distinct tag names, lower-cased and trimmed, in
// the order given (most applied first for Last.fm). A limit of zero keeps all.
func Names(tags []lastfm.Tag, limit int) []string {
	names := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if limit > 0 && len(names) == limit {
			break
		}
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Apply sets each track's Tags from the result at the same position, keeping
// at most limit tags per track. Failed lookups leave an empty tag set.
func Apply(tracks []mood.Track, results []TrackTags, limit int) {
	for i := range tracks {
		if i >= len(results) {
			tracks[i].Tags = []string{}
			continue
		}
		tracks[i].Tags = Names(results[i].Tags, limit)
	}
}
