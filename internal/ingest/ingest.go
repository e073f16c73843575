// Package ingest turns a playlist reference into a mood index: it resolves the
// reference, lists the playlist, enriches tracks with audio features or tags,
// and classifies them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/justestif/moodtunes/internal/clustering"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/spotify"
	"github.com/justestif/moodtunes/internal/tags"
)

// ErrCatalogRequestFailed is returned when the playlist cannot be listed.
var ErrCatalogRequestFailed = errors.New("catalog request failed")

// DefaultMaxTags is the number of tags per track kept for classification.
const DefaultMaxTags = 10

// Catalog is the music catalog used to list playlists and analyze tracks.
// *spotify.Client implements it.
type Catalog interface {
	FetchPlaylistTracks(ctx context.Context, playlistID string) ([]mood.Track, error)
	FetchAudioFeatures(ctx context.Context, tracks []mood.Track) error
}

// Service builds mood indexes from playlists.
type Service struct {
	catalog  Catalog
	taxonomy mood.Taxonomy
	tagger   tags.TagService
	maxTags  int
	profile  clustering.Config
}

// Option configures a Service.
type Option func(*Service)

// WithTagService sets the tag source used by the tag taxonomy.
func WithTagService(t tags.TagService) Option {
	return func(s *Service) {
		s.tagger = t
	}
}

// WithMaxTags sets how many tags per track are used for classification.
func WithMaxTags(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTags = n
		}
	}
}

// WithProfileConfig sets the clustering parameters for the vibe profile.
func WithProfileConfig(cfg clustering.Config) Option {
	return func(s *Service) {
		s.profile = cfg
	}
}

// NewService creates an ingest service for the given taxonomy.
func NewService(catalog Catalog, taxonomy mood.Taxonomy, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		taxonomy: taxonomy,
		maxTags:  DefaultMaxTags,
		profile:  clustering.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of ingesting one playlist.
type Result struct {
	PlaylistID string
	Index      *mood.Index
	Total      int // Tracks listed
	Classified int // Tracks placed in a bucket
	Dropped    int // Tracks without the data the taxonomy needs
	Profile    clustering.Profile
}

// Ingest builds a mood index for the playlist named by ref.
//
// An unusable reference fails with spotify.ErrInvalidReference before any
// network call. A failed listing fails with ErrCatalogRequestFailed.
// Enrichment failures are soft: affected tracks are dropped (features) or
// classified from an empty tag set (tags).
func (s *Service) Ingest(ctx context.Context, ref string) (*Result, error) {
	playlistID, err := spotify.ResolvePlaylistID(ref)
	if err != nil {
		return nil, err
	}

	tracks, err := s.catalog.FetchPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing playlist %s: %w", ErrCatalogRequestFailed, playlistID, err)
	}

	if err := s.enrich(ctx, tracks); err != nil {
		return nil, err
	}

	index := mood.BuildIndex(s.taxonomy, tracks)

	var profile clustering.Profile
	if s.taxonomy == mood.Tags {
		profile = clustering.ProfileByTags(tracks, s.profile)
	} else {
		profile = clustering.ProfileByFeatures(tracks, s.profile)
	}

	result := &Result{
		PlaylistID: playlistID,
		Index:      index,
		Total:      len(tracks),
		Classified: index.Len(),
		Dropped:    index.Dropped(),
		Profile:    profile,
	}

	log.Printf("Ingested playlist %s: %d tracks, %d classified, %d dropped, %s",
		playlistID, result.Total, result.Classified, result.Dropped, profile)

	return result, nil
}

// enrich fills in the data the taxonomy classifies on.
func (s *Service) enrich(ctx context.Context, tracks []mood.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	if s.taxonomy != mood.Tags {
		if err := s.catalog.FetchAudioFeatures(ctx, tracks); err != nil {
			return fmt.Errorf("fetching audio features: %w", err)
		}
		return nil
	}

	if s.tagger == nil {
		log.Printf("WARN: no tag service configured, %d tracks will classify as neutral", len(tracks))
		tags.Apply(tracks, nil, s.maxTags)
		return nil
	}

	results, err := s.tagger.FetchTagsForTracks(ctx, tracks)
	if err != nil {
		return fmt.Errorf("fetching tags: %w", err)
	}

	var failed int
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("WARN: tags unavailable for %d of %d tracks", failed, len(tracks))
	}

	tags.Apply(tracks, results, s.maxTags)
	return nil
}
