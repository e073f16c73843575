package tags

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/lastfm"
	"github.com/justestif/moodtunes/internal/mood"
)

// CacheTTL is the duration after which cached tags are considered stale.
const CacheTTL = 30 * 24 * time.Hour // 30 days

// Store persists fetched tags. Both the PostgreSQL and SQLite tag
// repositories implement it. ReplaceBatch drops any rows already stored for
// the keys it writes.
type Store interface {
	GetForTracks(ctx context.Context, keys []string) (map[string][]db.TrackTag, error)
	ReplaceBatch(ctx context.Context, tags []db.TrackTag) error
}

// CachedTagFetcher implements TagService with database persistence.
// It checks the store first, then falls back to the wrapped service for
// cache misses and stale entries, persisting new results.
type CachedTagFetcher struct {
	store   Store
	service TagService
	now     func() time.Time
}

// NewCachedTagFetcher wraps a tag service with a persistent store.
func NewCachedTagFetcher(store Store, service TagService) *CachedTagFetcher {
	return &CachedTagFetcher{
		store:   store,
		service: service,
		now:     time.Now,
	}
}

// CacheKey returns the store key for a track. Local files have no catalog ID
// and are keyed by artist and title instead.
func CacheKey(t mood.Track) string {
	if t.ID != "" {
		return t.ID
	}
	return fmt.Sprintf("local:%s:%s", strings.ToLower(t.Artist), strings.ToLower(t.Name))
}

// FetchTagsForTracks returns tags for every track in input order.
// Store failures are logged and treated as misses; only context errors from
// the wrapped service are returned.
func (c *CachedTagFetcher) FetchTagsForTracks(ctx context.Context, tracks []mood.Track) ([]TrackTags, error) {
	if len(tracks) == 0 {
		return []TrackTags{}, nil
	}

	keys := make([]string, len(tracks))
	for i, t := range tracks {
		keys[i] = CacheKey(t)
	}

	cached, err := c.store.GetForTracks(ctx, uniqueKeys(keys))
	if err != nil {
		log.Printf("WARN: reading tag cache: %v", err)
		cached = nil
	}

	results := make([]TrackTags, len(tracks))
	var missIdx []int
	var misses []mood.Track
	staleThreshold := c.now().Add(-CacheTTL)

	for i, key := range keys {
		rows, found := cached[key]
		// Lazy invalidation: an empty or stale entry is fetched again
		if !found || len(rows) == 0 || rows[0].FetchedAt.Before(staleThreshold) {
			missIdx = append(missIdx, i)
			misses = append(misses, tracks[i])
			continue
		}

		results[i] = TrackTags{
			TrackID: tracks[i].ID,
			Tags:    dbTagsToLastfmTags(rows),
			Source:  lastfm.Source(rows[0].Source),
		}
	}

	if len(misses) == 0 {
		return results, nil
	}

	fetched, err := c.service.FetchTagsForTracks(ctx, misses)
	for j, r := range fetched {
		results[missIdx[j]] = r
	}
	if err != nil {
		return results, err
	}

	c.persist(ctx, keys, missIdx, fetched)
	return results, nil
}

// persist writes successful lookups back to the store.
func (c *CachedTagFetcher) persist(ctx context.Context, keys []string, missIdx []int, fetched []TrackTags) {
	var rows []db.TrackTag
	now := c.now()
	seen := make(map[string]bool)

	for j, r := range fetched {
		key := keys[missIdx[j]]
		if r.Error != nil || len(r.Tags) == 0 || seen[key] {
			continue
		}
		seen[key] = true

		names := make(map[string]bool, len(r.Tags))
		// Tags arrive in rank order, so the position is the rank.
		for i, tag := range r.Tags {
			// One row per (key, tag) name
			if names[tag.Name] {
				continue
			}
			names[tag.Name] = true
			rows = append(rows, db.TrackTag{
				TrackID:   key,
				TagName:   tag.Name,
				TagCount:  tag.Count,
				Rank:      i,
				Source:    string(r.Source),
				FetchedAt: now,
			})
		}
	}

	if len(rows) == 0 {
		return
	}
	if err := c.store.ReplaceBatch(ctx, rows); err != nil {
		log.Printf("WARN: persisting %d tags: %v", len(rows), err)
	}
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// dbTagsToLastfmTags converts stored rows to tags in rank order.
func dbTagsToLastfmTags(dbTags []db.TrackTag) []lastfm.Tag {
	tags := make([]lastfm.Tag, len(dbTags))
	for i, t := range dbTags {
		tags[i] = lastfm.Tag{
			Name:  t.TagName,
			Count: t.TagCount,
			Rank:  t.Rank,
		}
	}
	slices.SortStableFunc(tags, func(a, b lastfm.Tag) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
	return tags
}
