package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TagRepository handles track tag database operations.
type TagRepository struct {
	pool *pgxpool.Pool
}

// ReplaceBatch stores tags, replacing everything previously stored for the
// track IDs in the batch so a refetched list never mixes with an older one.
func (r *TagRepository) ReplaceBatch(ctx context.Context, tags []TrackTag) error {
	if len(tags) == 0 {
		return nil
	}

	trackIDs := make([]string, len(tags))
	tagNames := make([]string, len(tags))
	tagCounts := make([]int, len(tags))
	ranks := make([]int, len(tags))
	sources := make([]string, len(tags))
	fetchedAts := make([]time.Time, len(tags))

	for i, t := range tags {
		trackIDs[i] = t.TrackID
		tagNames[i] = t.TagName
		tagCounts[i] = t.TagCount
		ranks[i] = t.Rank
		sources[i] = t.Source
		fetchedAts[i] = t.FetchedAt
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM track_tags WHERE track_id = ANY($1)`, trackIDs); err != nil {
		return fmt.Errorf("clearing replaced tags: %w", err)
	}

	query := `
		INSERT INTO track_tags (track_id, tag_name, tag_count, tag_rank, source, fetched_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::int[], $4::int[], $5::text[], $6::timestamptz[])
		ON CONFLICT (track_id, tag_name) DO UPDATE SET
			tag_count = EXCLUDED.tag_count,
			tag_rank = EXCLUDED.tag_rank,
			source = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at
	`
	if _, err := tx.Exec(ctx, query, trackIDs, tagNames, tagCounts, ranks, sources, fetchedAts); err != nil {
		return fmt.Errorf("batch inserting tags: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tags: %w", err)
	}
	return nil
}

// GetForTracks retrieves tags for multiple tracks, returning a map of track
// ID to tags in rank order.
func (r *TagRepository) GetForTracks(ctx context.Context, trackIDs []string) (map[string][]TrackTag, error) {
	if len(trackIDs) == 0 {
		return make(map[string][]TrackTag), nil
	}

	query := `
		SELECT track_id, tag_name, tag_count, tag_rank, source, fetched_at
		FROM track_tags
		WHERE track_id = ANY($1)
		ORDER BY track_id, tag_rank, tag_name
	`
	rows, err := r.pool.Query(ctx, query, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("querying track tags: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]TrackTag)
	for rows.Next() {
		var tag TrackTag
		if err := rows.Scan(
			&tag.TrackID,
			&tag.TagName,
			&tag.TagCount,
			&tag.Rank,
			&tag.Source,
			&tag.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		result[tag.TrackID] = append(result[tag.TrackID], tag)
	}
	return result, rows.Err()
}

// DeleteStale removes tags fetched before olderThan and reports how many rows
// were deleted.
func (r *TagRepository) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM track_tags WHERE fetched_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("deleting stale tags: %w", err)
	}
	return ct.RowsAffected(), nil
}
