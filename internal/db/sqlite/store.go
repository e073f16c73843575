// Package sqlite provides a SQLite-backed tag cache for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/justestif/moodtunes/internal/db"
)

// maxKeysPerQuery keeps IN (...) lists well under SQLite's variable limit.
const maxKeysPerQuery = 500

// Store implements the tag cache on a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens the database at path, verifies the connection and runs the
// schema migration.
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite allows a single writer, and ":memory:" is per connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating sqlite db: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS track_tags (
		track_id TEXT NOT NULL,
		tag_name TEXT NOT NULL,
		tag_count INTEGER NOT NULL DEFAULT 0,
		tag_rank INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (track_id, tag_name)
	);
	CREATE INDEX IF NOT EXISTS track_tags_fetched_at_idx ON track_tags (fetched_at);
	`)
	return err
}

// ReplaceBatch stores tags in a single transaction, replacing everything
// previously stored for the keys in the batch.
func (s *Store) ReplaceBatch(ctx context.Context, tags []db.TrackTag) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cleared := make(map[string]bool)
	for _, t := range tags {
		if cleared[t.TrackID] {
			continue
		}
		cleared[t.TrackID] = true
		if _, err := tx.ExecContext(ctx, `DELETE FROM track_tags WHERE track_id = ?`, t.TrackID); err != nil {
			return fmt.Errorf("clearing tags for %s: %w", t.TrackID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO track_tags (track_id, tag_name, tag_count, tag_rank, source, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (track_id, tag_name) DO UPDATE SET
			tag_count = excluded.tag_count,
			tag_rank = excluded.tag_rank,
			source = excluded.source,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tags {
		if _, err := stmt.ExecContext(ctx, t.TrackID, t.TagName, t.TagCount, t.Rank, t.Source, t.FetchedAt.UnixNano()); err != nil {
			return fmt.Errorf("inserting tag %q for %s: %w", t.TagName, t.TrackID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tags: %w", err)
	}
	return nil
}

// GetForTracks retrieves tags for multiple keys in rank order.
func (s *Store) GetForTracks(ctx context.Context, keys []string) (map[string][]db.TrackTag, error) {
	result := make(map[string][]db.TrackTag)

	for start := 0; start < len(keys); start += maxKeysPerQuery {
		chunk := keys[start:min(start+maxKeysPerQuery, len(keys))]
		if err := s.getChunk(ctx, chunk, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) getChunk(ctx context.Context, keys []string, into map[string][]db.TrackTag) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, tag_name, tag_count, tag_rank, source, fetched_at
		FROM track_tags
		WHERE track_id IN (`+placeholders+`)
		ORDER BY track_id, tag_rank, tag_name
	`, args...)
	if err != nil {
		return fmt.Errorf("querying track tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag db.TrackTag
		var fetchedAt int64
		if err := rows.Scan(&tag.TrackID, &tag.TagName, &tag.TagCount, &tag.Rank, &tag.Source, &fetchedAt); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		tag.FetchedAt = time.Unix(0, fetchedAt).UTC()
		into[tag.TrackID] = append(into[tag.TrackID], tag)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating track tags: %w", err)
	}
	return nil
}

// DeleteStale removes tags fetched before olderThan and reports how many rows
// were deleted.
func (s *Store) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM track_tags WHERE fetched_at < ?`, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("deleting stale tags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted tags: %w", err)
	}
	return n, nil
}
