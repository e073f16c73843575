// Package db provides PostgreSQL persistence for cached track tags.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS track_tags (
		track_id   TEXT NOT NULL,
		tag_name   TEXT NOT NULL,
		tag_count  INTEGER NOT NULL DEFAULT 0,
		tag_rank   INTEGER NOT NULL DEFAULT 0,
		source     TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (track_id, tag_name)
	);
	ALTER TABLE track_tags ADD COLUMN IF NOT EXISTS tag_rank INTEGER NOT NULL DEFAULT 0;
	CREATE INDEX IF NOT EXISTS track_tags_fetched_at_idx ON track_tags (fetched_at);
`

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the tables used by the tag cache if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Tags returns a TagRepository.
func (db *DB) Tags() *TagRepository {
	return &TagRepository{pool: db.pool}
}
