// Package db provides PostgreSQL-backed storage for the crawled-page cache.
// The cache is optional: the enrichment workflow runs uncached when no
// DATABASE_URL is configured.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the page-cache table when it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS crawled_pages (
		     id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		     url TEXT NOT NULL UNIQUE,
		     page_type TEXT,
		     raw_html TEXT,
		     parsed_text TEXT,
		     content_hash TEXT,
		     http_status INT,
		     fetch_status TEXT NOT NULL DEFAULT 'success',
		     error_message TEXT,
		     is_permanent_failure BOOLEAN NOT NULL DEFAULT FALSE,
		     retry_count INT NOT NULL DEFAULT 0,
		     retry_after TIMESTAMPTZ,
		     fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		     expires_at TIMESTAMPTZ,
		     last_accessed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		     created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		     updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`)
	if err != nil {
		return fmt.Errorf("failed to create crawled_pages table: %w", err)
	}
	return nil
}
