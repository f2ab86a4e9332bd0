package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id BIGSERIAL PRIMARY KEY,
			requester_id BIGINT NOT NULL,
			recipient_id BIGINT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending','accepted','declined')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			responded_at TIMESTAMPTZ,
			seen_at TIMESTAMPTZ
			)`,
		// One active edge per unordered pair. Declined rows stay outside the
		// index so the recreate-after-decline path can insert freely.
		`CREATE UNIQUE INDEX IF NOT EXISTS friend_requests_active_pair_uniq
			ON friend_requests (LEAST(requester_id, recipient_id), GREATEST(requester_id, recipient_id))
			WHERE status IN ('pending','accepted')`,
		`CREATE INDEX IF NOT EXISTS friend_requests_requester_idx
			ON friend_requests (requester_id, status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS friend_requests_recipient_idx
			ON friend_requests (recipient_id, status, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS entries (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			wine_name TEXT NOT NULL,
			vintage INT NOT NULL DEFAULT 0,
			rating INT NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			privacy TEXT NOT NULL DEFAULT 'public'
				CHECK (privacy IN ('public','friends','friends_of_friends','private')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		`CREATE INDEX IF NOT EXISTS entries_owner_idx ON entries (owner_id, created_at DESC)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
