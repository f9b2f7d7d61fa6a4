// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is valid for both PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema (statement %d): %w", i, err)
		}
	}
	return nil
}

// Executed in order, one statement per Exec.
var statements = []string{
	// Comparisons
	`CREATE TABLE IF NOT EXISTS comparison (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		comparison_type TEXT NOT NULL DEFAULT 'weighted' CHECK (comparison_type IN ('simple', 'weighted', 'pro_con')),
		status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'confirmed')),
		share_slug TEXT UNIQUE,
		rating_version BIGINT NOT NULL DEFAULT 0,
		chosen_item_id TEXT,
		matched_computed_winner BOOLEAN,
		confirmed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comparison_share_slug ON comparison(share_slug)`,
	`CREATE INDEX IF NOT EXISTS idx_comparison_status ON comparison(status)`,

	// Candidate items
	`CREATE TABLE IF NOT EXISTS candidate_item (
		id TEXT PRIMARY KEY,
		comparison_id TEXT NOT NULL REFERENCES comparison(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		price REAL NOT NULL DEFAULT 0 CHECK (price >= 0),
		store TEXT NOT NULL DEFAULT '',
		wishlist_item_id TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL,
		UNIQUE (comparison_id, sort_order)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_candidate_item_comparison_id ON candidate_item(comparison_id)`,

	// Criteria
	`CREATE TABLE IF NOT EXISTS criterion (
		id TEXT PRIMARY KEY,
		comparison_id TEXT NOT NULL REFERENCES comparison(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		weight REAL NOT NULL CHECK (weight > 0),
		sort_order INTEGER NOT NULL,
		UNIQUE (comparison_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_criterion_comparison_id ON criterion(comparison_id)`,

	// Raters
	`CREATE TABLE IF NOT EXISTS rater (
		id TEXT PRIMARY KEY,
		comparison_id TEXT NOT NULL REFERENCES comparison(id) ON DELETE CASCADE,
		display_name TEXT NOT NULL,
		rater_token TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (comparison_id, display_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rater_comparison_id ON rater(comparison_id)`,

	// Ratings
	`CREATE TABLE IF NOT EXISTS rating (
		item_id TEXT NOT NULL REFERENCES candidate_item(id) ON DELETE CASCADE,
		criterion_id TEXT NOT NULL REFERENCES criterion(id) ON DELETE CASCADE,
		rater_id TEXT NOT NULL REFERENCES rater(id) ON DELETE CASCADE,
		value INTEGER NOT NULL CHECK (value >= 1 AND value <= 5),
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (item_id, criterion_id, rater_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rating_criterion_id ON rating(criterion_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rating_rater_id ON rating(rater_id)`,

	// Pros and cons
	`CREATE TABLE IF NOT EXISTS pro_con (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES candidate_item(id) ON DELETE CASCADE,
		rater_id TEXT NOT NULL REFERENCES rater(id) ON DELETE CASCADE,
		kind TEXT NOT NULL CHECK (kind IN ('pro', 'con')),
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pro_con_item_id ON pro_con(item_id)`,

	// Discussion thread
	`CREATE TABLE IF NOT EXISTS comment (
		id TEXT PRIMARY KEY,
		comparison_id TEXT NOT NULL REFERENCES comparison(id) ON DELETE CASCADE,
		rater_id TEXT NOT NULL REFERENCES rater(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comment_comparison_id ON comment(comparison_id)`,

	// Decision snapshots
	`CREATE TABLE IF NOT EXISTS decision_snapshot (
		id TEXT PRIMARY KEY,
		comparison_id TEXT NOT NULL UNIQUE REFERENCES comparison(id) ON DELETE CASCADE,
		chosen_item_id TEXT NOT NULL,
		matched_computed_winner BOOLEAN NOT NULL,
		computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		payload JSONB NOT NULL
	)`,
}
