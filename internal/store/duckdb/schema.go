// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package duckdb

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
//
// Slice-valued fields (tags, favorite cuisines, dietary restrictions)
// are stored as JSON-encoded TEXT; is_halal is nullable so absent halal
// data survives round trips as a tri-state.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			cuisine TEXT,
			city TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS menu_items (
			id TEXT PRIMARY KEY,
			restaurant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			price DOUBLE NOT NULL DEFAULT 0,
			category TEXT,
			cuisine TEXT,
			spice_level TEXT NOT NULL DEFAULT 'medium',
			is_vegetarian BOOLEAN NOT NULL DEFAULT false,
			is_vegan BOOLEAN NOT NULL DEFAULT false,
			is_halal BOOLEAN,
			tags TEXT,
			average_rating DOUBLE NOT NULL DEFAULT 0,
			popularity_score DOUBLE NOT NULL DEFAULT 0,
			order_count BIGINT NOT NULL DEFAULT 0,
			available BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS interactions (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			ordered_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ratings (
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			value INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, item_id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			name TEXT,
			favorite_cuisines TEXT,
			dietary_restrictions TEXT,
			spice_preference TEXT NOT NULL DEFAULT 'medium',
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant ON menu_items(restaurant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_available ON menu_items(available)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id, ordered_at)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_ordered_at ON interactions(ordered_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_item ON ratings(item_id)`,
	}
}
