// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// UpsertRating stores or overwrites a rating and recomputes the rated
// item's average. Re-submitting an identical rating only refreshes
// updated_at.
func (db *DB) UpsertRating(ctx context.Context, r *models.Rating) (err error) {
	defer db.observe("upsert_rating", time.Now(), &err)

	if r.UserID == "" || r.ItemID == "" {
		return fmt.Errorf("rating user and item IDs must not be empty")
	}
	if r.Value < 1 || r.Value > 5 {
		return fmt.Errorf("rating value must be in [1,5], got %d", r.Value)
	}

	now := time.Now().UTC()
	stmt, err := db.prepared(ctx,
		`INSERT INTO ratings (user_id, item_id, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, item_id) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return err
	}
	if _, err = stmt.ExecContext(ctx, r.UserID, r.ItemID, r.Value, now, now); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	// Refresh the denormalized average on the item. An unknown item
	// simply updates zero rows.
	avgStmt, err := db.prepared(ctx,
		`UPDATE menu_items
		 SET average_rating = COALESCE((SELECT AVG(value) FROM ratings WHERE item_id = ?), average_rating),
			updated_at = ?
		 WHERE id = ?`)
	if err != nil {
		return err
	}
	if _, err = avgStmt.ExecContext(ctx, r.ItemID, now, r.ItemID); err != nil {
		return fmt.Errorf("failed to refresh item average rating: %w", err)
	}
	return nil
}

// RatingsBelow returns the user's ratings strictly below the threshold,
// sorted by item ID.
func (db *DB) RatingsBelow(ctx context.Context, userID string, threshold int) (ratings []models.Rating, err error) {
	defer db.observe("ratings_below", time.Now(), &err)

	stmt, err := db.prepared(ctx,
		`SELECT user_id, item_id, value, created_at, updated_at FROM ratings
		 WHERE user_id = ? AND value < ? ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	return db.queryRatings(ctx, stmt, userID, threshold)
}

// RatingsForUser returns all of the user's ratings, sorted by item ID.
func (db *DB) RatingsForUser(ctx context.Context, userID string) (ratings []models.Rating, err error) {
	defer db.observe("ratings_for_user", time.Now(), &err)

	stmt, err := db.prepared(ctx,
		`SELECT user_id, item_id, value, created_at, updated_at FROM ratings
		 WHERE user_id = ? ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	return db.queryRatings(ctx, stmt, userID)
}

func (db *DB) queryRatings(ctx context.Context, stmt *sql.Stmt, args ...any) ([]models.Rating, error) {
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeQuietly(rows)

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		normalizeTimes(&r.CreatedAt, &r.UpdatedAt)
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return ratings, nil
}
