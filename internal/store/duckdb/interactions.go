// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// AppendInteraction appends one order line to the log.
func (db *DB) AppendInteraction(ctx context.Context, in *models.Interaction) (err error) {
	defer db.observe("append_interaction", time.Now(), &err)

	if in.UserID == "" || in.ItemID == "" {
		return fmt.Errorf("interaction user and item IDs must not be empty")
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("interaction quantity must be positive, got %d", in.Quantity)
	}

	orderedAt := in.OrderedAt
	if orderedAt.IsZero() {
		orderedAt = time.Now().UTC()
	}

	stmt, err := db.prepared(ctx,
		`INSERT INTO interactions (user_id, item_id, quantity, ordered_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	if _, err = stmt.ExecContext(ctx, in.UserID, in.ItemID, in.Quantity, orderedAt); err != nil {
		return fmt.Errorf("failed to append interaction: %w", err)
	}
	return nil
}

// AllInteractions returns the full log ordered by order time then user
// and item IDs, the order the matrix builder indexes by.
func (db *DB) AllInteractions(ctx context.Context) (interactions []models.Interaction, err error) {
	defer db.observe("all_interactions", time.Now(), &err)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, item_id, quantity, ordered_at FROM interactions
		 ORDER BY ordered_at ASC, user_id ASC, item_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.UserID, &in.ItemID, &in.Quantity, &in.OrderedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.OrderedAt = in.OrderedAt.UTC()
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return interactions, nil
}

// HistoryForUser returns one user's interactions, most recent first.
func (db *DB) HistoryForUser(ctx context.Context, userID string) (interactions []models.Interaction, err error) {
	defer db.observe("history_for_user", time.Now(), &err)

	stmt, err := db.prepared(ctx,
		`SELECT user_id, item_id, quantity, ordered_at FROM interactions
		 WHERE user_id = ? ORDER BY ordered_at DESC, item_id ASC`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user history: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.UserID, &in.ItemID, &in.Quantity, &in.OrderedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		in.OrderedAt = in.OrderedAt.UTC()
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user history: %w", err)
	}
	return interactions, nil
}
