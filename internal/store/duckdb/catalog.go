// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/store"
)

const menuItemColumns = `id, restaurant_id, name, description, price, category, cuisine,
	spice_level, is_vegetarian, is_vegan, is_halal, tags,
	average_rating, popularity_score, order_count, available, created_at, updated_at`

// FindAvailableItems returns available items passing the filter, sorted
// by item ID. Availability and cheap scalar criteria narrow in SQL; the
// remaining criteria (item type aliases, dietary tri-states) apply
// in-process through the shared filter predicate.
func (db *DB) FindAvailableItems(ctx context.Context, filter store.ItemFilter) (items []models.MenuItem, err error) {
	defer db.observe("find_available_items", time.Now(), &err)

	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE available = true`
	args := []any{}
	if filter.RestaurantID != "" {
		query += ` AND restaurant_id = ?`
		args = append(args, filter.RestaurantID)
	}
	if filter.MaxPrice > 0 {
		query += ` AND price <= ?`
		args = append(args, filter.MaxPrice)
	}
	query += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query available items: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		item, scanErr := scanMenuItem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		if filter.Matches(item) {
			items = append(items, *item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// FindItem returns a single item by ID, available or not.
func (db *DB) FindItem(ctx context.Context, itemID string) (item *models.MenuItem, err error) {
	defer db.observe("find_item", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = ?`, itemID)
	item, err = scanMenuItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return item, err
}

// FindRestaurant returns a restaurant by ID.
func (db *DB) FindRestaurant(ctx context.Context, restaurantID string) (r *models.Restaurant, err error) {
	defer db.observe("find_restaurant", time.Now(), &err)

	var (
		got     models.Restaurant
		cuisine sql.NullString
		city    sql.NullString
	)
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, name, cuisine, city, active, created_at, updated_at
		 FROM restaurants WHERE id = ?`, restaurantID).
		Scan(&got.ID, &got.Name, &cuisine, &city, &got.Active, &got.CreatedAt, &got.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurant: %w", err)
	}
	got.Cuisine = cuisine.String
	got.City = city.String
	normalizeTimes(&got.CreatedAt, &got.UpdatedAt)
	return &got, nil
}

// UpsertItem stores or replaces an item. CreatedAt is preserved across
// updates.
func (db *DB) UpsertItem(ctx context.Context, item *models.MenuItem) (err error) {
	defer db.observe("upsert_item", time.Now(), &err)

	if item.ID == "" {
		return fmt.Errorf("item ID must not be empty")
	}

	tags, err := encodeStrings(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	stmt, err := db.prepared(ctx, `INSERT INTO menu_items (`+menuItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			restaurant_id = EXCLUDED.restaurant_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			cuisine = EXCLUDED.cuisine,
			spice_level = EXCLUDED.spice_level,
			is_vegetarian = EXCLUDED.is_vegetarian,
			is_vegan = EXCLUDED.is_vegan,
			is_halal = EXCLUDED.is_halal,
			tags = EXCLUDED.tags,
			average_rating = EXCLUDED.average_rating,
			popularity_score = EXCLUDED.popularity_score,
			order_count = EXCLUDED.order_count,
			available = EXCLUDED.available,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		item.ID, item.RestaurantID, item.Name, nullString(item.Description),
		item.Price, nullString(item.Category), nullString(item.Cuisine),
		string(item.SpiceLevel), item.IsVegetarian, item.IsVegan, nullBool(item.IsHalal), tags,
		item.AverageRating, item.PopularityScore, item.OrderCount, item.Available,
		createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// UpsertRestaurant stores or replaces a restaurant.
func (db *DB) UpsertRestaurant(ctx context.Context, r *models.Restaurant) (err error) {
	defer db.observe("upsert_restaurant", time.Now(), &err)

	if r.ID == "" {
		return fmt.Errorf("restaurant ID must not be empty")
	}

	now := time.Now().UTC()
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO restaurants (id, name, cuisine, city, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			cuisine = EXCLUDED.cuisine,
			city = EXCLUDED.city,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`,
		r.ID, r.Name, nullString(r.Cuisine), nullString(r.City), r.Active, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert restaurant: %w", err)
	}
	return nil
}

// IncrementOrderCount bumps an item's lifetime order counter. Unknown
// items are a no-op.
func (db *DB) IncrementOrderCount(ctx context.Context, itemID string, by int) (err error) {
	defer db.observe("increment_order_count", time.Now(), &err)

	if by <= 0 {
		return fmt.Errorf("increment must be positive, got %d", by)
	}

	stmt, err := db.prepared(ctx,
		`UPDATE menu_items SET order_count = order_count + ?, updated_at = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	if _, err = stmt.ExecContext(ctx, by, time.Now().UTC(), itemID); err != nil {
		return fmt.Errorf("failed to increment order count: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(row rowScanner) (*models.MenuItem, error) {
	var (
		item        models.MenuItem
		description sql.NullString
		category    sql.NullString
		cuisine     sql.NullString
		spice       string
		isHalal     sql.NullBool
		tags        sql.NullString
	)
	err := row.Scan(&item.ID, &item.RestaurantID, &item.Name, &description,
		&item.Price, &category, &cuisine,
		&spice, &item.IsVegetarian, &item.IsVegan, &isHalal, &tags,
		&item.AverageRating, &item.PopularityScore, &item.OrderCount, &item.Available,
		&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan menu item: %w", err)
	}

	item.Description = description.String
	item.Category = category.String
	item.Cuisine = cuisine.String
	item.SpiceLevel = models.SpiceLevel(spice)
	if isHalal.Valid {
		halal := isHalal.Bool
		item.IsHalal = &halal
	}
	if tags.Valid && tags.String != "" {
		decoded, err := decodeStrings(tags.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tags for item %s: %w", item.ID, err)
		}
		item.Tags = decoded
	}
	normalizeTimes(&item.CreatedAt, &item.UpdatedAt)
	return &item, nil
}

// encodeStrings marshals a string slice to JSON text, mapping empty
// slices to "[]" so reads never see SQL NULL surprises.
func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(encoded string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

// normalizeTimes forces timestamps read from DuckDB to UTC so equality
// comparisons against written values hold.
func normalizeTimes(times ...*time.Time) {
	for _, t := range times {
		*t = t.UTC()
	}
}
