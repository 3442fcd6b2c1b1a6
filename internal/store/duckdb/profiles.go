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

// Profile returns the stored profile or store.ErrNotFound.
func (db *DB) Profile(ctx context.Context, userID string) (p *models.UserProfile, err error) {
	defer db.observe("profile", time.Now(), &err)

	var (
		got      models.UserProfile
		name     sql.NullString
		cuisines sql.NullString
		dietary  sql.NullString
		spice    string
	)
	err = db.conn.QueryRowContext(ctx,
		`SELECT user_id, name, favorite_cuisines, dietary_restrictions, spice_preference, updated_at
		 FROM user_profiles WHERE user_id = ?`, userID).
		Scan(&got.UserID, &name, &cuisines, &dietary, &spice, &got.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	got.Name = name.String
	got.SpicePreference = models.SpiceLevel(spice)
	if cuisines.Valid && cuisines.String != "" {
		decoded, err := decodeStrings(cuisines.String)
		if err != nil {
			return nil, fmt.Errorf("failed to decode favorite cuisines for %s: %w", userID, err)
		}
		got.FavoriteCuisines = decoded
	}
	if dietary.Valid && dietary.String != "" {
		var restrictions []models.Dietary
		if err := json.Unmarshal([]byte(dietary.String), &restrictions); err != nil {
			return nil, fmt.Errorf("failed to decode dietary restrictions for %s: %w", userID, err)
		}
		if len(restrictions) > 0 {
			got.DietaryRestrictions = restrictions
		}
	}
	got.UpdatedAt = got.UpdatedAt.UTC()
	return &got, nil
}

// SaveProfile stores or replaces a profile.
func (db *DB) SaveProfile(ctx context.Context, p *models.UserProfile) (err error) {
	defer db.observe("save_profile", time.Now(), &err)

	if p.UserID == "" {
		return fmt.Errorf("profile user ID must not be empty")
	}

	cuisines, err := encodeStrings(p.FavoriteCuisines)
	if err != nil {
		return fmt.Errorf("failed to encode favorite cuisines: %w", err)
	}
	dietary, err := json.Marshal(p.DietaryRestrictions)
	if err != nil {
		return fmt.Errorf("failed to encode dietary restrictions: %w", err)
	}
	if p.DietaryRestrictions == nil {
		dietary = []byte("[]")
	}

	spice := p.SpicePreference
	if !spice.Valid() {
		spice = models.DefaultSpiceLevel
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, name, favorite_cuisines, dietary_restrictions, spice_preference, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			favorite_cuisines = EXCLUDED.favorite_cuisines,
			dietary_restrictions = EXCLUDED.dietary_restrictions,
			spice_preference = EXCLUDED.spice_preference,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, nullString(p.Name), cuisines, string(dietary), string(spice), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
