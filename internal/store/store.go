// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package store defines the persistence collaborators the recommendation
// core depends on: the menu catalog, the interaction log, the rating
// store, and the user profile store. The core treats these as read-mostly
// data sources; writes arrive through event ingestion.
//
// Two implementations ship: MemoryStore (tests, demos) and the DuckDB
// store in the duckdb subpackage (production).
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/palate/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers treat it as ordinary data absence, not a failure.
var ErrNotFound = errors.New("store: not found")

// DislikeThreshold is the rating value below which an item enters the
// user's disliked set and is excluded from recommendations.
const DislikeThreshold = 3

// ItemFilter narrows catalog reads. The zero value matches every
// available item. Criteria are conjunctive; list criteria match any of
// their elements.
type ItemFilter struct {
	Cuisines     []string
	ItemType     models.ItemType
	Dietary      []models.Dietary
	SpiceLevels  []models.SpiceLevel
	RestaurantID string
	MaxPrice     float64 // 0 = no cap
}

// Matches reports whether an item passes the filter. Unavailable items
// never match, regardless of filter contents.
func (f *ItemFilter) Matches(item *models.MenuItem) bool {
	if !item.Available {
		return false
	}
	if f.RestaurantID != "" && item.RestaurantID != f.RestaurantID {
		return false
	}
	if f.MaxPrice > 0 && item.Price > f.MaxPrice {
		return false
	}
	if len(f.Cuisines) > 0 && !matchesAnyCuisine(item.Cuisine, f.Cuisines) {
		return false
	}
	if f.ItemType != "" && !f.ItemType.MatchesCategory(item.Category) {
		return false
	}
	for _, d := range f.Dietary {
		if !item.SatisfiesDietary(d) {
			return false
		}
	}
	if len(f.SpiceLevels) > 0 && !matchesAnySpice(item.SpiceLevel, f.SpiceLevels) {
		return false
	}
	return true
}

func matchesAnyCuisine(cuisine string, wanted []string) bool {
	for _, c := range wanted {
		if strings.EqualFold(c, cuisine) {
			return true
		}
	}
	return false
}

func matchesAnySpice(level models.SpiceLevel, wanted []models.SpiceLevel) bool {
	for _, s := range wanted {
		if level == s {
			return true
		}
	}
	return false
}

// Catalog is the menu surface: restaurants, items, and order counters.
type Catalog interface {
	// FindAvailableItems returns available items passing the filter,
	// sorted by item ID for deterministic downstream processing.
	FindAvailableItems(ctx context.Context, filter ItemFilter) ([]models.MenuItem, error)

	// FindItem returns a single item by ID, available or not.
	FindItem(ctx context.Context, itemID string) (*models.MenuItem, error)

	// FindRestaurant returns a restaurant by ID.
	FindRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error)

	UpsertItem(ctx context.Context, item *models.MenuItem) error
	UpsertRestaurant(ctx context.Context, r *models.Restaurant) error

	// IncrementOrderCount bumps an item's lifetime order counter, an
	// input to popularity scoring. Unknown items are a no-op.
	IncrementOrderCount(ctx context.Context, itemID string, by int) error
}

// InteractionLog is the append-only order history.
type InteractionLog interface {
	AppendInteraction(ctx context.Context, in *models.Interaction) error

	// AllInteractions returns the full log ordered by order time then
	// user and item IDs, the order the matrix builder indexes by.
	AllInteractions(ctx context.Context) ([]models.Interaction, error)

	// HistoryForUser returns one user's interactions, most recent first.
	HistoryForUser(ctx context.Context, userID string) ([]models.Interaction, error)
}

// RatingStore holds explicit item ratings, at most one per (user, item).
type RatingStore interface {
	// UpsertRating stores or overwrites the user's rating for an item
	// and recomputes the item's average rating. Re-submitting an
	// identical rating is a no-op beyond the UpdatedAt refresh.
	UpsertRating(ctx context.Context, r *models.Rating) error

	// RatingsBelow returns the user's ratings with values strictly below
	// the threshold; the disliked set is derived from these.
	RatingsBelow(ctx context.Context, userID string, threshold int) ([]models.Rating, error)

	RatingsForUser(ctx context.Context, userID string) ([]models.Rating, error)
}

// ProfileStore holds stored taste profiles. Absent profiles are reported
// with ErrNotFound; callers fall back to models.DefaultProfile.
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, p *models.UserProfile) error
}

// Store aggregates every collaborator facet backed by a single engine.
type Store interface {
	Catalog
	InteractionLog
	RatingStore
	ProfileStore

	Close() error
}
