// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// MemoryStore is an in-memory Store for tests and demo deployments.
// All methods are safe for concurrent use; returned records are copies
// and never alias internal state.
type MemoryStore struct {
	mu           sync.RWMutex
	items        map[string]models.MenuItem
	restaurants  map[string]models.Restaurant
	interactions []models.Interaction
	ratings      map[string]map[string]models.Rating // userID -> itemID -> rating
	profiles     map[string]models.UserProfile
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:       make(map[string]models.MenuItem),
		restaurants: make(map[string]models.Restaurant),
		ratings:     make(map[string]map[string]models.Rating),
		profiles:    make(map[string]models.UserProfile),
	}
}

// FindAvailableItems returns available items passing the filter, sorted
// by item ID.
func (s *MemoryStore) FindAvailableItems(_ context.Context, filter ItemFilter) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.MenuItem
	for _, item := range s.items {
		if filter.Matches(&item) {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FindItem returns a single item by ID, available or not.
func (s *MemoryStore) FindItem(_ context.Context, itemID string) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	cloned := cloneItem(item)
	return &cloned, nil
}

// FindRestaurant returns a restaurant by ID.
func (s *MemoryStore) FindRestaurant(_ context.Context, restaurantID string) (*models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.restaurants[restaurantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// UpsertItem stores or replaces an item. CreatedAt is preserved across
// updates; UpdatedAt is refreshed.
func (s *MemoryStore) UpsertItem(_ context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		return fmt.Errorf("item ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := cloneItem(*item)
	if existing, ok := s.items[item.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.items[item.ID] = stored
	s.recomputeAverageLocked(item.ID)
	return nil
}

// UpsertRestaurant stores or replaces a restaurant.
func (s *MemoryStore) UpsertRestaurant(_ context.Context, r *models.Restaurant) error {
	if r.ID == "" {
		return fmt.Errorf("restaurant ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := *r
	if existing, ok := s.restaurants[r.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.restaurants[r.ID] = stored
	return nil
}

// IncrementOrderCount bumps an item's lifetime order counter. Unknown
// items are a no-op.
func (s *MemoryStore) IncrementOrderCount(_ context.Context, itemID string, by int) error {
	if by <= 0 {
		return fmt.Errorf("increment must be positive, got %d", by)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil
	}
	item.OrderCount += int64(by)
	item.UpdatedAt = time.Now().UTC()
	s.items[itemID] = item
	return nil
}

// AppendInteraction appends one order line to the log.
func (s *MemoryStore) AppendInteraction(_ context.Context, in *models.Interaction) error {
	if in.UserID == "" || in.ItemID == "" {
		return fmt.Errorf("interaction user and item IDs must not be empty")
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("interaction quantity must be positive, got %d", in.Quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *in
	if stored.OrderedAt.IsZero() {
		stored.OrderedAt = time.Now().UTC()
	}
	s.interactions = append(s.interactions, stored)
	return nil
}

// AllInteractions returns the full log ordered by order time then user
// and item IDs.
func (s *MemoryStore) AllInteractions(_ context.Context) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Interaction, len(s.interactions))
	copy(out, s.interactions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OrderedAt.Equal(out[j].OrderedAt) {
			return out[i].OrderedAt.Before(out[j].OrderedAt)
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// HistoryForUser returns one user's interactions, most recent first.
func (s *MemoryStore) HistoryForUser(_ context.Context, userID string) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Interaction
	for _, in := range s.interactions {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OrderedAt.Equal(out[j].OrderedAt) {
			return out[i].OrderedAt.After(out[j].OrderedAt)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// UpsertRating stores or overwrites a rating and recomputes the rated
// item's average.
func (s *MemoryStore) UpsertRating(_ context.Context, r *models.Rating) error {
	if r.UserID == "" || r.ItemID == "" {
		return fmt.Errorf("rating user and item IDs must not be empty")
	}
	if r.Value < 1 || r.Value > 5 {
		return fmt.Errorf("rating value must be in [1,5], got %d", r.Value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userRatings, ok := s.ratings[r.UserID]
	if !ok {
		userRatings = make(map[string]models.Rating)
		s.ratings[r.UserID] = userRatings
	}

	now := time.Now().UTC()
	stored := *r
	if existing, ok := userRatings[r.ItemID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	userRatings[r.ItemID] = stored
	s.recomputeAverageLocked(r.ItemID)
	return nil
}

// RatingsBelow returns the user's ratings strictly below the threshold,
// sorted by item ID.
func (s *MemoryStore) RatingsBelow(_ context.Context, userID string, threshold int) ([]models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Rating
	for _, r := range s.ratings[userID] {
		if r.Value < threshold {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// RatingsForUser returns all of the user's ratings, sorted by item ID.
func (s *MemoryStore) RatingsForUser(_ context.Context, userID string) ([]models.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Rating
	for _, r := range s.ratings[userID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

// Profile returns the stored profile or ErrNotFound.
func (s *MemoryStore) Profile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cloned := cloneProfile(p)
	return &cloned, nil
}

// SaveProfile stores or replaces a profile.
func (s *MemoryStore) SaveProfile(_ context.Context, p *models.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("profile user ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneProfile(*p)
	stored.UpdatedAt = time.Now().UTC()
	s.profiles[p.UserID] = stored
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// recomputeAverageLocked refreshes an item's average rating from all
// stored ratings. Caller holds the write lock.
func (s *MemoryStore) recomputeAverageLocked(itemID string) {
	item, ok := s.items[itemID]
	if !ok {
		return
	}

	var sum, count float64
	for _, userRatings := range s.ratings {
		if r, ok := userRatings[itemID]; ok {
			sum += float64(r.Value)
			count++
		}
	}
	if count == 0 {
		return
	}
	item.AverageRating = sum / count
	s.items[itemID] = item
}

func cloneItem(item models.MenuItem) models.MenuItem {
	cloned := item
	if item.Tags != nil {
		cloned.Tags = make([]string, len(item.Tags))
		copy(cloned.Tags, item.Tags)
	}
	if item.IsHalal != nil {
		halal := *item.IsHalal
		cloned.IsHalal = &halal
	}
	return cloned
}

func cloneProfile(p models.UserProfile) models.UserProfile {
	cloned := p
	if p.FavoriteCuisines != nil {
		cloned.FavoriteCuisines = make([]string, len(p.FavoriteCuisines))
		copy(cloned.FavoriteCuisines, p.FavoriteCuisines)
	}
	if p.DietaryRestrictions != nil {
		cloned.DietaryRestrictions = make([]models.Dietary, len(p.DietaryRestrictions))
		copy(cloned.DietaryRestrictions, p.DietaryRestrictions)
	}
	return cloned
}
