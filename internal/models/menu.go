// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import (
	"strings"
	"time"
)

// MenuItem is a single orderable catalog entry.
//
// The catalog collaborator owns creation and updates; the recommendation
// core only reads. Cuisine is denormalized from the owning restaurant so
// scoring does not require a per-item restaurant lookup; the Restaurant
// record remains authoritative.
//
// IsHalal is a tri-state: nil means the restaurant never supplied halal
// data, which the admissibility filter treats as compatible rather than
// as a violation.
type MenuItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`

	Price    float64 `json:"price"`
	Category string  `json:"category,omitempty"` // free-text catalog category, e.g. "Main Course"
	Cuisine  string  `json:"cuisine,omitempty"`  // denormalized restaurant cuisine

	SpiceLevel   SpiceLevel `json:"spice_level"`
	IsVegetarian bool       `json:"is_vegetarian"`
	IsVegan      bool       `json:"is_vegan"`
	IsHalal      *bool      `json:"is_halal,omitempty"`
	Tags         []string   `json:"tags,omitempty"`

	AverageRating   float64 `json:"average_rating"`   // 0-5, recomputed on rating upsert
	PopularityScore float64 `json:"popularity_score"` // non-negative, maintained by the catalog
	OrderCount      int64   `json:"order_count"`      // lifetime orders, popularity input

	Available bool `json:"available"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTag reports whether the item carries the tag, case-insensitively.
func (m *MenuItem) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HalalCompatible reports whether the item can be served to a user with a
// halal restriction. Items with no halal data are compatible.
func (m *MenuItem) HalalCompatible() bool {
	return m.IsHalal == nil || *m.IsHalal
}

// SatisfiesDietary reports whether the item is compatible with a single
// dietary restriction. Gluten-free compatibility is judged from tags: an
// item tagged "gluten" or "wheat" is incompatible.
func (m *MenuItem) SatisfiesDietary(d Dietary) bool {
	switch d {
	case DietVegetarian:
		return m.IsVegetarian
	case DietVegan:
		return m.IsVegan
	case DietHalal:
		return m.HalalCompatible()
	case DietGlutenFree:
		return !m.HasTag("gluten") && !m.HasTag("wheat")
	default:
		return true
	}
}

// Restaurant is the owning venue for menu items.
type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Cuisine string `json:"cuisine,omitempty"`
	City    string `json:"city,omitempty"`
	Active  bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemType is the coarse dish classification extracted from requests
// ("something sweet", "any snacks?") and matched against the free-text
// catalog category.
type ItemType string

const (
	ItemTypeMain    ItemType = "main"
	ItemTypeSnack   ItemType = "snack"
	ItemTypeDessert ItemType = "dessert"
	ItemTypeDrink   ItemType = "drink"
)

// categoryAliases maps each item type to the catalog category spellings
// it covers. Matching is case-insensitive on the normalized category.
var categoryAliases = map[ItemType][]string{
	ItemTypeMain:    {"main", "mains", "main course", "entree", "entrees"},
	ItemTypeSnack:   {"snack", "snacks", "starter", "starters", "appetizer", "appetizers", "side", "sides"},
	ItemTypeDessert: {"dessert", "desserts", "sweet", "sweets", "bakery"},
	ItemTypeDrink:   {"drink", "drinks", "beverage", "beverages", "juice", "juices", "shake", "shakes"},
}

// Valid reports whether the type is one of the four known values.
func (t ItemType) Valid() bool {
	_, ok := categoryAliases[t]
	return ok
}

// MatchesCategory reports whether a catalog category string falls under
// this item type.
func (t ItemType) MatchesCategory(category string) bool {
	normalized := strings.ToLower(strings.TrimSpace(category))
	for _, alias := range categoryAliases[t] {
		if normalized == alias {
			return true
		}
	}
	return false
}

// String returns the wire form of the type.
func (t ItemType) String() string {
	return string(t)
}
