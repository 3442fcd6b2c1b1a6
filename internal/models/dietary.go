// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import "strings"

// Dietary is a dietary restriction label. Restrictions are hard
// constraints: an item that violates any effective restriction is
// excluded before scoring, never merely penalized.
type Dietary string

const (
	DietVegetarian Dietary = "vegetarian"
	DietVegan      Dietary = "vegan"
	DietHalal      Dietary = "halal"
	DietGlutenFree Dietary = "gluten-free"
)

var knownDietary = map[Dietary]struct{}{
	DietVegetarian: {},
	DietVegan:      {},
	DietHalal:      {},
	DietGlutenFree: {},
}

// ParseDietary normalizes a raw label ("Gluten Free", "gluten_free",
// "VEGAN") into a Dietary value. The second return value reports whether
// the input named a known restriction.
func ParseDietary(s string) (Dietary, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	d := Dietary(normalized)
	if _, ok := knownDietary[d]; ok {
		return d, true
	}
	return "", false
}

// Valid reports whether the label is one of the four known restrictions.
func (d Dietary) Valid() bool {
	_, ok := knownDietary[d]
	return ok
}

// String returns the wire form of the label.
func (d Dietary) String() string {
	return string(d)
}

// DietarySet is a small set of restrictions keyed for membership checks.
type DietarySet map[Dietary]struct{}

// NewDietarySet builds a set from a slice, dropping invalid labels.
func NewDietarySet(labels []Dietary) DietarySet {
	set := make(DietarySet, len(labels))
	for _, label := range labels {
		if label.Valid() {
			set[label] = struct{}{}
		}
	}
	return set
}

// Contains reports membership.
func (s DietarySet) Contains(d Dietary) bool {
	_, ok := s[d]
	return ok
}
