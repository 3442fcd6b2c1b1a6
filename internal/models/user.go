// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import "time"

// Interaction is a single historical order line. Multiple interactions
// for the same (user, item) pair accumulate; the matrix builder sums
// quantities. Interactions are implicit-feedback signal only and are
// never surfaced individually in recommendation output.
type Interaction struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	OrderedAt time.Time `json:"ordered_at"`
}

// Rating is an explicit 1-5 judgment of an item. At most one active
// rating exists per (user, item): a new rating overwrites the previous
// one. Values below the dislike threshold place the item in the user's
// disliked set, a hard exclusion from all future recommendations.
type Rating struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Value     int       `json:"value"` // 1-5
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the stored taste profile. It supplies the default
// context for a request; request-scoped overrides win field-by-field
// when present.
type UserProfile struct {
	UserID              string     `json:"user_id"`
	Name                string     `json:"name,omitempty"`
	FavoriteCuisines    []string   `json:"favorite_cuisines,omitempty"`
	DietaryRestrictions []Dietary  `json:"dietary_restrictions,omitempty"`
	SpicePreference     SpiceLevel `json:"spice_preference"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DefaultProfile returns the profile assumed for a user with no stored
// preferences: no cuisines, no restrictions, medium spice.
func DefaultProfile(userID string) UserProfile {
	return UserProfile{
		UserID:          userID,
		SpicePreference: DefaultSpiceLevel,
	}
}

// EffectiveSpice returns the stored spice preference, falling back to
// the default when the profile carries no valid value.
func (p *UserProfile) EffectiveSpice() SpiceLevel {
	if p.SpicePreference.Valid() {
		return p.SpicePreference
	}
	return DefaultSpiceLevel
}

// HasRestriction reports whether the profile carries the restriction.
func (p *UserProfile) HasRestriction(d Dietary) bool {
	for _, r := range p.DietaryRestrictions {
		if r == d {
			return true
		}
	}
	return false
}
