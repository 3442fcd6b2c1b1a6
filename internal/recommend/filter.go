// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

// EffectiveConstraintsFor merges a stored profile with request-scoped
// overrides, field by field.
//
// Spice, cuisines, and item type are replaced outright when overridden.
// Dietary overrides are unioned with the profile's restrictions instead:
// a message asking for vegan food does not lift a stored halal
// restriction, it adds to it. Conflict detection separately surfaces the
// tension when the two disagree.
func EffectiveConstraintsFor(profile *models.UserProfile, override models.QueryOverride) algorithms.EffectiveConstraints {
	eff := algorithms.EffectiveConstraints{
		Cuisines: profile.FavoriteCuisines,
		Dietary:  profile.DietaryRestrictions,
		Spice:    profile.SpicePreference,
	}
	if !eff.Spice.Valid() {
		eff.Spice = models.DefaultSpiceLevel
	}

	if override.HasSpice() {
		eff.Spice = override.Spice
	}
	if override.HasDietary() {
		eff.Dietary = unionDietary(profile.DietaryRestrictions, override.Dietary)
	}
	if override.HasCuisine() {
		eff.Cuisines = override.Cuisines
	}
	if override.HasItemType() {
		eff.ItemType = override.ItemType
	}
	return eff
}

// unionDietary merges two restriction lists, first-appearance order,
// without duplicates.
func unionDietary(a, b []models.Dietary) []models.Dietary {
	seen := make(map[models.Dietary]struct{}, len(a)+len(b))
	merged := make([]models.Dietary, 0, len(a)+len(b))
	for _, list := range [][]models.Dietary{a, b} {
		for _, d := range list {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			merged = append(merged, d)
		}
	}
	return merged
}

// DislikedSetFrom derives the hard-exclusion set from low ratings.
func DislikedSetFrom(ratings []models.Rating) map[string]struct{} {
	if len(ratings) == 0 {
		return nil
	}
	disliked := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		disliked[r.ItemID] = struct{}{}
	}
	return disliked
}

// IsAdmissible is the pure eligibility predicate applied before any
// scoring: the item is available, satisfies every effective dietary
// restriction, and is not in the user's disliked set. It never consults
// the latent model or content scores.
func IsAdmissible(item *models.MenuItem, dietary []models.Dietary, disliked map[string]struct{}) bool {
	if !item.Available {
		return false
	}
	for _, d := range dietary {
		if !item.SatisfiesDietary(d) {
			return false
		}
	}
	if _, bad := disliked[item.ID]; bad {
		return false
	}
	return true
}

// FilterAdmissible returns the items passing IsAdmissible, preserving
// input order.
func FilterAdmissible(items []models.MenuItem, dietary []models.Dietary, disliked map[string]struct{}) []models.MenuItem {
	admissible := make([]models.MenuItem, 0, len(items))
	for i := range items {
		if IsAdmissible(&items[i], dietary, disliked) {
			admissible = append(admissible, items[i])
		}
	}
	return admissible
}
