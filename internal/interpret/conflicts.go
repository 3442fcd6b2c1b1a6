// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

import (
	"fmt"
	"strings"

	"github.com/tomtom215/palate/internal/models"
)

// DetectConflicts reports where the message's overrides pull against the
// stored profile. Each conflict type is checked only when the matching
// override is present, every check runs, and all findings are returned:
// conflicts are advisory and never block the request.
//
// Spice conflicts cover opposite extremes only; a medium-to-hot nudge is
// not worth calling out. A dietary conflict fires per profile restriction
// the override's terms do not cover. A cuisine conflict fires when the
// profile has favorites and the override set shares none of them.
func (in *Interpreter) DetectConflicts(override models.QueryOverride, profile *models.UserProfile) []models.Conflict {
	if profile == nil {
		return nil
	}

	var conflicts []models.Conflict

	if override.HasSpice() {
		stored := profile.SpicePreference
		if !stored.Valid() {
			stored = models.DefaultSpiceLevel
		}
		if stored.OppositeExtreme(override.Spice) {
			conflicts = append(conflicts, models.Conflict{
				Type:           models.ConflictSpice,
				StoredValue:    stored.String(),
				RequestedValue: override.Spice.String(),
				Explanation:    fmt.Sprintf("You usually prefer %s food, but you're asking for %s.", stored, override.Spice),
			})
		}
	}

	if override.HasDietary() {
		requested := models.NewDietarySet(override.Dietary)
		requestedJoined := joinDietary(override.Dietary)
		for _, restriction := range profile.DietaryRestrictions {
			if requested.Contains(restriction) {
				continue
			}
			conflicts = append(conflicts, models.Conflict{
				Type:           models.ConflictDietary,
				StoredValue:    restriction.String(),
				RequestedValue: requestedJoined,
				Explanation:    fmt.Sprintf("You're %s, but you're looking for items that may not match this restriction.", restriction),
			})
		}
	}

	if override.HasCuisine() && len(profile.FavoriteCuisines) > 0 {
		if !cuisinesOverlap(profile.FavoriteCuisines, override.Cuisines) {
			stored := strings.Join(profile.FavoriteCuisines, ", ")
			requested := strings.Join(override.Cuisines, ", ")
			conflicts = append(conflicts, models.Conflict{
				Type:           models.ConflictCuisine,
				StoredValue:    stored,
				RequestedValue: requested,
				Explanation:    fmt.Sprintf("You usually prefer %s, but you're asking for %s.", stored, requested),
			})
		}
	}

	return conflicts
}

func cuisinesOverlap(stored, requested []string) bool {
	for _, s := range stored {
		for _, r := range requested {
			if strings.EqualFold(s, r) {
				return true
			}
		}
	}
	return false
}

func joinDietary(diets []models.Dietary) string {
	parts := make([]string, len(diets))
	for i, d := range diets {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
