// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

import (
	"reflect"
	"testing"

	"github.com/tomtom215/palate/internal/models"
)

func TestInterpreter_DetectConflicts(t *testing.T) {
	in := newTestInterpreter(t)

	tests := []struct {
		name     string
		override models.QueryOverride
		profile  *models.UserProfile
		want     []models.Conflict
	}{
		{
			name:     "nil profile",
			override: models.QueryOverride{Spice: models.SpiceVeryHot},
			profile:  nil,
			want:     nil,
		},
		{
			name:     "no overrides no conflicts",
			override: models.QueryOverride{},
			profile: &models.UserProfile{
				SpicePreference:     models.SpiceMild,
				DietaryRestrictions: []models.Dietary{models.DietVegetarian, models.DietHalal},
				FavoriteCuisines:    []string{"Pakistani"},
			},
			want: nil,
		},
		{
			name:     "spice opposite extremes",
			override: models.QueryOverride{Spice: models.SpiceVeryHot},
			profile:  &models.UserProfile{SpicePreference: models.SpiceMild},
			want: []models.Conflict{
				{
					Type:           models.ConflictSpice,
					StoredValue:    "mild",
					RequestedValue: "very_hot",
					Explanation:    "You usually prefer mild food, but you're asking for very_hot.",
				},
			},
		},
		{
			name:     "spice reversed extremes",
			override: models.QueryOverride{Spice: models.SpiceMild},
			profile:  &models.UserProfile{SpicePreference: models.SpiceHot},
			want: []models.Conflict{
				{
					Type:           models.ConflictSpice,
					StoredValue:    "hot",
					RequestedValue: "mild",
					Explanation:    "You usually prefer hot food, but you're asking for mild.",
				},
			},
		},
		{
			name:     "adjacent spice is not a conflict",
			override: models.QueryOverride{Spice: models.SpiceHot},
			profile:  &models.UserProfile{SpicePreference: models.SpiceMedium},
			want:     nil,
		},
		{
			name:     "unset profile spice defaults to medium",
			override: models.QueryOverride{Spice: models.SpiceVeryHot},
			profile:  &models.UserProfile{},
			want:     nil,
		},
		{
			name:     "dietary restriction not covered",
			override: models.QueryOverride{Dietary: []models.Dietary{models.DietVegan, models.DietVegetarian}},
			profile:  &models.UserProfile{DietaryRestrictions: []models.Dietary{models.DietHalal}},
			want: []models.Conflict{
				{
					Type:           models.ConflictDietary,
					StoredValue:    "halal",
					RequestedValue: "vegan, vegetarian",
					Explanation:    "You're halal, but you're looking for items that may not match this restriction.",
				},
			},
		},
		{
			name:     "dietary restriction covered",
			override: models.QueryOverride{Dietary: []models.Dietary{models.DietVegetarian}},
			profile:  &models.UserProfile{DietaryRestrictions: []models.Dietary{models.DietVegetarian}},
			want:     nil,
		},
		{
			name:     "one conflict per uncovered restriction",
			override: models.QueryOverride{Dietary: []models.Dietary{models.DietGlutenFree}},
			profile:  &models.UserProfile{DietaryRestrictions: []models.Dietary{models.DietVegetarian, models.DietHalal}},
			want: []models.Conflict{
				{
					Type:           models.ConflictDietary,
					StoredValue:    "vegetarian",
					RequestedValue: "gluten-free",
					Explanation:    "You're vegetarian, but you're looking for items that may not match this restriction.",
				},
				{
					Type:           models.ConflictDietary,
					StoredValue:    "halal",
					RequestedValue: "gluten-free",
					Explanation:    "You're halal, but you're looking for items that may not match this restriction.",
				},
			},
		},
		{
			name:     "no dietary override never conflicts",
			override: models.QueryOverride{Spice: models.SpiceMild},
			profile: &models.UserProfile{
				SpicePreference:     models.SpiceMedium,
				DietaryRestrictions: []models.Dietary{models.DietVegetarian},
			},
			want: nil,
		},
		{
			name:     "cuisine disjoint from favorites",
			override: models.QueryOverride{Cuisines: []string{"Chinese"}},
			profile:  &models.UserProfile{FavoriteCuisines: []string{"Pakistani", "BBQ"}},
			want: []models.Conflict{
				{
					Type:           models.ConflictCuisine,
					StoredValue:    "Pakistani, BBQ",
					RequestedValue: "Chinese",
					Explanation:    "You usually prefer Pakistani, BBQ, but you're asking for Chinese.",
				},
			},
		},
		{
			name:     "cuisine overlap is case-insensitive",
			override: models.QueryOverride{Cuisines: []string{"chinese"}},
			profile:  &models.UserProfile{FavoriteCuisines: []string{"Chinese"}},
			want:     nil,
		},
		{
			name:     "no favorites no cuisine conflict",
			override: models.QueryOverride{Cuisines: []string{"Thai"}},
			profile:  &models.UserProfile{},
			want:     nil,
		},
		{
			name: "multiple conflict types reported together",
			override: models.QueryOverride{
				Spice:   models.SpiceVeryHot,
				Dietary: []models.Dietary{models.DietHalal},
			},
			profile: &models.UserProfile{
				SpicePreference:     models.SpiceMild,
				DietaryRestrictions: []models.Dietary{models.DietVegetarian},
				FavoriteCuisines:    []string{"Pakistani"},
			},
			want: []models.Conflict{
				{
					Type:           models.ConflictSpice,
					StoredValue:    "mild",
					RequestedValue: "very_hot",
					Explanation:    "You usually prefer mild food, but you're asking for very_hot.",
				},
				{
					Type:           models.ConflictDietary,
					StoredValue:    "vegetarian",
					RequestedValue: "halal",
					Explanation:    "You're vegetarian, but you're looking for items that may not match this restriction.",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := in.DetectConflicts(tt.override, tt.profile)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DetectConflicts() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
