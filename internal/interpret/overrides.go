// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

import (
	"strings"

	"github.com/tomtom215/palate/internal/models"
)

// ExtractOverrides pulls request-scoped preference overrides out of one
// message. Spice resolves to the strongest matching tier and is
// single-valued; dietary restrictions are collected across all matching
// families; item type takes the first matching family.
//
// Cuisine promotion is gated: cuisine terms include dish names, which
// routinely co-occur with spice and dietary qualifiers ("mild veg
// biryani"), so a cuisine override is promoted only from an otherwise
// unqualified message. Qualified messages keep the profile's favorite
// cuisines in play.
func (in *Interpreter) ExtractOverrides(message string) models.QueryOverride {
	return in.extractOverrides(strings.ToLower(strings.TrimSpace(message)))
}

func (in *Interpreter) extractOverrides(lower string) models.QueryOverride {
	var o models.QueryOverride

	for _, tier := range in.spice {
		if tier.matcher.Contains(lower) {
			o.Spice = tier.level
			break
		}
	}

	for _, fam := range in.dietary {
		if fam.matcher.Contains(lower) {
			o.Dietary = append(o.Dietary, fam.diet)
		}
	}

	if !o.HasSpice() && !o.HasDietary() {
		o.Cuisines = matchCuisines(in.cuisines, lower)
	}

	for _, fam := range in.itemTypes {
		if fam.matcher.Contains(lower) {
			o.ItemType = fam.itemType
			break
		}
	}

	return o
}
