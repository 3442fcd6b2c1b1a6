// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"sort"
	"strings"

	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/store"
)

// searchLimit caps item-search results independently of the
// recommendation limit.
const searchLimit = 5

// searchCatalog finds available items whose names match the free-text
// query, case-insensitively and in either direction, so "chicken
// biryani deluxe" still finds "Chicken Biryani". Results rank by
// popularity with a name tie-break.
func searchCatalog(ctx context.Context, catalog store.Catalog, query string) ([]recommend.RecommendedItem, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	items, err := catalog.FindAvailableItems(ctx, store.ItemFilter{})
	if err != nil {
		return nil, err
	}

	var found []recommend.RecommendedItem
	for _, item := range items {
		name := strings.ToLower(item.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, q) || strings.Contains(q, name) {
			found = append(found, recommend.RecommendedItem{
				Item:     item,
				Score:    item.PopularityScore,
				ScoredBy: recommend.ScoredByContent,
			})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Score != found[j].Score {
			return found[i].Score > found[j].Score
		}
		return found[i].Item.Name < found[j].Item.Name
	})

	if len(found) > searchLimit {
		found = found[:searchLimit]
	}
	return found, nil
}
