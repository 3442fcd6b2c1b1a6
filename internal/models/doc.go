// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

/*
Package models defines data structures for the Palate application.

This package contains the domain models shared by every other package: the
catalog entities (MenuItem, Restaurant), the feedback entities (Interaction,
Rating), the stored user preferences (UserProfile), and the enumerations the
recommendation core filters and scores on (SpiceLevel, Dietary, ItemType).
It serves as the single source of truth for data structure definitions.

Key Components:

  - MenuItem: Catalog entry with dietary flags, spice level, tags, and
    popularity/rating signals used by the content scorer
  - Restaurant: Owning restaurant for a menu item (cuisine is denormalized
    onto MenuItem for scoring; the restaurant record stays authoritative)
  - Interaction: A historical order line (user, item, quantity, timestamp);
    implicit-feedback signal for the latent factor model
  - Rating: Explicit 1-5 rating; at most one active rating per (user, item)
  - UserProfile: Favorite cuisines, dietary restrictions, spice preference

Enumerations:

  - SpiceLevel: mild < medium < hot < very_hot, with ordinal helpers used
    for adjacency bonuses and opposite-extreme conflict detection
  - Dietary: vegetarian | vegan | halal | gluten-free
  - ItemType: main | snack | dessert | drink, matched against free-text
    catalog categories

Thread Safety:

All models are plain data structures with no internal synchronization.
They are safe for concurrent reads; ownership of mutation is with the
stores in internal/store.

JSON Marshaling:

All models carry snake_case struct tags with omitempty on optional fields.
Optional tri-state fields (IsHalal) use pointer types so that "unknown" is
distinguishable from "false".
*/
package models
