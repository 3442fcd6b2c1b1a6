// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

// QueryOverride carries preference overrides extracted from a single
// message. Overrides are request-scoped: they win over the stored profile
// for this request and are never written back to it.
//
// Spice is single-valued; a message naming several levels resolves to the
// strongest tier at extraction time. Dietary overrides are cumulative with
// the profile's restrictions. Cuisines, when present, replace the
// profile's favorite set wholesale for this request.
type QueryOverride struct {
	Spice    SpiceLevel `json:"spice_override,omitempty"`
	Dietary  []Dietary  `json:"dietary_overrides,omitempty"`
	Cuisines []string   `json:"cuisine_overrides,omitempty"`
	ItemType ItemType   `json:"item_type,omitempty"`
}

// HasSpice reports whether a spice override is present.
func (q *QueryOverride) HasSpice() bool {
	return q.Spice.Valid()
}

// HasDietary reports whether any dietary override is present.
func (q *QueryOverride) HasDietary() bool {
	return len(q.Dietary) > 0
}

// HasCuisine reports whether a cuisine override is present.
func (q *QueryOverride) HasCuisine() bool {
	return len(q.Cuisines) > 0
}

// HasItemType reports whether an item-type override is present.
func (q *QueryOverride) HasItemType() bool {
	return q.ItemType.Valid()
}

// Empty reports whether the override carries no signal at all.
func (q *QueryOverride) Empty() bool {
	return !q.HasSpice() && !q.HasDietary() && !q.HasCuisine() && !q.HasItemType()
}

// ConflictType classifies a preference conflict.
type ConflictType string

const (
	ConflictSpice   ConflictType = "spice"
	ConflictDietary ConflictType = "dietary"
	ConflictCuisine ConflictType = "cuisine"
)

// Conflict records a tension between a stored preference and what the
// current message asks for. Conflicts are advisory: they shape what is
// said back to the user, never what is computed.
type Conflict struct {
	Type           ConflictType `json:"type"`
	StoredValue    string       `json:"stored_value"`
	RequestedValue string       `json:"requested_value"`
	Explanation    string       `json:"explanation"`
}
