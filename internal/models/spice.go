// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package models

import "strings"

// SpiceLevel is the ordinal heat scale used across the catalog, user
// profiles, and request overrides. The ordering mild < medium < hot <
// very_hot matters: adjacency earns a partial score bonus and the two
// ends of the scale are treated as conflicting preferences.
type SpiceLevel string

const (
	SpiceMild    SpiceLevel = "mild"
	SpiceMedium  SpiceLevel = "medium"
	SpiceHot     SpiceLevel = "hot"
	SpiceVeryHot SpiceLevel = "very_hot"
)

// DefaultSpiceLevel is assumed for profiles that never set a preference.
const DefaultSpiceLevel = SpiceMedium

// spiceOrdinals maps each level to its position on the scale.
var spiceOrdinals = map[SpiceLevel]int{
	SpiceMild:    0,
	SpiceMedium:  1,
	SpiceHot:     2,
	SpiceVeryHot: 3,
}

// ParseSpiceLevel normalizes a raw string ("Very Hot", "very-hot",
// "very_hot") into a SpiceLevel. The second return value reports whether
// the input named a known level.
func ParseSpiceLevel(s string) (SpiceLevel, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	level := SpiceLevel(normalized)
	if _, ok := spiceOrdinals[level]; ok {
		return level, true
	}
	return "", false
}

// Valid reports whether the level is one of the four known values.
func (s SpiceLevel) Valid() bool {
	_, ok := spiceOrdinals[s]
	return ok
}

// Ordinal returns the level's position on the scale (mild=0 .. very_hot=3),
// or -1 for an unknown level.
func (s SpiceLevel) Ordinal() int {
	if ord, ok := spiceOrdinals[s]; ok {
		return ord
	}
	return -1
}

// Distance returns the absolute ordinal distance between two levels,
// or -1 if either level is unknown.
func (s SpiceLevel) Distance(other SpiceLevel) int {
	a, b := s.Ordinal(), other.Ordinal()
	if a < 0 || b < 0 {
		return -1
	}
	if a > b {
		return a - b
	}
	return b - a
}

// AdjacentTo reports whether the two levels sit one step apart on the
// scale (e.g. mild/medium, hot/very_hot).
func (s SpiceLevel) AdjacentTo(other SpiceLevel) bool {
	return s.Distance(other) == 1
}

// OppositeExtreme reports whether the two levels are on opposite ends of
// the scale: one side mild, the other hot or very_hot. Adjacent or
// medium-involving pairs never qualify, so mild vs medium and medium vs
// very_hot are not extremes.
func (s SpiceLevel) OppositeExtreme(other SpiceLevel) bool {
	if !s.Valid() || !other.Valid() {
		return false
	}
	lo, hi := s, other
	if lo.Ordinal() > hi.Ordinal() {
		lo, hi = hi, lo
	}
	return lo == SpiceMild && (hi == SpiceHot || hi == SpiceVeryHot)
}

// String returns the wire form of the level.
func (s SpiceLevel) String() string {
	return string(s)
}
