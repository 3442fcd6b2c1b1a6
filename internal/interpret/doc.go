// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package interpret classifies raw chat messages into ordering intents and
// extracts request-scoped preference overrides from them.
//
// Interpretation Pipeline:
//
//	message -> override extraction -> intent classification -> Result
//	              |                        |
//	              v                        v
//	        QueryOverride            precedence chain
//	        (spice/dietary/          GREETING > REORDER > NEW_ITEMS >
//	         cuisine/item type)      SPECIFIC_ITEM_SEARCH > SPECIFIC_CUISINE >
//	                                 FOOD_RECOMMENDATION > ORDER_STATUS >
//	                                 COMPLAINT > GENERAL_QUERY
//
// Classification is keyword-driven over lowercased text: each intent owns a
// family of trigger phrases (English, Roman Urdu, and Urdu script) compiled
// into Aho-Corasick matchers, and the first family that matches wins.
// Precedence matters because real messages are multi-keyword; "I want to
// reorder biryani" carries reorder, search, and cuisine signals at once and
// must land on reorder.
//
// Overrides never mutate the stored profile. They win for the current
// request only, and DetectConflicts reports where they pull against the
// profile so the response can acknowledge the tension. Conflicts are
// advisory: they shape wording, never filtering.
//
// A per-session loop breaker rides on top of classification: once a session
// crosses the configured number of consecutive turns without the user
// selecting a recommendation, the Result flags the turn for a neutral
// de-escalation response instead of another recommendation round.
package interpret
