// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package recommend orchestrates food recommendations: it merges stored
// profiles with request overrides, filters the catalog down to admissible
// candidates, ranks them through the latent factor model with a content
// top-up (or content alone when no model covers the user), and assembles
// the reorder and new-item lists.
//
// The engine owns the active model snapshot behind an atomic pointer.
// Requests only read it; Rebuild trains a replacement aside and swaps it
// in, so recommendation traffic never observes a half-built model and
// never blocks on training.
//
// Scoring lives in the algorithms subpackage, snapshot persistence in
// the storage subpackage. This package glues them to the store
// collaborators and the interpreted request.
package recommend
