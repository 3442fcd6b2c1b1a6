// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package algorithms implements the two scoring paths of the hybrid engine.
//
// # Scoring Paths
//
// Latent factor model (LatentFactors):
//   - Implicit-feedback matrix factorization over the order log, trained
//     with alternating least squares. Order quantities become confidence
//     weights; the factor rank adapts to the data (see LatentConfig).
//   - Only covers users and items present in the training log. Membership
//     must be checked before prediction: scores outside the index are
//     undefined, not zero.
//
// Content scorer (ContentScorer):
//   - Rule-based additive scoring from catalog attributes, the user's
//     effective constraints, and a time-decayed taste history. Works for
//     any user, including cold starts with no history at all.
//
// The engine ranks through the latent path when it can and fills the
// remainder through the content path. Dietary admissibility is decided
// before either path runs; neither path filters.
//
// # Thread Safety
//
// LatentFactors guards training with an exclusive lock and prediction
// with a shared lock. ContentScorer is stateless and safe for concurrent
// use.
package algorithms
