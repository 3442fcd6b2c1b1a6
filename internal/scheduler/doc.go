// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package scheduler owns the model training lifecycle.
//
// TrainingService is a suture-supervised loop that rebuilds the latent
// model on startup and on a fixed cadence. Recommendation requests
// never trigger or wait on training; they read whichever snapshot is
// active and fall back to content scoring when none is.
//
// RateLimitedRebuilder wraps the engine for the administrative rebuild
// trigger, capping how often external callers can force a rebuild. The
// scheduled loop bypasses the limiter: its cadence is already bounded
// by configuration.
package scheduler
