// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package supervisor builds the suture v4 supervision tree that keeps
// Palate's long-running services alive.
//
// The tree has three layers under one root:
//
//   - data: store hygiene loops (session cleanup)
//   - messaging: the event consumer and the admin rebuild responder
//   - workers: the training scheduler
//
// Layers isolate failures: a crash-looping consumer backs off inside
// the messaging layer without restarting the training scheduler, and
// vice versa. Supervisor events are logged through sutureslog over the
// zerolog-backed slog bridge in internal/logging.
//
// Services implement suture.Service: Serve(ctx) runs until the context
// is canceled and returns ctx.Err() on clean shutdown; any other error
// triggers a supervised restart with the configured backoff.
package supervisor
