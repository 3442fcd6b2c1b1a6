// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package session stores per-conversation state across chat turns.
//
// The interpreter is state-free by design; everything a conversation
// needs to remember between messages lives here: the last classified
// intent, the consecutive-turn counter behind the loop breaker, whether
// the user is looking at an unanswered recommendation list, and which
// items that list held.
//
// Two Store backends ship: an in-memory map for tests and single-node
// development, and a BadgerDB store that survives restarts. Both expire
// state after a configured idle TTL; a CleanupService sweeps expired
// entries on an interval and runs under the supervision tree.
//
// The Manager owns turn bookkeeping: it counts each inbound message
// before interpretation, applies the interpreter's result afterwards,
// and resets the loop counter when the user finally selects an item.
package session
