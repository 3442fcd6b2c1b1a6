// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package cache provides the small in-memory structures shared by the
// event pipeline. The only resident today is ExpiringSet, the bounded
// seen-key set the consumer uses to drop re-delivered events.
package cache
