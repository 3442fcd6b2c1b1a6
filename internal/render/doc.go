// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package render turns one interpreted chat turn into user-facing prose.
//
// The chat pipeline computes everything a reply depends on before any
// text exists: the classified intent, the effective constraints the
// recommendation lists were filtered under, advisory preference
// conflicts, and the lists themselves. Renderers receive that bundle as
// an Input and only phrase it:
//
//	interpret.Result ──┐
//	conflicts          ├──> Input ──> Renderer ──> prose
//	recommend.Response ┘
//
// Two renderers ship in-tree. TemplateRenderer composes deterministic
// text from fixed phrases and is the default; it needs no network and
// is what tests assert against. HTTPRenderer posts the Input to a
// remote text-generation collaborator and expects prose back.
//
// FallbackRenderer chains the two behind a circuit breaker: remote
// failures, timeouts, and open-breaker rejections all degrade to the
// template renderer, so rendering never fails a chat request outright.
package render
