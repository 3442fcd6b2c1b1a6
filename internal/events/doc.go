// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package events carries orders, ratings, and chat turns over NATS
// JetStream.
//
// The bus is the service's only ingestion path. Order and rating events
// land in the stores that feed the recommendation engine; chat requests
// run the full interpret/recommend/render pipeline and publish their
// reply on a per-session response subject. All subjects live under the
// "palate." root and are captured by a single JetStream stream, so
// every event survives a restart and slow consumers replay instead of
// dropping.
//
// Topology:
//
//	palate.order.placed        -> order ingestion (durable queue group)
//	palate.rating.submitted    -> rating ingestion (durable queue group)
//	palate.chat.request        -> chat pipeline   (durable queue group)
//	palate.chat.response.<sid> <- chat replies, one subject per session
//	palate.admin.rebuild       <- request-reply model rebuild trigger
//	palate.dlq                 <- events that exhausted their retries
//
// The server can run embedded (single-binary deployments) or the
// Transport can dial an external cluster; both paths go through
// Connect. Consumers are idempotent: redeliveries are dropped by event
// ID after a successful handle, and handler errors are retried with
// backoff before the message is parked on the dead letter subject.
package events
