// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/events"
	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/render"
	"github.com/tomtom215/palate/internal/scheduler"
	"github.com/tomtom215/palate/internal/session"
	"github.com/tomtom215/palate/internal/store/duckdb"
	"github.com/tomtom215/palate/internal/supervisor"
)

// eventDeps bundles the collaborators the event pipeline drives.
type eventDeps struct {
	db       *duckdb.DB
	engine   *recommend.Engine
	interp   *interpret.Interpreter
	sessions *session.Manager
	renderer render.Renderer
}

// initEvents starts the event transport (embedded server when
// configured), registers the consumer and the admin rebuild responder
// on the messaging layer, and returns the transport for shutdown.
// Returns nil when the bus is disabled; the core still serves, it just
// has no ingestion path.
func initEvents(ctx context.Context, cfg *config.Config, deps eventDeps, tree *supervisor.Tree) (*events.Transport, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Event transport disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	wmLogger := watermill.NewStdLogger(cfg.Logging.Level == "debug" || cfg.Logging.Level == "trace", false)

	transport, err := events.NewTransport(ctx, &cfg.NATS, wmLogger, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	consumer, err := events.NewConsumer(events.ConsumerDeps{
		Store:      deps.db,
		Sessions:   deps.sessions,
		Interp:     deps.interp,
		Engine:     deps.engine,
		Renderer:   deps.renderer,
		Publisher:  transport.Publisher,
		Subscriber: transport.Subscriber,
		DeadLetter: transport.Publisher.WatermillPublisher(),
	}, &cfg.NATS, wmLogger, logging.Logger())
	if err != nil {
		if cerr := transport.Close(ctx); cerr != nil {
			logging.Error().Err(cerr).Msg("Error closing event transport")
		}
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	tree.AddMessagingService(consumer)

	// Administrative rebuilds answer on the bus, rate limited so a
	// misbehaving caller cannot keep the engine in permanent retrain.
	rebuilder := scheduler.NewRateLimitedRebuilder(deps.engine,
		cfg.Scheduler.RebuildMinInterval, cfg.Scheduler.RebuildBurst, logging.Logger())
	tree.AddMessagingService(events.NewAdminService(transport.Conn(), rebuilder,
		cfg.Scheduler.TrainTimeout, logging.Logger()))

	return transport, nil
}
