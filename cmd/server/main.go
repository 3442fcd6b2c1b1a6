// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package main is the entry point for the Palate server.
//
// Palate is a conversational recommendation core for food-ordering
// services. It interprets free-text requests (intent, spice/dietary/
// cuisine overrides, conflicts against the stored taste profile) and
// answers them from a hybrid engine: latent-factor collaborative
// filtering over the order history with a content-based fallback,
// under hard dietary and dislike filters.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Stores: DuckDB-backed catalog, interaction log, ratings, and
//     profiles
//  3. Recommendation engine: latent model + content scorer, with
//     snapshot restore from disk when available
//  4. Interpreter, session manager, and renderer for the chat pipeline
//  5. Event transport: NATS JetStream (embedded or external) carrying
//     order, rating, chat, and admin-rebuild subjects
//  6. Supervisor tree: session cleanup, event consumer, admin
//     responder, and the training scheduler under suture supervision
//
// There is no HTTP surface in this binary; ingestion and chat run over
// the event bus, and the web layer is an external collaborator.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the
// supervisor tree drains its services, the transport closes, and the
// stores are checkpointed.
//
// # Example Usage
//
// Standalone with an embedded NATS server and demo data:
//
//	export DUCKDB_PATH=/data/palate.duckdb
//	export SEED_DEMO_DATA=true
//	./palate
//
// Against an external NATS cluster with a remote renderer:
//
//	export NATS_EMBEDDED=false
//	export NATS_URL=nats://nats:4222
//	export RENDER_ENDPOINT=http://renderer:8080/render
//	./palate
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/logging"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/recommend/storage"
	"github.com/tomtom215/palate/internal/render"
	"github.com/tomtom215/palate/internal/scheduler"
	"github.com/tomtom215/palate/internal/session"
	"github.com/tomtom215/palate/internal/store/duckdb"
	"github.com/tomtom215/palate/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("nats_embedded", cfg.NATS.EmbeddedServer).
		Str("session_backend", cfg.Session.Backend).
		Msg("Starting Palate")

	// Stores
	db, err := duckdb.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedDemoData {
		logging.Info().Msg("Demo data seeding enabled (SEED_DEMO_DATA=true)")
		if err := db.SeedDemoData(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	// Recommendation engine with optional snapshot persistence
	engine, err := initEngine(cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	// Chat pipeline collaborators
	interpreter := interpret.New(&cfg.Interpret, logging.Logger())

	sessionStore, err := session.NewStore(&cfg.Session)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	sessions := session.NewManager(sessionStore, cfg.Session.TTL, logging.Logger())

	renderer := initRenderer(cfg)

	// Supervisor tree; sutureslog speaks slog, so bridge zerolog over.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree.AddDataService(session.NewCleanupService(sessionStore, cfg.Session.CleanupInterval, logging.Logger()))

	trainer := scheduler.NewTrainingService(engine, cfg.Scheduler, logging.Logger())
	trainer.EvalK = cfg.Recommend.DefaultLimit
	tree.AddWorkerService(trainer)

	transport, err := initEvents(ctx, cfg, eventDeps{
		db:       db,
		engine:   engine,
		interp:   interpreter,
		sessions: sessions,
		renderer: renderer,
	}, tree)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event transport")
	}
	if transport != nil {
		defer func() {
			if err := transport.Close(context.Background()); err != nil {
				logging.Error().Err(err).Msg("Error closing event transport")
			}
		}()
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Palate stopped gracefully")
}

// initEngine builds the recommendation engine and, when a snapshot
// directory is configured, wires snapshot persistence and restores the
// latest saved model so the first requests after a restart are not
// forced onto the content path.
func initEngine(cfg *config.Config, db *duckdb.DB) (*recommend.Engine, error) {
	engine, err := recommend.NewEngine(&cfg.Recommend, logging.Logger(), recommend.Stores{
		Catalog:  db,
		Log:      db,
		Ratings:  db,
		Profiles: db,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Recommend.SnapshotDir != "" {
		snapshots, err := storage.NewStore(cfg.Recommend.SnapshotDir)
		if err != nil {
			// Persistence is an optimization; the engine retrains from
			// the log without it.
			logging.Warn().Err(err).Str("dir", cfg.Recommend.SnapshotDir).
				Msg("Model snapshot store unavailable, continuing without persistence")
			return engine, nil
		}
		engine.SetSnapshotStore(snapshots)
		if err := engine.RestoreSnapshot(); err != nil {
			logging.Warn().Err(err).Msg("Model snapshot restore failed, will retrain from log")
		}
	}

	return engine, nil
}

// initRenderer selects the renderer: template-only by default, or a
// breaker-guarded remote renderer when an endpoint is configured.
func initRenderer(cfg *config.Config) render.Renderer {
	if cfg.Render.Endpoint == "" {
		logging.Info().Msg("No render endpoint configured, using template renderer")
		return render.NewTemplateRenderer()
	}
	logging.Info().Str("endpoint", cfg.Render.Endpoint).Msg("Remote renderer configured")
	remote := render.NewHTTPRenderer(cfg.Render.Endpoint)
	return render.NewFallbackRenderer(remote, &cfg.Render, logging.Logger())
}
