// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file, and environment variables.
//
// Thread safety: Config is immutable after Load() and safe for concurrent
// read access from multiple goroutines.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	NATS      NATSConfig      `koanf:"nats"`
	Session   SessionConfig   `koanf:"session"`
	Recommend RecommendConfig `koanf:"recommend"`
	Interpret InterpretConfig `koanf:"interpret"`
	Render    RenderConfig    `koanf:"render"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings for the catalog, interaction,
// rating, and profile stores.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/palate.duckdb)
//   - DUCKDB_MAX_MEMORY: Memory limit, e.g. "2GB"
//   - DUCKDB_THREADS: Worker threads (0 = runtime.NumCPU())
//   - SEED_DEMO_DATA: Seed a demo menu on first start (default: false)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SeedDemoData           bool   `koanf:"seed_demo_data"`
}

// NATSConfig holds NATS JetStream settings for event-driven ingestion of
// order and rating events and for the chat request/response subjects.
// When EmbeddedServer is true a JetStream-enabled server is started
// in-process, listening on the host and port of URL so external chat
// clients can reach it; otherwise URL names the server to dial.
//
// Environment Variables:
//   - NATS_ENABLED: Enable event transport (default: true)
//   - NATS_URL: Server address (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory
//   - NATS_MAX_MEMORY / NATS_MAX_STORE: JetStream storage limits in bytes
//   - NATS_RETENTION_DAYS: Stream retention window (default: 7)
//   - NATS_SUBSCRIBERS: Concurrent consumers per subscription (default: 4)
type NATSConfig struct {
	Enabled             bool          `koanf:"enabled"`
	URL                 string        `koanf:"url"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	StoreDir            string        `koanf:"store_dir"`
	MaxMemory           int64         `koanf:"max_memory"`
	MaxStore            int64         `koanf:"max_store"`
	StreamName          string        `koanf:"stream_name"`
	StreamRetentionDays int           `koanf:"stream_retention_days"`
	SubscribersCount    int           `koanf:"subscribers_count"`
	DurableName         string        `koanf:"durable_name"`
	QueueGroup          string        `koanf:"queue_group"`
	AckWait             time.Duration `koanf:"ack_wait"`
	MaxDeliver          int           `koanf:"max_deliver"`
	CloseTimeout        time.Duration `koanf:"close_timeout"`
}

// SessionConfig holds conversation session store settings. Session state
// (turn counts, last intent, last recommended items) lives outside the
// interpreter and survives restarts when the badger backend is selected.
//
// Environment Variables:
//   - SESSION_STORE: "badger" or "memory" (default: badger)
//   - SESSION_STORE_PATH: BadgerDB directory (default: /data/sessions)
//   - SESSION_TTL: Idle expiry (default: 30m)
//   - SESSION_CLEANUP_INTERVAL: Expired-session sweep cadence (default: 5m)
type SessionConfig struct {
	Backend         string        `koanf:"backend"`
	Path            string        `koanf:"path"`
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// RecommendConfig holds recommendation engine settings covering the latent
// factor model, the content scorer blend, result limits, the response
// cache, and model snapshot persistence.
//
// MaxRank caps the factorization rank; the effective rank also respects
// the interaction matrix dimensions and never falls below MinViableRank
// (training is skipped entirely when it would).
//
// Environment Variables:
//   - RECOMMEND_MAX_RANK: Rank cap for the latent model (default: 8)
//   - RECOMMEND_MIN_VIABLE_RANK: Smallest trainable rank (default: 2)
//   - RECOMMEND_ITERATIONS / RECOMMEND_REGULARIZATION / RECOMMEND_ALPHA:
//     Training hyperparameters
//   - RECOMMEND_WORKERS: Training parallelism (0 = trainer default of 4)
//   - RECOMMEND_CONTENT_BLEND: Content score weight mixed into latent
//     scores, in [0, 1] (default: 0.1)
//   - RECOMMEND_DEFAULT_LIMIT: Recommendations per response (default: 5)
//   - RECOMMEND_REORDER_LIMIT: Reorder suggestions per response (default: 3)
//   - RECOMMEND_CACHE_TTL: Response cache lifetime, 0 disables (default: 5m)
//   - RECOMMEND_SNAPSHOT_DIR: Model snapshot directory (default: /data/models)
type RecommendConfig struct {
	MaxRank            int           `koanf:"max_rank"`
	MinViableRank      int           `koanf:"min_viable_rank"`
	Iterations         int           `koanf:"iterations"`
	Regularization     float64       `koanf:"regularization"`
	Alpha              float64       `koanf:"alpha"`
	NumWorkers         int           `koanf:"num_workers"`
	ContentBlendWeight float64       `koanf:"content_blend_weight"`
	DefaultLimit       int           `koanf:"default_limit"`
	ReorderLimit       int           `koanf:"reorder_limit"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
	SnapshotDir        string        `koanf:"snapshot_dir"`
	SnapshotOnTrain    bool          `koanf:"snapshot_on_train"`
}

// InterpretConfig holds message interpreter settings.
//
// ExtraDishTokens extends the built-in dish vocabulary used by item-search
// detection, for menu slang the catalog does not carry.
//
// Environment Variables:
//   - INTERPRET_LOOP_BREAKER: Consecutive non-selecting turns before the
//     de-escalation response (default: 5)
//   - INTERPRET_EXTRA_DISH_TOKENS: Comma-separated additional dish tokens
type InterpretConfig struct {
	LoopBreakerThreshold int      `koanf:"loop_breaker_threshold"`
	ExtraDishTokens      []string `koanf:"extra_dish_tokens"`
}

// RenderConfig holds text renderer settings. Remote renderers sit behind a
// circuit breaker; when the breaker opens, rendering degrades to the
// built-in template renderer.
//
// Environment Variables:
//   - RENDER_ENDPOINT: Remote renderer URL; empty serves every response
//     from the built-in template renderer (default: empty)
//   - RENDER_TIMEOUT: Per-call renderer deadline (default: 5s)
//   - RENDER_BREAKER_MAX_FAILURES: Consecutive failures that open the
//     breaker (default: 5)
//   - RENDER_BREAKER_TIMEOUT: Open-state duration before a probe (default: 30s)
type RenderConfig struct {
	Endpoint           string        `koanf:"endpoint"`
	Timeout            time.Duration `koanf:"timeout"`
	BreakerMaxRequests uint32        `koanf:"breaker_max_requests"`
	BreakerInterval    time.Duration `koanf:"breaker_interval"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
}

// SchedulerConfig holds training scheduler settings. Administrative
// rebuild requests are rate limited to one per RebuildMinInterval with a
// burst allowance of RebuildBurst.
//
// Environment Variables:
//   - TRAIN_ON_STARTUP: Train a model during startup (default: true)
//   - RETRAIN_INTERVAL: Scheduled retraining cadence (default: 24h)
//   - TRAIN_TIMEOUT: Per-run training deadline (default: 30m)
//   - REBUILD_MIN_INTERVAL: Minimum spacing of admin rebuilds (default: 1m)
type SchedulerConfig struct {
	TrainOnStartup     bool          `koanf:"train_on_startup"`
	RetrainInterval    time.Duration `koanf:"retrain_interval"`
	TrainTimeout       time.Duration `koanf:"train_timeout"`
	RebuildMinInterval time.Duration `koanf:"rebuild_min_interval"`
	RebuildBurst       int           `koanf:"rebuild_burst"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
