// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/palate/config.yaml",
	"/etc/palate/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                   "/data/palate.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
			SeedDemoData:           false,
		},
		NATS: NATSConfig{
			Enabled:             true,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamName:          "PALATE",
			StreamRetentionDays: 7,
			SubscribersCount:    4,
			DurableName:         "palate-worker",
			QueueGroup:          "workers",
			AckWait:             30 * time.Second,
			MaxDeliver:          5,
			CloseTimeout:        30 * time.Second,
		},
		Session: SessionConfig{
			// Persistent by default so conversations survive restarts.
			Backend:         "badger",
			Path:            "/data/sessions",
			TTL:             30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Recommend: RecommendConfig{
			MaxRank:            8,
			MinViableRank:      2,
			Iterations:         15,
			Regularization:     0.1,
			Alpha:              40.0,
			NumWorkers:         0, // 0 = trainer default of 4 workers
			ContentBlendWeight: 0.1,
			DefaultLimit:       5,
			ReorderLimit:       3,
			CacheTTL:           5 * time.Minute,
			SnapshotDir:        "/data/models",
			SnapshotOnTrain:    true,
		},
		Interpret: InterpretConfig{
			LoopBreakerThreshold: 5,
			ExtraDishTokens:      []string{},
		},
		Render: RenderConfig{
			Timeout:            5 * time.Second,
			BreakerMaxRequests: 3,
			BreakerInterval:    60 * time.Second,
			BreakerTimeout:     30 * time.Second,
			BreakerMaxFailures: 5,
		},
		Scheduler: SchedulerConfig{
			TrainOnStartup:     true,
			RetrainInterval:    24 * time.Hour,
			TrainTimeout:       30 * time.Minute,
			RebuildMinInterval: time.Minute,
			RebuildBurst:       1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults. The loaded configuration is
// validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// DUCKDB_PATH -> database.path
	// SESSION_TTL -> session.ttl
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"interpret.extra_dish_tokens",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - NATS_EMBEDDED -> nats.embedded_server
//   - SESSION_STORE -> session.backend
//   - RECOMMEND_MAX_RANK -> recommend.max_rank
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database mappings
		"duckdb_path":           "database.path",
		"duckdb_max_memory":     "database.max_memory",
		"duckdb_threads":        "database.threads",
		"duckdb_preserve_order": "database.preserve_insertion_order",
		"seed_demo_data":        "database.seed_demo_data",

		// NATS mappings
		"nats_enabled":        "nats.enabled",
		"nats_url":            "nats.url",
		"nats_embedded":       "nats.embedded_server",
		"nats_store_dir":      "nats.store_dir",
		"nats_max_memory":     "nats.max_memory",
		"nats_max_store":      "nats.max_store",
		"nats_stream_name":    "nats.stream_name",
		"nats_retention_days": "nats.stream_retention_days",
		"nats_subscribers":    "nats.subscribers_count",
		"nats_durable_name":   "nats.durable_name",
		"nats_queue_group":    "nats.queue_group",
		"nats_ack_wait":       "nats.ack_wait",
		"nats_max_deliver":    "nats.max_deliver",
		"nats_close_timeout":  "nats.close_timeout",

		// Session store mappings
		"session_store":            "session.backend",
		"session_store_path":       "session.path",
		"session_ttl":              "session.ttl",
		"session_cleanup_interval": "session.cleanup_interval",

		// Recommendation engine mappings
		"recommend_max_rank":          "recommend.max_rank",
		"recommend_min_viable_rank":   "recommend.min_viable_rank",
		"recommend_iterations":        "recommend.iterations",
		"recommend_regularization":    "recommend.regularization",
		"recommend_alpha":             "recommend.alpha",
		"recommend_workers":           "recommend.num_workers",
		"recommend_content_blend":     "recommend.content_blend_weight",
		"recommend_default_limit":     "recommend.default_limit",
		"recommend_reorder_limit":     "recommend.reorder_limit",
		"recommend_cache_ttl":         "recommend.cache_ttl",
		"recommend_snapshot_dir":      "recommend.snapshot_dir",
		"recommend_snapshot_on_train": "recommend.snapshot_on_train",

		// Interpreter mappings
		"interpret_loop_breaker":      "interpret.loop_breaker_threshold",
		"interpret_extra_dish_tokens": "interpret.extra_dish_tokens",

		// Renderer mappings
		"render_endpoint":             "render.endpoint",
		"render_timeout":              "render.timeout",
		"render_breaker_max_requests": "render.breaker_max_requests",
		"render_breaker_interval":     "render.breaker_interval",
		"render_breaker_timeout":      "render.breaker_timeout",
		"render_breaker_max_failures": "render.breaker_max_failures",

		// Scheduler mappings
		"train_on_startup":     "scheduler.train_on_startup",
		"retrain_interval":     "scheduler.retrain_interval",
		"train_timeout":        "scheduler.train_timeout",
		"rebuild_min_interval": "scheduler.rebuild_min_interval",
		"rebuild_burst":        "scheduler.rebuild_burst",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
