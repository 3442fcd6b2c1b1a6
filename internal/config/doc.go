// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

// Package config provides centralized configuration management for all
// Palate components: the DuckDB catalog store, NATS JetStream event
// transport, conversation session store, recommendation engine,
// interpreter, renderer, training scheduler, and logging.
//
// Configuration is loaded with Koanf v2 in three layers, later layers
// overriding earlier ones:
//
//  1. Defaults: built-in sensible defaults for every setting
//  2. Config file: optional YAML file (config.yaml, config.yml,
//     /etc/palate/config.yaml, or the path in CONFIG_PATH)
//  3. Environment variables: explicit env-to-path mappings; unmapped
//     variables are ignored so the ambient environment cannot pollute
//     the configuration
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("failed to load config:", err)
//	}
//	db, err := duckdb.New(cfg.Database)
//	engine := recommend.NewEngine(cfg.Recommend, ...)
//
// The returned Config is immutable after Load and safe for concurrent
// reads. Validation runs as part of Load and reports the offending
// environment variable name in the error message.
package config
