// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateSession(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateInterpret(); err != nil {
		return err
	}

	if err := c.validateRender(); err != nil {
		return err
	}

	if err := c.validateScheduler(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0 (0 = all cores)")
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory      = 64 * 1024 * 1024  // 64MB
	natsMinStore       = 100 * 1024 * 1024 // 100MB
	natsMinRetention   = 1
	natsMaxRetention   = 365
	natsMaxSubscribers = 32
)

// validateNATS validates NATS configuration (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if !c.NATS.EmbeddedServer {
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}

	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}

	return c.validateNATSLimits()
}

// validateNATSURL checks the scheme and host of a NATS server URL
func validateNATSURL(url string) error {
	if url == "" {
		return fmt.Errorf("URL must not be empty")
	}
	if !strings.HasPrefix(url, "nats://") && !strings.HasPrefix(url, "tls://") {
		return fmt.Errorf("URL must use nats:// or tls:// scheme, got %q", url)
	}
	host := strings.TrimPrefix(strings.TrimPrefix(url, "nats://"), "tls://")
	if host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// validateNATSLimits validates JetStream storage and consumer limits
func (c *Config) validateNATSLimits() error {
	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least %d bytes (64MB)", natsMinMemory)
	}
	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least %d bytes (100MB)", natsMinStore)
	}
	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between %d and %d", natsMinRetention, natsMaxRetention)
	}
	if c.NATS.SubscribersCount < 1 || c.NATS.SubscribersCount > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and %d", natsMaxSubscribers)
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME must not be empty")
	}
	if c.NATS.AckWait < time.Second {
		return fmt.Errorf("NATS_ACK_WAIT must be at least 1s")
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be >= 1")
	}
	return nil
}

// validateSession validates session store configuration
func (c *Config) validateSession() error {
	switch c.Session.Backend {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of: memory, badger (got %q)", c.Session.Backend)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive")
	}
	return nil
}

// validateRecommend validates recommendation engine configuration
func (c *Config) validateRecommend() error {
	if c.Recommend.MinViableRank < 1 {
		return fmt.Errorf("RECOMMEND_MIN_VIABLE_RANK must be >= 1")
	}
	if c.Recommend.MaxRank < c.Recommend.MinViableRank {
		return fmt.Errorf("RECOMMEND_MAX_RANK (%d) must be >= RECOMMEND_MIN_VIABLE_RANK (%d)",
			c.Recommend.MaxRank, c.Recommend.MinViableRank)
	}
	if c.Recommend.Iterations < 1 {
		return fmt.Errorf("RECOMMEND_ITERATIONS must be >= 1")
	}
	if c.Recommend.Regularization <= 0 {
		return fmt.Errorf("RECOMMEND_REGULARIZATION must be positive")
	}
	if c.Recommend.Alpha <= 0 {
		return fmt.Errorf("RECOMMEND_ALPHA must be positive")
	}
	if c.Recommend.NumWorkers < 0 {
		return fmt.Errorf("RECOMMEND_WORKERS must be >= 0 (0 = all cores)")
	}
	if c.Recommend.ContentBlendWeight < 0 || c.Recommend.ContentBlendWeight > 1 {
		return fmt.Errorf("RECOMMEND_CONTENT_BLEND must be between 0 and 1")
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_LIMIT must be >= 1")
	}
	if c.Recommend.ReorderLimit < 1 {
		return fmt.Errorf("RECOMMEND_REORDER_LIMIT must be >= 1")
	}
	if c.Recommend.CacheTTL < 0 {
		return fmt.Errorf("RECOMMEND_CACHE_TTL must be >= 0 (0 disables caching)")
	}
	if c.Recommend.SnapshotOnTrain && c.Recommend.SnapshotDir == "" {
		return fmt.Errorf("RECOMMEND_SNAPSHOT_DIR is required when RECOMMEND_SNAPSHOT_ON_TRAIN=true")
	}
	return nil
}

// validateInterpret validates interpreter configuration
func (c *Config) validateInterpret() error {
	if c.Interpret.LoopBreakerThreshold < 1 {
		return fmt.Errorf("INTERPRET_LOOP_BREAKER must be >= 1")
	}
	return nil
}

// validateRender validates renderer configuration
func (c *Config) validateRender() error {
	if c.Render.Endpoint != "" &&
		!strings.HasPrefix(c.Render.Endpoint, "http://") &&
		!strings.HasPrefix(c.Render.Endpoint, "https://") {
		return fmt.Errorf("RENDER_ENDPOINT must use http:// or https:// scheme, got %q", c.Render.Endpoint)
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT must be positive")
	}
	if c.Render.BreakerMaxFailures < 1 {
		return fmt.Errorf("RENDER_BREAKER_MAX_FAILURES must be >= 1")
	}
	return nil
}

// validateScheduler validates training scheduler configuration
func (c *Config) validateScheduler() error {
	if c.Scheduler.RetrainInterval < time.Minute {
		return fmt.Errorf("RETRAIN_INTERVAL must be at least 1m")
	}
	if c.Scheduler.TrainTimeout <= 0 {
		return fmt.Errorf("TRAIN_TIMEOUT must be positive")
	}
	if c.Scheduler.RebuildMinInterval < 0 {
		return fmt.Errorf("REBUILD_MIN_INTERVAL must be >= 0")
	}
	if c.Scheduler.RebuildBurst < 1 {
		return fmt.Errorf("REBUILD_BURST must be >= 1")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be one of: json, console (got %q)", c.Logging.Format)
	}
	return nil
}
