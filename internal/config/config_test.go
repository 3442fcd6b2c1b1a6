// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DUCKDB_PATH",
		},
		{
			name:    "negative database threads",
			mutate:  func(c *Config) { c.Database.Threads = -1 },
			wantErr: "DUCKDB_THREADS",
		},
		{
			name: "external nats with bad scheme",
			mutate: func(c *Config) {
				c.NATS.EmbeddedServer = false
				c.NATS.URL = "http://127.0.0.1:4222"
			},
			wantErr: "NATS_URL",
		},
		{
			name: "external nats with empty url",
			mutate: func(c *Config) {
				c.NATS.EmbeddedServer = false
				c.NATS.URL = ""
			},
			wantErr: "NATS_URL",
		},
		{
			name:    "embedded nats without store dir",
			mutate:  func(c *Config) { c.NATS.StoreDir = "" },
			wantErr: "NATS_STORE_DIR",
		},
		{
			name:    "nats memory below floor",
			mutate:  func(c *Config) { c.NATS.MaxMemory = 1024 },
			wantErr: "NATS_MAX_MEMORY",
		},
		{
			name:    "nats retention too long",
			mutate:  func(c *Config) { c.NATS.StreamRetentionDays = 400 },
			wantErr: "NATS_RETENTION_DAYS",
		},
		{
			name:    "nats zero subscribers",
			mutate:  func(c *Config) { c.NATS.SubscribersCount = 0 },
			wantErr: "NATS_SUBSCRIBERS",
		},
		{
			name:    "nats disabled skips nats validation",
			mutate:  func(c *Config) { c.NATS.Enabled = false; c.NATS.URL = "garbage" },
			wantErr: "",
		},
		{
			name:    "unknown session backend",
			mutate:  func(c *Config) { c.Session.Backend = "redis" },
			wantErr: "SESSION_STORE",
		},
		{
			name:    "badger backend without path",
			mutate:  func(c *Config) { c.Session.Path = "" },
			wantErr: "SESSION_STORE_PATH",
		},
		{
			name:    "memory backend without path is fine",
			mutate:  func(c *Config) { c.Session.Backend = "memory"; c.Session.Path = "" },
			wantErr: "",
		},
		{
			name:    "zero session ttl",
			mutate:  func(c *Config) { c.Session.TTL = 0 },
			wantErr: "SESSION_TTL",
		},
		{
			name:    "max rank below min viable rank",
			mutate:  func(c *Config) { c.Recommend.MaxRank = 1 },
			wantErr: "RECOMMEND_MAX_RANK",
		},
		{
			name:    "zero min viable rank",
			mutate:  func(c *Config) { c.Recommend.MinViableRank = 0 },
			wantErr: "RECOMMEND_MIN_VIABLE_RANK",
		},
		{
			name:    "content blend above one",
			mutate:  func(c *Config) { c.Recommend.ContentBlendWeight = 1.5 },
			wantErr: "RECOMMEND_CONTENT_BLEND",
		},
		{
			name:    "zero default limit",
			mutate:  func(c *Config) { c.Recommend.DefaultLimit = 0 },
			wantErr: "RECOMMEND_DEFAULT_LIMIT",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.Recommend.CacheTTL = -time.Second },
			wantErr: "RECOMMEND_CACHE_TTL",
		},
		{
			name: "snapshot enabled without dir",
			mutate: func(c *Config) {
				c.Recommend.SnapshotOnTrain = true
				c.Recommend.SnapshotDir = ""
			},
			wantErr: "RECOMMEND_SNAPSHOT_DIR",
		},
		{
			name:    "zero loop breaker threshold",
			mutate:  func(c *Config) { c.Interpret.LoopBreakerThreshold = 0 },
			wantErr: "INTERPRET_LOOP_BREAKER",
		},
		{
			name:    "zero render timeout",
			mutate:  func(c *Config) { c.Render.Timeout = 0 },
			wantErr: "RENDER_TIMEOUT",
		},
		{
			name:    "render endpoint without scheme",
			mutate:  func(c *Config) { c.Render.Endpoint = "renderer.internal:9000" },
			wantErr: "RENDER_ENDPOINT",
		},
		{
			name:    "retrain interval below one minute",
			mutate:  func(c *Config) { c.Scheduler.RetrainInterval = 30 * time.Second },
			wantErr: "RETRAIN_INTERVAL",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}
