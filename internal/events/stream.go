// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/palate/internal/config"
)

// duplicateWindow is the JetStream server-side dedup horizon keyed on
// the Msg-Id header. Redeliveries older than this are caught by the
// consumer's own seen-set instead.
const duplicateWindow = 2 * time.Minute

// StreamManager owns the lifecycle of the single stream that captures
// every palate.> subject.
type StreamManager struct {
	js   jetstream.JetStream
	name string
	cfg  *config.NATSConfig
}

// NewStreamManager creates a stream manager on an existing connection.
func NewStreamManager(nc *nats.Conn, cfg *config.NATSConfig) (*StreamManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return &StreamManager{
		js:   js,
		name: cfg.StreamName,
		cfg:  cfg,
	}, nil
}

// EnsureStream creates the stream or updates its configuration when it
// already exists, so retention changes apply across restarts.
func (m *StreamManager) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:       m.name,
		Subjects:   []string{SubjectRoot},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     time.Duration(m.cfg.StreamRetentionDays) * 24 * time.Hour,
		Duplicates: duplicateWindow,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := m.js.Stream(ctx, m.name)
	if err == nil {
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream: %w", err)
		}
		return stream, nil
	}

	stream, err := m.js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return stream, nil
}

// StreamInfo returns current stream state for health reporting.
func (m *StreamManager) StreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	stream, err := m.js.Stream(ctx, m.name)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return stream.Info(ctx)
}
