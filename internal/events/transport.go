// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/config"
)

// Transport owns the bus plumbing: the optional embedded server, the
// shared connection used for stream management and admin request-reply,
// the publisher, and the subscriber. Construction provisions the
// stream, so publishers and subscribers never race its creation.
type Transport struct {
	embedded   *EmbeddedServer
	nc         *natsgo.Conn
	streams    *StreamManager
	Publisher  *Publisher
	Subscriber *Subscriber
	clientURL  string
	logger     zerolog.Logger
}

// NewTransport starts the embedded server when configured, or dials the
// external one, then provisions the stream and connects the publisher
// and subscriber.
func NewTransport(ctx context.Context, cfg *config.NATSConfig, wmLogger watermill.LoggerAdapter, logger zerolog.Logger) (*Transport, error) {
	t := &Transport{
		logger: logger.With().Str("component", "transport").Logger(),
	}

	url := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded server: %w", err)
		}
		t.embedded = srv
		url = srv.ClientURL()
	}
	t.clientURL = url

	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(reconnectWait),
	)
	if err != nil {
		t.teardown(ctx)
		return nil, fmt.Errorf("connect NATS: %w", err)
	}
	t.nc = nc

	streams, err := NewStreamManager(nc, cfg)
	if err != nil {
		t.teardown(ctx)
		return nil, err
	}
	if _, err := streams.EnsureStream(ctx); err != nil {
		t.teardown(ctx)
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	t.streams = streams

	pub, err := NewPublisher(url, wmLogger)
	if err != nil {
		t.teardown(ctx)
		return nil, err
	}
	t.Publisher = pub

	sub, err := NewSubscriber(cfg, url, wmLogger)
	if err != nil {
		t.teardown(ctx)
		return nil, err
	}
	t.Subscriber = sub

	t.logger.Info().
		Bool("embedded", cfg.EmbeddedServer).
		Str("url", url).
		Str("stream", cfg.StreamName).
		Msg("event transport ready")

	return t, nil
}

// Conn returns the shared connection for request-reply services.
func (t *Transport) Conn() *natsgo.Conn {
	return t.nc
}

// ClientURL returns the address clients should dial, which for the
// embedded server may differ from the configured URL.
func (t *Transport) ClientURL() string {
	return t.clientURL
}

// StreamInfo reports current stream state for health checks.
func (t *Transport) StreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	return t.streams.StreamInfo(ctx)
}

// Close tears the transport down in reverse order of construction, so
// in-flight publishes drain before the server stops.
func (t *Transport) Close(ctx context.Context) error {
	return t.teardown(ctx)
}

func (t *Transport) teardown(ctx context.Context) error {
	var errs []error

	if t.Subscriber != nil {
		if err := t.Subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
		t.Subscriber = nil
	}
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
		t.Publisher = nil
	}
	if t.nc != nil {
		t.nc.Close()
		t.nc = nil
	}
	if t.embedded != nil {
		if err := t.embedded.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown embedded server: %w", err))
		}
		t.embedded = nil
	}

	return errors.Join(errs...)
}
