// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/palate/internal/metrics"
)

const (
	publishRetryAttempts = 3
	publishRetryWait     = 100 * time.Millisecond
	reconnectWait        = 2 * time.Second

	breakerMaxRequests = 3
	breakerInterval    = 60 * time.Second
	breakerTimeout     = 30 * time.Second
	breakerMaxFailures = 5
)

// Publisher is the JetStream publisher for all outbound events. A
// circuit breaker sheds publishes while the broker is unreachable so
// chat handling degrades instead of piling up blocked goroutines.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	mu        sync.RWMutex
	closed    bool
	logger    watermill.LoggerAdapter
}

// NewPublisher connects a Watermill NATS publisher to url. The stream
// is pre-created by the StreamManager, so auto-provisioning stays off.
func NewPublisher(url string, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(publishRetryAttempts),
				natsgo.RetryWait(publishRetryWait),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "nats-publisher",
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("publisher circuit breaker state change", watermill.LogFields{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	return &Publisher{
		publisher: pub,
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// Publish sends a message to topic. The message UUID rides the
// Nats-Msg-Id header unless one is already set, feeding both the
// stream's duplicate window and the consumer's seen-set.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(topic, msg)
	})

	if err == nil {
		metrics.RecordEventPublished(topicClass(topic))
	}

	return err
}

// PublishEvent validates, serializes, and publishes an event on its own
// topic. The event ID becomes the message UUID.
func (p *Publisher) PublishEvent(ctx context.Context, event Event) error {
	data, err := Encode(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(event.ID(), data)
	return p.Publish(ctx, event.Topic(), msg)
}

// Close shuts down the publisher. Subsequent publishes fail fast.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

// WatermillPublisher returns the underlying publisher for Watermill
// components that need the native interface, such as the poison queue.
func (p *Publisher) WatermillPublisher() message.Publisher {
	return p.publisher
}

// topicClass maps a subject to its metrics label, keeping label
// cardinality fixed regardless of per-session response subjects.
func topicClass(topic string) string {
	parts := strings.Split(topic, ".")
	if len(parts) < 2 {
		return "other"
	}

	switch parts[1] {
	case "order":
		return "order"
	case "rating":
		return "rating"
	case "chat":
		if len(parts) > 2 && parts[2] == "response" {
			return "chat_response"
		}
		return "chat_request"
	case "admin":
		return "admin"
	case "dlq":
		return "dlq"
	default:
		return "other"
	}
}
