// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/cache"
	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/render"
	"github.com/tomtom215/palate/internal/session"
	"github.com/tomtom215/palate/internal/store"
)

const (
	retryMaxRetries      = 5
	retryInitialInterval = time.Second
	retryMaxInterval     = time.Minute
	retryMultiplier      = 2.0

	dedupCapacity = 10000
	dedupTTL      = 5 * time.Minute
)

// EventPublisher is the outbound half the consumer needs. *Publisher
// implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}

// ConsumerDeps are the collaborators the consumer drives. DeadLetter
// receives messages that exhausted their retries; leaving it nil
// disables the poison queue.
type ConsumerDeps struct {
	Store      store.Store
	Sessions   *session.Manager
	Interp     *interpret.Interpreter
	Engine     *recommend.Engine
	Renderer   render.Renderer
	Publisher  EventPublisher
	Subscriber message.Subscriber
	DeadLetter message.Publisher
}

// Consumer routes bus events into the stores and runs the chat
// pipeline. Handler errors are retried with backoff; messages that
// exhaust their retries are parked on the dead letter subject.
type Consumer struct {
	router *message.Router
	seen   *cache.ExpiringSet
	deps   ConsumerDeps
	logger zerolog.Logger
}

// NewConsumer builds the router with its middleware stack and registers
// the three handlers. Middleware order is outermost first: panic
// recovery, dead letter parking, duplicate dropping, then retry.
func NewConsumer(deps ConsumerDeps, cfg *config.NATSConfig, wmLogger watermill.LoggerAdapter, logger zerolog.Logger) (*Consumer, error) {
	if wmLogger == nil {
		wmLogger = watermill.NewStdLogger(false, false)
	}

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	c := &Consumer{
		router: router,
		seen:   cache.NewExpiringSet(dedupCapacity, dedupTTL),
		deps:   deps,
		logger: logger.With().Str("component", "events").Logger(),
	}

	router.AddMiddleware(middleware.Recoverer)

	if deps.DeadLetter != nil {
		poison, err := middleware.PoisonQueue(&dlqPublisher{inner: deps.DeadLetter}, TopicDeadLetter)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		router.AddMiddleware(poison)
	}

	router.AddMiddleware(c.dropDuplicates)

	retry := middleware.Retry{
		MaxRetries:      retryMaxRetries,
		InitialInterval: retryInitialInterval,
		MaxInterval:     retryMaxInterval,
		Multiplier:      retryMultiplier,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware)

	router.AddConsumerHandler("order-ingest", TopicOrderPlaced, deps.Subscriber, c.handleOrder)
	router.AddConsumerHandler("rating-ingest", TopicRatingSubmitted, deps.Subscriber, c.handleRating)
	router.AddConsumerHandler("chat-pipeline", TopicChatRequest, deps.Subscriber, c.handleChat)

	return c, nil
}

// Serve runs the router until the context is canceled. It implements
// suture.Service.
func (c *Consumer) Serve(ctx context.Context) error {
	if err := c.router.Run(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Consumer) String() string { return "event-consumer" }

// Running returns a channel that closes once all handlers are up.
func (c *Consumer) Running() <-chan struct{} {
	return c.router.Running()
}

// dropDuplicates drops redeliveries of already-handled events, keyed on
// the Msg-Id header with the message UUID as fallback. A key is
// recorded only after the inner chain succeeds, so a message that
// failed and was redelivered is processed again rather than lost.
func (c *Consumer) dropDuplicates(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		key := msg.Metadata.Get(natsgo.MsgIdHdr)
		if key == "" {
			key = msg.UUID
		}

		if key != "" && c.seen.Contains(key) {
			metrics.RecordEventDuplicate()
			c.logger.Debug().Str("event_id", key).Msg("duplicate event dropped")
			return nil, nil
		}

		out, err := h(msg)
		if err == nil && key != "" {
			c.seen.Seen(key)
		}
		return out, err
	}
}

func (c *Consumer) handleOrder(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()

	var evt OrderEvent
	if err := Decode(msg.Payload, &evt); err != nil {
		metrics.RecordEventConsumed("order", time.Since(start), err)
		return fmt.Errorf("decode order event: %w", err)
	}

	err := c.deps.Store.AppendInteraction(ctx, evt.Interaction())
	if err == nil {
		if cerr := c.deps.Store.IncrementOrderCount(ctx, evt.ItemID, evt.Quantity); cerr != nil {
			c.logger.Warn().Err(cerr).Str("item_id", evt.ItemID).Msg("order count bump failed")
		}
		if evt.SessionID != "" {
			if serr := c.deps.Sessions.MarkSelected(ctx, evt.SessionID); serr != nil {
				c.logger.Warn().Err(serr).Str("session_id", evt.SessionID).Msg("selection mark failed")
			}
		}
	}

	metrics.RecordEventConsumed("order", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}

	c.logger.Debug().
		Str("event_id", evt.EventID).
		Str("user_id", evt.UserID).
		Str("item_id", evt.ItemID).
		Int("quantity", evt.Quantity).
		Msg("order ingested")
	return nil
}

func (c *Consumer) handleRating(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()

	var evt RatingEvent
	if err := Decode(msg.Payload, &evt); err != nil {
		metrics.RecordEventConsumed("rating", time.Since(start), err)
		return fmt.Errorf("decode rating event: %w", err)
	}

	err := c.deps.Store.UpsertRating(ctx, evt.Rating())
	metrics.RecordEventConsumed("rating", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}

	c.logger.Debug().
		Str("event_id", evt.EventID).
		Str("user_id", evt.UserID).
		Str("item_id", evt.ItemID).
		Int("value", evt.Value).
		Msg("rating ingested")
	return nil
}

func (c *Consumer) handleChat(msg *message.Message) error {
	start := time.Now()
	ctx := msg.Context()

	var req ChatRequest
	if err := Decode(msg.Payload, &req); err != nil {
		metrics.RecordEventConsumed("chat_request", time.Since(start), err)
		return fmt.Errorf("decode chat request: %w", err)
	}

	resp, err := c.respond(ctx, &req)
	if err == nil {
		err = c.deps.Publisher.PublishEvent(ctx, resp)
	}

	metrics.RecordEventConsumed("chat_request", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("chat turn %s: %w", req.EventID, err)
	}
	return nil
}

// respond runs one conversation turn: session begin, interpretation,
// conflict detection, recommendation, rendering, session save.
func (c *Consumer) respond(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	state, err := c.deps.Sessions.BeginTurn(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("begin turn: %w", err)
	}

	res := c.deps.Interp.Interpret(req.Message, state.InterpretContext())
	recordInterpretation(res)

	profile := c.loadProfile(ctx, req.UserID)
	conflicts := c.deps.Interp.DetectConflicts(res.Override, profile)
	for _, conflict := range conflicts {
		metrics.RecordConflict(string(conflict.Type))
	}

	rec := c.recommendations(ctx, req, res)

	input := render.NewInput(res, conflicts, rec, profileName(profile))
	text, err := c.deps.Renderer.Render(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	state.ApplyTurn(res, recommendedIDs(rec))
	if err := c.deps.Sessions.Save(ctx, state); err != nil {
		c.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("session save failed")
	}

	resp := NewChatResponse(req)
	resp.Intent = res.Final().String()
	resp.Language = res.Language
	resp.Text = text
	resp.LoopBreaker = res.LoopBreak
	resp.Conflicts = conflicts
	if rec != nil {
		resp.ReorderItems = rec.ReorderItems
		resp.NewItems = rec.NewItems
	}
	return resp, nil
}

// recommendations runs the engine, or the catalog search for item
// lookups. A failed lookup degrades to an empty response, which renders
// as an apology, rather than failing the whole turn.
func (c *Consumer) recommendations(ctx context.Context, req *ChatRequest, res interpret.Result) *recommend.Response {
	if res.LoopBreak || !res.Intent.WantsRecommendations() {
		return nil
	}

	if res.Intent == interpret.IntentSpecificItemSearch {
		found, err := searchCatalog(ctx, c.deps.Store, res.ItemQuery)
		if err != nil {
			c.logger.Error().Err(err).Str("user_id", req.UserID).Msg("item search failed")
			return nil
		}
		return &recommend.Response{NewItems: found}
	}

	rreq := recommend.Request{
		UserID:    req.UserID,
		Intent:    res.Intent,
		Override:  res.Override,
		RequestID: req.EventID,
	}
	// A cuisine matched by the intent scan alone still narrows the pool.
	if res.Intent == interpret.IntentSpecificCuisine && !rreq.Override.HasCuisine() {
		rreq.Override.Cuisines = res.Cuisines
	}

	rec, err := c.deps.Engine.Recommend(ctx, rreq)
	if err != nil {
		c.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Str("intent", res.Intent.String()).
			Msg("recommendation failed")
		return nil
	}
	return rec
}

// loadProfile fetches the user's stored preferences. Unknown users get
// nil, which disables conflict detection and personalized greetings.
func (c *Consumer) loadProfile(ctx context.Context, userID string) *models.UserProfile {
	profile, err := c.deps.Store.Profile(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn().Err(err).Str("user_id", userID).Msg("profile load failed")
		}
		return nil
	}
	return profile
}

func recordInterpretation(res interpret.Result) {
	metrics.RecordIntent(res.Final().String())
	if res.LoopBreak {
		metrics.RecordLoopBreaker()
	}
	if res.Override.HasSpice() {
		metrics.RecordOverride("spice")
	}
	if res.Override.HasDietary() {
		metrics.RecordOverride("dietary")
	}
	if res.Override.HasCuisine() {
		metrics.RecordOverride("cuisine")
	}
	if res.Override.HasItemType() {
		metrics.RecordOverride("item_type")
	}
}

func profileName(p *models.UserProfile) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func recommendedIDs(rec *recommend.Response) []string {
	if rec == nil {
		return nil
	}
	ids := make([]string, 0, len(rec.ReorderItems)+len(rec.NewItems))
	for _, it := range rec.ReorderItems {
		ids = append(ids, it.Item.ID)
	}
	for _, it := range rec.NewItems {
		ids = append(ids, it.Item.ID)
	}
	return ids
}

// dlqPublisher re-stamps the Msg-Id header before parking a message.
// The stream's duplicate window already saw the original ID and would
// silently drop the parked copy inside that window.
type dlqPublisher struct {
	inner message.Publisher
}

func (p *dlqPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		msg.Metadata.Set(natsgo.MsgIdHdr, uuid.New().String())
	}
	return p.inner.Publish(topic, msgs...)
}

// Close is a no-op; the wrapped publisher is owned elsewhere.
func (p *dlqPublisher) Close() error { return nil }
