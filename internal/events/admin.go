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

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/recommend"
)

// Rebuilder triggers a model rebuild. The engine implements it
// directly; the training scheduler wraps it with rate limiting.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*recommend.RebuildResult, error)
}

// AdminService answers rebuild requests on the admin subject with a
// RebuildResponse. A trigger that lands while a rebuild is already
// running gets a "busy" response instead of a second rebuild.
type AdminService struct {
	nc        *natsgo.Conn
	rebuilder Rebuilder
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewAdminService creates the admin responder on an existing
// connection. timeout bounds a single rebuild.
func NewAdminService(nc *natsgo.Conn, rebuilder Rebuilder, timeout time.Duration, logger zerolog.Logger) *AdminService {
	return &AdminService{
		nc:        nc,
		rebuilder: rebuilder,
		timeout:   timeout,
		logger:    logger.With().Str("component", "admin").Logger(),
	}
}

// Serve subscribes to the admin subject until the context is canceled.
// It implements suture.Service.
func (s *AdminService) Serve(ctx context.Context) error {
	sub, err := s.nc.Subscribe(TopicAdminRebuild, func(msg *natsgo.Msg) {
		s.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicAdminRebuild, err)
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	s.logger.Info().Str("subject", TopicAdminRebuild).Msg("admin rebuild trigger listening")

	<-ctx.Done()
	return ctx.Err()
}

func (s *AdminService) String() string { return "admin-rebuild" }

// rebuildStatusBusy tells the requester a rebuild was already running
// and this trigger did nothing; retry once the current run finishes.
const rebuildStatusBusy = "busy"

// rebuildResponse maps a rebuild outcome to the wire response. A
// training-in-progress error becomes the busy status so callers can
// tell a contended trigger from a genuine failure.
func rebuildResponse(result *recommend.RebuildResult, err error) RebuildResponse {
	var resp RebuildResponse
	switch {
	case errors.Is(err, recommend.ErrTrainingInProgress):
		resp.Status = rebuildStatusBusy
		resp.Error = err.Error()
	case err != nil:
		resp.Status = "error"
		resp.Error = err.Error()
	default:
		resp.Status = string(result.Status)
		resp.UserCount = result.UserCount
		resp.ItemCount = result.ItemCount
	}
	return resp
}

func (s *AdminService) handle(ctx context.Context, msg *natsgo.Msg) {
	rctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.rebuilder.Rebuild(rctx)
	resp := rebuildResponse(result, err)
	switch {
	case resp.Status == rebuildStatusBusy:
		s.logger.Warn().Msg("admin rebuild skipped, training already running")
	case err != nil:
		s.logger.Error().Err(err).Msg("admin rebuild failed")
	default:
		s.logger.Info().
			Str("status", string(result.Status)).
			Int("user_count", result.UserCount).
			Int("item_count", result.ItemCount).
			Int("model_version", result.Version).
			Msg("admin rebuild complete")
	}

	// A missing reply subject is a fire-and-forget trigger.
	if msg.Reply == "" {
		return
	}

	data, merr := json.Marshal(resp)
	if merr != nil {
		s.logger.Error().Err(merr).Msg("marshal rebuild response failed")
		return
	}
	if rerr := msg.Respond(data); rerr != nil {
		s.logger.Warn().Err(rerr).Msg("rebuild reply failed")
	}
}
