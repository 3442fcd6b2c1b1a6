// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/palate/internal/recommend"
)

// ErrRebuildRateLimited is returned when an administrative rebuild
// arrives faster than the configured minimum interval allows.
var ErrRebuildRateLimited = errors.New("scheduler: rebuild rate limited")

// RateLimitedRebuilder guards the administrative rebuild trigger with a
// token bucket. A denied trigger fails fast rather than queueing: the
// caller can retry after the interval, and the scheduled loop keeps the
// model fresh regardless.
type RateLimitedRebuilder struct {
	engine  Rebuilder
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewRateLimitedRebuilder allows one rebuild per minInterval with a
// burst allowance. minInterval <= 0 disables limiting; burst is floored
// at 1 so the limiter can ever admit a trigger.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRateLimitedRebuilder(engine Rebuilder, minInterval time.Duration, burst int, logger zerolog.Logger) *RateLimitedRebuilder {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedRebuilder{
		engine:  engine,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "rebuild-limiter").Logger(),
	}
}

// Rebuild forwards to the engine when the limiter admits the trigger.
// It satisfies the events package's Rebuilder contract.
func (r *RateLimitedRebuilder) Rebuild(ctx context.Context) (*recommend.RebuildResult, error) {
	if !r.limiter.Allow() {
		r.logger.Warn().Msg("administrative rebuild denied by rate limit")
		return nil, ErrRebuildRateLimited
	}
	return r.engine.Rebuild(ctx)
}
