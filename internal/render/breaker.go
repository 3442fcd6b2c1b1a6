// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package render

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/metrics"
)

const (
	defaultTimeout     = 5 * time.Second
	defaultMaxFailures = uint32(5)
)

// FallbackRenderer serves every render through a circuit breaker with
// the template renderer as the degraded path. A nil remote renderer is
// allowed and means template-only service.
type FallbackRenderer struct {
	remote   Renderer
	fallback *TemplateRenderer
	cb       *gobreaker.CircuitBreaker[string]
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewFallbackRenderer wires remote behind a breaker configured from
// cfg. The breaker opens after the configured number of consecutive
// failures and probes again after its open-state timeout.
func NewFallbackRenderer(remote Renderer, cfg *config.RenderConfig, logger zerolog.Logger) *FallbackRenderer {
	r := &FallbackRenderer{
		remote:   remote,
		fallback: NewTemplateRenderer(),
		timeout:  defaultTimeout,
		logger:   logger.With().Str("component", "render").Logger(),
	}
	if remote == nil {
		return r
	}

	maxFailures := defaultMaxFailures
	settings := gobreaker.Settings{Name: "renderer"}
	if cfg != nil {
		if cfg.Timeout > 0 {
			r.timeout = cfg.Timeout
		}
		if cfg.BreakerMaxFailures > 0 {
			maxFailures = cfg.BreakerMaxFailures
		}
		settings.MaxRequests = cfg.BreakerMaxRequests
		settings.Interval = cfg.BreakerInterval
		settings.Timeout = cfg.BreakerTimeout
	}
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= maxFailures
	}
	settings.OnStateChange = func(_ string, from, to gobreaker.State) {
		metrics.RecordRendererState(stateValue(to))
		event := r.logger.Info()
		if to == gobreaker.StateOpen {
			event = r.logger.Warn()
		}
		event.Str("from", from.String()).Str("to", to.String()).Msg("renderer breaker state change")
	}
	r.cb = gobreaker.NewCircuitBreaker[string](settings)
	return r
}

// Render tries the remote renderer and degrades to the template on any
// failure, including open-breaker rejections. The template path cannot
// fail for a non-nil input, so chat requests never fail on rendering.
func (r *FallbackRenderer) Render(ctx context.Context, in *Input) (string, error) {
	if in == nil {
		return "", errNilInput
	}
	if r.remote == nil {
		return r.fallback.Render(ctx, in)
	}

	text, err := r.cb.Execute(func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.remote.Render(cctx, in)
	})
	if err != nil {
		metrics.RecordRendererFallback()
		r.logger.Warn().Err(err).Str("intent", in.Intent.String()).
			Msg("remote render failed, using template")
		return r.fallback.Render(ctx, in)
	}
	return text, nil
}

// State reports the breaker state for health reporting. Template-only
// service always reports closed.
func (r *FallbackRenderer) State() string {
	if r.cb == nil {
		return gobreaker.StateClosed.String()
	}
	return r.cb.State().String()
}

// stateValue maps breaker states onto the gauge encoding: 0 closed,
// 1 half-open, 2 open.
func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
