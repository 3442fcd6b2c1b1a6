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

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/metrics"
	"github.com/tomtom215/palate/internal/recommend"
)

// Rebuilder retrains the latent model from the full interaction log
// and swaps it in atomically on success.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*recommend.RebuildResult, error)
}

// Engine is the slice of the recommendation engine the training loop
// drives. Defined here so the scheduler does not depend on the concrete
// engine type.
type Engine interface {
	Rebuilder

	// EvaluateOffline measures ranking quality on a holdout split.
	EvaluateOffline(ctx context.Context, k int) (*recommend.EvalResult, error)
}

// TrainingService retrains the model on startup and on a fixed cadence.
// It implements suture.Service; a crash restarts the loop, not the
// process.
type TrainingService struct {
	engine Engine
	config config.SchedulerConfig

	// EvalK enables a post-training holdout evaluation at this cutoff.
	// Zero disables evaluation.
	EvalK int

	logger zerolog.Logger
	name   string
}

// NewTrainingService creates the training loop service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(engine Engine, cfg config.SchedulerConfig, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "training").Logger(),
		name:   "training-scheduler",
	}
}

// Serve runs the training loop until the context is canceled.
func (s *TrainingService) Serve(ctx context.Context) error {
	interval := s.config.RetrainInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("retrain_interval", interval).
		Msg("training scheduler starting")

	if s.config.TrainOnStartup {
		if err := s.train(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn().Err(err).Msg("startup training failed (will retry on schedule)")
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled retraining triggered")
			if err := s.train(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("scheduled retraining failed")
			}
		}
	}
}

// train runs one rebuild under the configured deadline and, when the
// rebuild produced a trained model, logs a holdout evaluation.
func (s *TrainingService) train(ctx context.Context) error {
	trainCtx := ctx
	if s.config.TrainTimeout > 0 {
		var cancel context.CancelFunc
		trainCtx, cancel = context.WithTimeout(ctx, s.config.TrainTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.engine.Rebuild(trainCtx)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("status", string(result.Status)).
		Int("user_count", result.UserCount).
		Int("item_count", result.ItemCount).
		Int("version", result.Version).
		Dur("duration", time.Since(start)).
		Msg("scheduled training complete")

	if result.Status == recommend.RebuildTrained && s.EvalK > 0 {
		s.evaluate(trainCtx)
	}
	return nil
}

// evaluate logs offline ranking metrics. Failures are logged and
// swallowed: evaluation is observability, not part of training.
func (s *TrainingService) evaluate(ctx context.Context) {
	eval, err := s.engine.EvaluateOffline(ctx, s.EvalK)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("offline evaluation failed")
		}
		return
	}
	if eval.Users == 0 {
		s.logger.Debug().Msg("offline evaluation skipped (no evaluable users)")
		return
	}
	metrics.RecordEvaluation(eval.PrecisionAtK, eval.RecallAtK, eval.Coverage)
	s.logger.Info().
		Int("k", eval.K).
		Int("users", eval.Users).
		Float64("precision_at_k", eval.PrecisionAtK).
		Float64("recall_at_k", eval.RecallAtK).
		Float64("coverage", eval.Coverage).
		Msg("offline evaluation")
}

// String returns the service name for supervisor logging.
func (s *TrainingService) String() string {
	return s.name
}
