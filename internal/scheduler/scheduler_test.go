// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/recommend"
)

// fakeEngine records Rebuild and EvaluateOffline calls.
type fakeEngine struct {
	mu           sync.Mutex
	rebuilds     int
	evaluations  int
	lastEvalK    int
	rebuildErr   error
	status       recommend.RebuildStatus
	evalResult   recommend.EvalResult
	evalErr      error
	rebuildDelay time.Duration
}

func (f *fakeEngine) Rebuild(ctx context.Context) (*recommend.RebuildResult, error) {
	if f.rebuildDelay > 0 {
		select {
		case <-time.After(f.rebuildDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	if f.rebuildErr != nil {
		return nil, f.rebuildErr
	}
	status := f.status
	if status == "" {
		status = recommend.RebuildTrained
	}
	return &recommend.RebuildResult{Status: status, UserCount: 3, ItemCount: 4, Version: f.rebuilds}, nil
}

func (f *fakeEngine) EvaluateOffline(_ context.Context, k int) (*recommend.EvalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations++
	f.lastEvalK = k
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	result := f.evalResult
	result.K = k
	return &result, nil
}

func (f *fakeEngine) counts() (rebuilds, evaluations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rebuilds, f.evaluations
}

// serveUntil runs the service until the deadline and returns its error.
func serveUntil(t *testing.T, svc *TrainingService, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	err := svc.Serve(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() error = %v, want context cancellation", err)
	}
	return err
}

func TestTrainingServiceStartupTrain(t *testing.T) {
	engine := &fakeEngine{evalResult: recommend.EvalResult{Users: 2, PrecisionAtK: 0.5}}
	svc := NewTrainingService(engine, config.SchedulerConfig{
		TrainOnStartup:  true,
		RetrainInterval: time.Hour,
	}, zerolog.Nop())
	svc.EvalK = 5

	serveUntil(t, svc, 50*time.Millisecond)

	rebuilds, evaluations := engine.counts()
	if rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", rebuilds)
	}
	if evaluations != 1 {
		t.Errorf("evaluations = %d, want 1", evaluations)
	}
	if engine.lastEvalK != 5 {
		t.Errorf("eval k = %d, want 5", engine.lastEvalK)
	}
}

func TestTrainingServiceNoStartupTrain(t *testing.T) {
	engine := &fakeEngine{}
	svc := NewTrainingService(engine, config.SchedulerConfig{
		TrainOnStartup:  false,
		RetrainInterval: time.Hour,
	}, zerolog.Nop())

	serveUntil(t, svc, 50*time.Millisecond)

	if rebuilds, _ := engine.counts(); rebuilds != 0 {
		t.Errorf("rebuilds = %d, want 0", rebuilds)
	}
}

func TestTrainingServiceScheduledRetrain(t *testing.T) {
	engine := &fakeEngine{}
	svc := NewTrainingService(engine, config.SchedulerConfig{
		TrainOnStartup:  false,
		RetrainInterval: 10 * time.Millisecond,
	}, zerolog.Nop())

	serveUntil(t, svc, 100*time.Millisecond)

	if rebuilds, _ := engine.counts(); rebuilds < 2 {
		t.Errorf("rebuilds = %d, want at least 2", rebuilds)
	}
}

func TestTrainingServiceSurvivesRebuildFailure(t *testing.T) {
	engine := &fakeEngine{rebuildErr: errors.New("store down")}
	svc := NewTrainingService(engine, config.SchedulerConfig{
		TrainOnStartup:  true,
		RetrainInterval: 10 * time.Millisecond,
	}, zerolog.Nop())

	err := serveUntil(t, svc, 60*time.Millisecond)
	if err == nil {
		t.Fatal("Serve() returned nil, want context error")
	}

	// Failures are logged, not fatal; the loop kept retrying.
	if rebuilds, _ := engine.counts(); rebuilds < 2 {
		t.Errorf("rebuilds = %d, want at least 2", rebuilds)
	}
}

func TestTrainingServiceEvaluationGating(t *testing.T) {
	tests := []struct {
		name            string
		status          recommend.RebuildStatus
		evalK           int
		wantEvaluations int
	}{
		{"trained with eval enabled", recommend.RebuildTrained, 5, 1},
		{"trained with eval disabled", recommend.RebuildTrained, 0, 0},
		{"content only skips eval", recommend.RebuildContentOnly, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{status: tt.status, evalResult: recommend.EvalResult{Users: 1}}
			svc := NewTrainingService(engine, config.SchedulerConfig{
				TrainOnStartup:  true,
				RetrainInterval: time.Hour,
			}, zerolog.Nop())
			svc.EvalK = tt.evalK

			serveUntil(t, svc, 50*time.Millisecond)

			if _, evaluations := engine.counts(); evaluations != tt.wantEvaluations {
				t.Errorf("evaluations = %d, want %d", evaluations, tt.wantEvaluations)
			}
		})
	}
}

func TestTrainingServiceEvaluationErrorSwallowed(t *testing.T) {
	engine := &fakeEngine{evalErr: errors.New("eval failed")}
	svc := NewTrainingService(engine, config.SchedulerConfig{
		TrainOnStartup:  true,
		RetrainInterval: time.Hour,
	}, zerolog.Nop())
	svc.EvalK = 3

	serveUntil(t, svc, 50*time.Millisecond)

	rebuilds, evaluations := engine.counts()
	if rebuilds != 1 || evaluations != 1 {
		t.Errorf("rebuilds, evaluations = %d, %d, want 1, 1", rebuilds, evaluations)
	}
}

func TestTrainingServiceString(t *testing.T) {
	svc := NewTrainingService(&fakeEngine{}, config.SchedulerConfig{}, zerolog.Nop())
	if got := svc.String(); got != "training-scheduler" {
		t.Errorf("String() = %q, want %q", got, "training-scheduler")
	}
}
