// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/recommend"
)

func TestRateLimitedRebuilderDeniesBeyondBurst(t *testing.T) {
	engine := &fakeEngine{}
	limited := NewRateLimitedRebuilder(engine, time.Hour, 1, zerolog.Nop())

	if _, err := limited.Rebuild(context.Background()); err != nil {
		t.Fatalf("first Rebuild() error = %v, want nil", err)
	}

	_, err := limited.Rebuild(context.Background())
	if !errors.Is(err, ErrRebuildRateLimited) {
		t.Fatalf("second Rebuild() error = %v, want ErrRebuildRateLimited", err)
	}

	if rebuilds, _ := engine.counts(); rebuilds != 1 {
		t.Errorf("engine rebuilds = %d, want 1", rebuilds)
	}
}

func TestRateLimitedRebuilderBurstAllowance(t *testing.T) {
	engine := &fakeEngine{}
	limited := NewRateLimitedRebuilder(engine, time.Hour, 3, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := limited.Rebuild(context.Background()); err != nil {
			t.Fatalf("Rebuild() %d error = %v, want nil", i+1, err)
		}
	}
	if _, err := limited.Rebuild(context.Background()); !errors.Is(err, ErrRebuildRateLimited) {
		t.Fatalf("Rebuild() after burst error = %v, want ErrRebuildRateLimited", err)
	}
}

func TestRateLimitedRebuilderZeroIntervalUnlimited(t *testing.T) {
	engine := &fakeEngine{}
	limited := NewRateLimitedRebuilder(engine, 0, 1, zerolog.Nop())

	for i := 0; i < 10; i++ {
		if _, err := limited.Rebuild(context.Background()); err != nil {
			t.Fatalf("Rebuild() %d error = %v, want nil", i+1, err)
		}
	}
}

func TestRateLimitedRebuilderBurstFloor(t *testing.T) {
	// A zero burst would deny every trigger forever; the constructor
	// floors it at one.
	engine := &fakeEngine{}
	limited := NewRateLimitedRebuilder(engine, time.Hour, 0, zerolog.Nop())

	if _, err := limited.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v, want nil", err)
	}
}

func TestRateLimitedRebuilderForwardsResult(t *testing.T) {
	engine := &fakeEngine{status: recommend.RebuildContentOnly}
	limited := NewRateLimitedRebuilder(engine, 0, 1, zerolog.Nop())

	result, err := limited.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild() error = %v, want nil", err)
	}
	if result.Status != recommend.RebuildContentOnly {
		t.Errorf("Status = %q, want %q", result.Status, recommend.RebuildContentOnly)
	}
}

func TestRateLimitedRebuilderForwardsError(t *testing.T) {
	engine := &fakeEngine{rebuildErr: errors.New("rebuild already in progress")}
	limited := NewRateLimitedRebuilder(engine, 0, 1, zerolog.Nop())

	if _, err := limited.Rebuild(context.Background()); err == nil {
		t.Fatal("Rebuild() error = nil, want engine error")
	}
}
