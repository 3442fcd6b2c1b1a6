// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/metrics"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewManager(store, time.Minute, zerolog.Nop()), store
}

func TestManager_BeginTurnFresh(t *testing.T) {
	m, _ := newTestManager(t)

	state, err := m.BeginTurn(context.Background(), "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}

	if state.SessionID != "sess-1" || state.UserID != "user-1" {
		t.Errorf("state identity = %s/%s, want sess-1/user-1", state.SessionID, state.UserID)
	}
	if state.TurnCount != 1 {
		t.Errorf("TurnCount = %d, want 1 for a fresh session", state.TurnCount)
	}
	if state.LastIntent != "" {
		t.Errorf("LastIntent = %q, want empty for a fresh session", state.LastIntent)
	}
}

func TestManager_BeginTurnIncrements(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	state, err := m.BeginTurn(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}
	state.LastIntent = interpret.IntentReorder
	if err := m.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	next, err := m.BeginTurn(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}
	if next.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", next.TurnCount)
	}
	if next.LastIntent != interpret.IntentReorder {
		t.Errorf("LastIntent = %s, want %s", next.LastIntent, interpret.IntentReorder)
	}
}

func TestManager_BeginTurnExpiredStartsFresh(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := store.Put(ctx, expiredState("sess-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	state, err := m.BeginTurn(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}
	if state.TurnCount != 1 {
		t.Errorf("TurnCount = %d, want 1 after expiry", state.TurnCount)
	}
	if state.LastIntent != "" {
		t.Errorf("LastIntent = %q, want empty after expiry", state.LastIntent)
	}
}

func TestManager_SaveStampsExpiry(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	state := NewState("sess-1", "user-1")
	if err := m.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if state.UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero after Save")
	}
	if got := state.ExpiresAt.Sub(state.UpdatedAt); got != time.Minute {
		t.Errorf("expiry window = %v, want %v", got, time.Minute)
	}
	if _, err := store.Get(ctx, "sess-1"); err != nil {
		t.Errorf("Get() after Save error = %v", err)
	}
}

func TestManager_MarkSelected(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	state, err := m.BeginTurn(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}
	state.ApplyTurn(interpret.Result{Intent: interpret.IntentFoodRecommendation}, []string{"item-a"})
	if err := m.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := m.MarkSelected(ctx, "sess-1"); err != nil {
		t.Fatalf("MarkSelected() error = %v", err)
	}

	stored, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.TurnCount != 0 || stored.AwaitingSelection {
		t.Errorf("after MarkSelected: TurnCount = %d, AwaitingSelection = %v, want 0/false",
			stored.TurnCount, stored.AwaitingSelection)
	}
}

func TestManager_MarkSelectedMissingSession(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	if err := m.MarkSelected(ctx, "ghost"); err != nil {
		t.Fatalf("MarkSelected(missing) error = %v, want nil", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0 (selection must not create sessions)", count)
	}
}

func TestManager_TurnFlow(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	state, err := m.BeginTurn(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}
	state.ApplyTurn(interpret.Result{Intent: interpret.IntentFoodRecommendation}, []string{"item-x"})
	if err := m.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	next, err := m.BeginTurn(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("BeginTurn() error = %v", err)
	}

	got := next.InterpretContext()
	want := interpret.Context{
		PreviousIntent:          interpret.IntentFoodRecommendation,
		ConsecutiveNonSelecting: 2,
		AwaitingSelection:       true,
	}
	if got != want {
		t.Errorf("InterpretContext() = %+v, want %+v", got, want)
	}
}

func TestCleanupService_Serve(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Put(ctx, expiredState("sess-old")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	svc := NewCleanupService(store, 10*time.Millisecond, zerolog.Nop())
	if got := svc.String(); got != "session-cleanup" {
		t.Errorf("String() = %q, want session-cleanup", got)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(serveCtx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		count, err := store.Count(ctx)
		if err != nil {
			cancel()
			t.Fatalf("Count() error = %v", err)
		}
		if count == 0 {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("expired session not swept within deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestCleanupService_ServeRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Put(ctx, expiredState("sess-swept")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.SessionsExpired)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc := NewCleanupService(store, 10*time.Millisecond, zerolog.Nop())
	go func() { _ = svc.Serve(serveCtx) }()

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(metrics.SessionsExpired) < before+1 {
		if time.Now().After(deadline) {
			t.Fatal("expiry counter not incremented within deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The sweep removed the only session and refreshed the gauge.
	for testutil.ToFloat64(metrics.SessionsActive) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("active-session gauge not refreshed within deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
