// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/metrics"
)

// DefaultTTL is the idle expiry applied when the config carries none.
const DefaultTTL = 30 * time.Minute

// Manager owns turn bookkeeping over a Store. Handlers call BeginTurn
// before interpreting a message and Save after building the response;
// the manager keeps the counting rules in one place.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager wraps a store with turn bookkeeping.
func NewManager(store Store, ttl time.Duration, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// BeginTurn loads the conversation's state, starting fresh when it is
// absent or expired, and counts the inbound message. The returned state
// is not persisted until Save.
func (m *Manager) BeginTurn(ctx context.Context, sessionID, userID string) (*State, error) {
	state, err := m.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired):
		state = NewState(sessionID, userID)
	case err != nil:
		return nil, err
	}

	state.TurnCount++
	return state, nil
}

// Save stamps freshness and persists the state. UpdatedAt and ExpiresAt
// share one clock reading so the idle window is exactly the TTL.
func (m *Manager) Save(ctx context.Context, state *State) error {
	now := time.Now()
	state.UpdatedAt = now
	state.ExpiresAt = now.Add(m.ttl)
	return m.store.Put(ctx, state)
}

// MarkSelected ends the session's non-selecting streak once the user
// picks an item. Unknown or expired sessions are ignored: the selection
// still counts, there is just no streak left to reset.
func (m *Manager) MarkSelected(ctx context.Context, sessionID string) error {
	state, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
		return nil
	}
	if err != nil {
		return err
	}

	state.MarkSelected()
	return m.Save(ctx, state)
}

// CleanupService sweeps expired sessions on an interval. It implements
// suture.Service and runs under the supervision tree.
type CleanupService struct {
	store    Store
	interval time.Duration
	logger   zerolog.Logger
}

// NewCleanupService builds the sweep service. A non-positive interval
// falls back to five minutes.
func NewCleanupService(store Store, interval time.Duration, logger zerolog.Logger) *CleanupService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CleanupService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "session-cleanup").Logger(),
	}
}

// Serve sweeps until the context is canceled.
func (c *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			count, err := c.store.CleanupExpired(ctx)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Session cleanup sweep failed")
				continue
			}
			metrics.RecordSessionsExpired(count)
			if count > 0 {
				c.logger.Debug().Int("removed", count).Msg("Expired sessions removed")
			}
			if remaining, cerr := c.store.Count(ctx); cerr == nil {
				metrics.RecordSessionCount(remaining)
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *CleanupService) String() string {
	return "session-cleanup"
}
