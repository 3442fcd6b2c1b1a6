// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/palate/internal/interpret"
)

var (
	// ErrNotFound is returned when a session is not in the store.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session exists but its TTL has
	// passed. Expired entries stay on disk until the cleanup sweep.
	ErrExpired = errors.New("session expired")
)

// State is one conversation's cross-turn memory.
type State struct {
	// SessionID identifies the conversation.
	SessionID string `json:"session_id"`

	// UserID is the user the conversation belongs to.
	UserID string `json:"user_id"`

	// LastIntent is the keyword intent classified for the previous turn.
	LastIntent interpret.Intent `json:"last_intent,omitempty"`

	// TurnCount counts consecutive turns without a selection. It feeds
	// the loop breaker and resets when the user selects an item or the
	// breaker fires.
	TurnCount int `json:"turn_count"`

	// AwaitingSelection is set while the last response shows a
	// recommendation list the user has not answered.
	AwaitingSelection bool `json:"awaiting_selection"`

	// LastRecommended holds the item IDs of the last shown list.
	LastRecommended []string `json:"last_recommended,omitempty"`

	// UpdatedAt is when the state was last saved.
	UpdatedAt time.Time `json:"updated_at"`

	// ExpiresAt is when the state becomes stale. Zero means the state
	// has not been persisted yet and does not expire.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewState returns the starting state for a fresh conversation.
func NewState(sessionID, userID string) *State {
	return &State{
		SessionID: sessionID,
		UserID:    userID,
	}
}

// IsExpired reports whether the state's TTL has passed.
func (s *State) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// InterpretContext is the read-only view the interpreter receives.
func (s *State) InterpretContext() interpret.Context {
	return interpret.Context{
		PreviousIntent:          s.LastIntent,
		ConsecutiveNonSelecting: s.TurnCount,
		AwaitingSelection:       s.AwaitingSelection,
	}
}

// ApplyTurn folds one interpreted turn into the state. The keyword
// intent is remembered even when the loop breaker pre-empted it, and a
// fired breaker resets the counter so the next turn starts clean.
func (s *State) ApplyTurn(res interpret.Result, recommended []string) {
	s.LastIntent = res.Intent
	if res.LoopBreak {
		s.TurnCount = 0
	}
	s.AwaitingSelection = len(recommended) > 0
	s.LastRecommended = recommended
}

// MarkSelected records that the user picked an item, ending the
// non-selecting streak.
func (s *State) MarkSelected() {
	s.TurnCount = 0
	s.AwaitingSelection = false
}

// Store is the session persistence contract.
type Store interface {
	// Get retrieves a session by ID. Returns ErrNotFound when absent
	// and ErrExpired when present but past its TTL.
	Get(ctx context.Context, sessionID string) (*State, error)

	// Put upserts a session. Chat sessions have no explicit creation
	// step; the first turn writes the first state.
	Put(ctx context.Context, state *State) error

	// Delete removes a session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, sessionID string) error

	// CleanupExpired removes all expired sessions and returns how many
	// were dropped.
	CleanupExpired(ctx context.Context) (int, error)

	// Count returns the number of stored sessions, expired included.
	Count(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}

// MemoryStore is the in-memory Store. Suitable for tests and
// single-node development; state is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

// Get retrieves a session by ID.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if state.IsExpired() {
		return nil, ErrExpired
	}
	return cloneState(state), nil
}

// Put upserts a session.
func (m *MemoryStore) Put(_ context.Context, state *State) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session state requires a session ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.SessionID] = cloneState(state)
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// CleanupExpired removes all expired sessions.
func (m *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, state := range m.sessions {
		if state.IsExpired() {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored sessions.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// cloneState isolates stored state from caller mutation.
func cloneState(s *State) *State {
	out := *s
	if s.LastRecommended != nil {
		out.LastRecommended = make([]string, len(s.LastRecommended))
		copy(out.LastRecommended, s.LastRecommended)
	}
	return &out
}
