// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/palate/internal/config"
)

// sessionKeyPrefix namespaces session entries inside the Badger keyspace.
const sessionKeyPrefix = "session:"

// Store backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// NewStore builds the configured session store backend. The Badger
// backend is the default; it owns the database it opens and releases it
// on Close.
func NewStore(cfg *config.SessionConfig) (Store, error) {
	if cfg == nil {
		return nil, errors.New("session config is required")
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBadger, "":
		return OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// BadgerStore is the durable Store. Session state survives restarts, so
// a conversation can continue across deploys.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerStore opens a BadgerDB at the given path and wraps it. The
// returned store owns the database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("session store path is required")
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStore wraps an already-open database shared with other
// components. Close becomes a no-op; the owner closes the database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get retrieves a session by ID.
func (b *BadgerStore) Get(_ context.Context, sessionID string) (*State, error) {
	var state State

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if err != nil {
		return nil, err
	}

	if state.IsExpired() {
		return nil, ErrExpired
	}
	return &state, nil
}

// Put upserts a session.
func (b *BadgerStore) Put(_ context.Context, state *State) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session state requires a session ID")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKeyPrefix+state.SessionID), data)
	})
}

// Delete removes a session.
func (b *BadgerStore) Delete(_ context.Context, sessionID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(sessionKeyPrefix + sessionID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// CleanupExpired removes all expired sessions. Expired IDs are collected
// in a read pass and deleted one by one, keeping each write transaction
// small.
func (b *BadgerStore) CleanupExpired(ctx context.Context) (int, error) {
	var expired []string

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var state State
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &state)
			})
			if err != nil {
				continue
			}
			if state.IsExpired() {
				expired = append(expired, state.SessionID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	count := 0
	for _, id := range expired {
		if err := b.Delete(ctx, id); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

// Count returns the number of stored sessions, expired included.
func (b *BadgerStore) Count(_ context.Context) (int, error) {
	count := 0

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close releases the database when this store owns it.
func (b *BadgerStore) Close() error {
	if !b.ownsDB {
		return nil
	}
	return b.db.Close()
}
