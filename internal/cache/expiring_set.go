// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package cache

import (
	"sync"
	"time"
)

// ExpiringSet is a thread-safe set of keys with LRU eviction and a TTL.
// Membership lapses when a key expires or when capacity pushes it out,
// which is exactly the contract event deduplication needs: a key seen
// inside the window is a duplicate, one outside it is new again.
//
// A doubly-linked list keeps recency order and a map gives O(1) lookup,
// so Seen, Contains, and eviction are all constant time.
type ExpiringSet struct {
	mu sync.RWMutex

	capacity int
	ttl      time.Duration

	entries map[string]*setEntry

	// head.next is most recent, tail.prev is least recent.
	head *setEntry
	tail *setEntry
}

type setEntry struct {
	key       string
	expiresAt time.Time
	prev      *setEntry
	next      *setEntry
}

const (
	defaultSetCapacity = 10000
	defaultSetTTL      = 5 * time.Minute
)

// NewExpiringSet creates a set holding at most capacity keys, each for
// at most ttl. Non-positive arguments fall back to defaults.
func NewExpiringSet(capacity int, ttl time.Duration) *ExpiringSet {
	if capacity <= 0 {
		capacity = defaultSetCapacity
	}
	if ttl <= 0 {
		ttl = defaultSetTTL
	}

	s := &ExpiringSet{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*setEntry, capacity),
		head:     &setEntry{},
		tail:     &setEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Seen reports whether the key is already present and unexpired, and
// records it when it is not. A true return means duplicate.
func (s *ExpiringSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, ok := s.entries[key]; ok {
		if now.Before(e.expiresAt) {
			s.moveToFront(e)
			return true
		}
		s.remove(e)
	}

	e := &setEntry{key: key, expiresAt: now.Add(s.ttl)}
	s.pushFront(e)
	s.entries[key] = e

	for len(s.entries) > s.capacity {
		s.remove(s.tail.prev)
	}
	return false
}

// Contains reports unexpired membership without recording the key or
// touching recency order.
func (s *ExpiringSet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return ok && time.Now().Before(e.expiresAt)
}

// Len returns the number of resident keys, expired ones included until
// they are lazily removed.
func (s *ExpiringSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear empties the set.
func (s *ExpiringSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*setEntry, s.capacity)
	s.head.next = s.tail
	s.tail.prev = s.head
}

func (s *ExpiringSet) pushFront(e *setEntry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

func (s *ExpiringSet) moveToFront(e *setEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	s.pushFront(e)
}

func (s *ExpiringSet) remove(e *setEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(s.entries, e.key)
}
