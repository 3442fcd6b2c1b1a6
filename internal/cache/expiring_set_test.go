// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestExpiringSet_Seen(t *testing.T) {
	s := NewExpiringSet(10, time.Minute)

	if s.Seen("evt-1") {
		t.Error("Seen(first) = true, want false")
	}
	if !s.Seen("evt-1") {
		t.Error("Seen(second) = false, want true")
	}
	if s.Seen("evt-2") {
		t.Error("Seen(other key) = true, want false")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestExpiringSet_TTL(t *testing.T) {
	s := NewExpiringSet(10, 15*time.Millisecond)

	if s.Seen("evt-1") {
		t.Fatal("Seen(first) = true, want false")
	}
	if !s.Contains("evt-1") {
		t.Error("Contains() = false right after insert")
	}

	time.Sleep(30 * time.Millisecond)

	if s.Contains("evt-1") {
		t.Error("Contains() = true after TTL")
	}
	if s.Seen("evt-1") {
		t.Error("Seen() = true after TTL, want false (key is new again)")
	}
}

func TestExpiringSet_CapacityEviction(t *testing.T) {
	s := NewExpiringSet(3, time.Minute)

	for i := 1; i <= 4; i++ {
		s.Seen(fmt.Sprintf("evt-%d", i))
	}

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	// evt-1 was least recently used and must be gone.
	if s.Contains("evt-1") {
		t.Error("Contains(evt-1) = true, want evicted")
	}
	if !s.Contains("evt-4") {
		t.Error("Contains(evt-4) = false, want present")
	}
}

func TestExpiringSet_RecencyOrder(t *testing.T) {
	s := NewExpiringSet(2, time.Minute)

	s.Seen("evt-1")
	s.Seen("evt-2")
	// Touch evt-1 so evt-2 becomes the eviction candidate.
	s.Seen("evt-1")
	s.Seen("evt-3")

	if s.Contains("evt-2") {
		t.Error("Contains(evt-2) = true, want evicted")
	}
	if !s.Contains("evt-1") || !s.Contains("evt-3") {
		t.Error("expected evt-1 and evt-3 to survive")
	}
}

func TestExpiringSet_Clear(t *testing.T) {
	s := NewExpiringSet(10, time.Minute)
	s.Seen("evt-1")
	s.Seen("evt-2")

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", s.Len())
	}
	if s.Seen("evt-1") {
		t.Error("Seen() = true after Clear")
	}
}

func TestExpiringSet_ConcurrentAccess(t *testing.T) {
	s := NewExpiringSet(100, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Seen(fmt.Sprintf("evt-%d-%d", g, i%50))
				s.Contains(fmt.Sprintf("evt-%d-%d", g, i%50))
			}
		}(g)
	}
	wg.Wait()

	if s.Len() > 100 {
		t.Errorf("Len() = %d, want <= capacity", s.Len())
	}
}
