// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/interpret"
)

type stubRenderer struct {
	text  string
	err   error
	calls int
}

func (s *stubRenderer) Render(_ context.Context, _ *Input) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func breakerConfig() *config.RenderConfig {
	return &config.RenderConfig{
		Timeout:            time.Second,
		BreakerMaxRequests: 1,
		BreakerTimeout:     time.Minute,
		BreakerMaxFailures: 2,
	}
}

func TestFallbackRenderer_TemplateOnly(t *testing.T) {
	r := NewFallbackRenderer(nil, nil, zerolog.Nop())

	got, err := r.Render(context.Background(), &Input{Intent: interpret.IntentGreeting, Language: "en"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Hello! What would you like to eat today?" {
		t.Errorf("Render() = %q, want the template greeting", got)
	}
	if r.State() != "closed" {
		t.Errorf("State() = %q, want closed", r.State())
	}
}

func TestFallbackRenderer_RemoteSuccess(t *testing.T) {
	remote := &stubRenderer{text: "Custom prose."}
	r := NewFallbackRenderer(remote, breakerConfig(), zerolog.Nop())

	got, err := r.Render(context.Background(), &Input{Intent: interpret.IntentGreeting, Language: "en"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Custom prose." {
		t.Errorf("Render() = %q, want remote prose", got)
	}
	if remote.calls != 1 {
		t.Errorf("remote calls = %d, want 1", remote.calls)
	}
}

func TestFallbackRenderer_RemoteFailureFallsBack(t *testing.T) {
	remote := &stubRenderer{err: errors.New("upstream down")}
	r := NewFallbackRenderer(remote, breakerConfig(), zerolog.Nop())

	got, err := r.Render(context.Background(), &Input{Intent: interpret.IntentGreeting, Language: "en"})
	if err != nil {
		t.Fatalf("Render() error = %v, want fallback instead", err)
	}
	if got != "Hello! What would you like to eat today?" {
		t.Errorf("Render() = %q, want the template greeting", got)
	}
}

func TestFallbackRenderer_BreakerOpens(t *testing.T) {
	remote := &stubRenderer{err: errors.New("upstream down")}
	r := NewFallbackRenderer(remote, breakerConfig(), zerolog.Nop())
	in := &Input{Intent: interpret.IntentGeneralQuery, Language: "en"}

	for i := 0; i < 3; i++ {
		got, err := r.Render(context.Background(), in)
		if err != nil {
			t.Fatalf("Render() #%d error = %v", i+1, err)
		}
		if got != "I'm here to help! What would you like to order?" {
			t.Errorf("Render() #%d = %q, want the template fallback", i+1, got)
		}
	}

	// Two failures open the breaker; the third render is rejected
	// without reaching the remote.
	if remote.calls != 2 {
		t.Errorf("remote calls = %d, want 2", remote.calls)
	}
	if r.State() != "open" {
		t.Errorf("State() = %q, want open", r.State())
	}
}

func TestFallbackRenderer_NilInput(t *testing.T) {
	r := NewFallbackRenderer(nil, nil, zerolog.Nop())
	if _, err := r.Render(context.Background(), nil); err == nil {
		t.Error("Render(nil) error = nil, want error")
	}
}
