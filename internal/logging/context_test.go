// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	id := GenerateCorrelationID()
	if len(id) != 8 {
		t.Errorf("correlation ID length = %d, want 8", len(id))
	}

	other := GenerateCorrelationID()
	if id == other {
		t.Error("two generated correlation IDs should differ")
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("empty context correlation ID = %q, want empty", got)
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("correlation ID = %q, want %q", got, "abc12345")
	}
}

func TestSessionIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := SessionIDFromContext(ctx); got != "" {
		t.Errorf("empty context session ID = %q, want empty", got)
	}

	ctx = ContextWithSessionID(ctx, "sess-9")
	if got := SessionIDFromContext(ctx); got != "sess-9" {
		t.Errorf("session ID = %q, want %q", got, "sess-9")
	}
}

func TestCtxAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	ctx := ContextWithLogger(context.Background(), logger)
	ctx = ContextWithCorrelationID(ctx, "corr0001")
	ctx = ContextWithSessionID(ctx, "sess-42")

	Ctx(ctx).Info().Msg("turn processed")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"corr0001"`) {
		t.Errorf("missing correlation_id: %s", out)
	}
	if !strings.Contains(out, `"session_id":"sess-42"`) {
		t.Errorf("missing session_id: %s", out)
	}
}

func TestCtxWithoutFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	ctx := ContextWithLogger(context.Background(), logger)

	Ctx(ctx).Info().Msg("bare")

	out := buf.String()
	if strings.Contains(out, "correlation_id") {
		t.Errorf("unexpected correlation_id on bare context: %s", out)
	}
	if strings.Contains(out, "session_id") {
		t.Errorf("unexpected session_id on bare context: %s", out)
	}
}

func TestCtxWithBuilder(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	ctx := ContextWithLogger(context.Background(), logger)
	ctx = ContextWithCorrelationID(ctx, "corr0002")

	custom := CtxWith(ctx).Str("user_id", "u7").Logger()
	custom.Info().Msg("scored")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"corr0002"`) {
		t.Errorf("missing correlation_id: %s", out)
	}
	if !strings.Contains(out, `"user_id":"u7"`) {
		t.Errorf("missing custom field: %s", out)
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	// A context without a stored logger should fall back to the global one
	// rather than panic or return a zero logger.
	logger := LoggerFromContext(context.Background())
	logger.Info().Msg("fallback works")
}
