// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// maxErrorBody limits how much of a failed response body is read back
// for error reporting.
const maxErrorBody = 8 * 1024

// HTTPRenderer posts the render input to a remote text-generation
// collaborator and expects {"text": "..."} back. It is meant to run
// behind a FallbackRenderer; on its own it fails like any network
// client.
type HTTPRenderer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRenderer creates a client for the remote renderer endpoint.
// Per-call deadlines come from the caller's context; the breaker
// wrapper applies the configured timeout.
func NewHTTPRenderer(endpoint string) *HTTPRenderer {
	return &HTTPRenderer{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

// renderReply is the remote collaborator's response shape.
type renderReply struct {
	Text string `json:"text"`
}

// Render posts the input and returns the remote prose. An empty reply
// counts as a failure so the breaker sees it.
func (r *HTTPRenderer) Render(ctx context.Context, in *Input) (string, error) {
	if in == nil {
		return "", errNilInput
	}

	body, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode render input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			detail = []byte("(unreadable body)")
		}
		return "", fmt.Errorf("renderer returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var reply renderReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("failed to decode render response: %w", err)
	}

	text := strings.TrimSpace(reply.Text)
	if text == "" {
		return "", fmt.Errorf("renderer returned empty text")
	}
	return text, nil
}
