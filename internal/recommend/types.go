// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

// ScoredBy tags which scoring path produced a recommended item, so the
// latent-to-content fallback chain stays observable instead of implicit.
type ScoredBy string

const (
	// ScoredByLatent marks items ranked by the latent factor model.
	ScoredByLatent ScoredBy = "latent"
	// ScoredByContent marks items ranked by the content scorer, either as
	// the sole path or as a top-up after latent ranking ran short.
	ScoredByContent ScoredBy = "content"
	// ScoredByHistory marks reorder suggestions, whose score is the
	// summed order quantity rather than a model output.
	ScoredByHistory ScoredBy = "history"
)

// RecommendedItem is one ranked recommendation with its provenance.
// Scores are comparable within one ScoredBy path, not across paths.
type RecommendedItem struct {
	Item     models.MenuItem `json:"item"`
	Score    float64         `json:"score"`
	ScoredBy ScoredBy        `json:"scored_by"`
}

// Request asks for recommendations for one user in the context of one
// interpreted message.
type Request struct {
	// UserID identifies the user; unknown users get the cold-start path.
	UserID string `json:"user_id"`

	// Intent is the classified message intent. Reorder suggestions are
	// produced only for reorder-eligible intents.
	Intent interpret.Intent `json:"intent"`

	// Override carries the request-scoped preference overrides extracted
	// from the message. The zero value means no overrides.
	Override models.QueryOverride `json:"override"`

	// Limit caps new-item recommendations; 0 means the configured default.
	Limit int `json:"limit,omitempty"`

	// ReorderLimit caps reorder suggestions; 0 means the configured default.
	ReorderLimit int `json:"reorder_limit,omitempty"`

	// RequestID correlates logs across the request; generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response carries the two disjoint recommendation lists and the context
// they were computed under.
type Response struct {
	// ReorderItems are the user's historical favorites, ranked by summed
	// order quantity. Empty unless the intent is reorder-eligible and the
	// user has admissible history.
	ReorderItems []RecommendedItem `json:"reorder_items"`

	// NewItems are recommendations the reorder list does not already
	// cover. The two lists never share an item ID.
	NewItems []RecommendedItem `json:"new_items"`

	// Constraints is the merged profile/override view the lists were
	// filtered and scored under; the renderer surfaces it back to the user.
	Constraints algorithms.EffectiveConstraints `json:"constraints"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Intent    string `json:"intent"`

	// LatentUsed reports whether the latent model contributed any scores;
	// false means the response is entirely content-scored.
	LatentUsed bool `json:"latent_used"`

	// TotalCandidates is the admissible pool size before ranking.
	TotalCandidates int `json:"total_candidates"`

	LatencyMS    int64 `json:"latency_ms"`
	CacheHit     bool  `json:"cache_hit"`
	ModelVersion int   `json:"model_version"`
}

// RebuildStatus reports the outcome of a model rebuild.
type RebuildStatus string

const (
	// RebuildTrained means a latent model was fit and swapped in.
	RebuildTrained RebuildStatus = "trained"
	// RebuildContentOnly means the interaction log could not support
	// training (empty, or below the rank floor); the engine serves the
	// content path until data accumulates. This is a successful rebuild.
	RebuildContentOnly RebuildStatus = "content_only"
)

// RebuildResult is the administrative rebuild summary.
type RebuildResult struct {
	Status    RebuildStatus `json:"status"`
	UserCount int           `json:"user_count"`
	ItemCount int           `json:"item_count"`

	// Version is the engine's model version after the swap.
	Version    int   `json:"version"`
	DurationMS int64 `json:"duration_ms"`
}

// Stats is a point-in-time snapshot of engine counters for metrics export.
type Stats struct {
	Requests     int64 `json:"requests"`
	Errors       int64 `json:"errors"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	CacheEntries int   `json:"cache_entries"`
	ModelVersion int   `json:"model_version"`
	LatentReady  bool  `json:"latent_ready"`
}

// countUniqueUsers counts distinct users in an interaction log.
func countUniqueUsers(interactions []models.Interaction) int {
	users := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		if in.UserID != "" {
			users[in.UserID] = struct{}{}
		}
	}
	return len(users)
}

// countUniqueItems counts distinct items in an interaction log.
func countUniqueItems(interactions []models.Interaction) int {
	items := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		if in.ItemID != "" {
			items[in.ItemID] = struct{}{}
		}
	}
	return len(items)
}
