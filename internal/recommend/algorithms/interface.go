// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/palate/internal/models"
)

// Algorithm is the contract for trainable scoring models. Predictions are
// keyed by business item ID; matrix indices never leave an implementation
// because they are not stable across retrains.
type Algorithm interface {
	// Name returns the algorithm identifier (e.g. "latent").
	Name() string

	// Train fits the model on the full interaction log. Data absence is
	// not an error: a model that cannot be fit from the given log returns
	// nil and simply stays untrained.
	Train(ctx context.Context, interactions []models.Interaction, items []models.MenuItem) error

	// Predict returns scores in [0, 1] for the candidate item IDs, keyed
	// by item ID. A nil map means the model has nothing to say for this
	// user (untrained, or user outside the index); callers fall back to
	// content scoring, they do not treat nil as zero scores.
	Predict(ctx context.Context, userID string, candidates []string) (map[string]float64, error)

	// PredictSimilar returns scores for candidates similar to the given
	// item, with the same nil semantics as Predict.
	PredictSimilar(ctx context.Context, itemID string, candidates []string) (map[string]float64, error)

	// IsTrained reports whether a usable model is loaded.
	IsTrained() bool

	// Version returns the model version, incremented on each successful train.
	Version() int

	// LastTrainedAt returns when the model was last trained.
	LastTrainedAt() time.Time
}

// BaseAlgorithm provides the shared training-state bookkeeping.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

// markUntrained clears the trained state without touching the version,
// so a failed retrain leaves a visible gap in the version sequence.
// Must be called while holding the training lock.
func (b *BaseAlgorithm) markUntrained() {
	b.trained = false
}

// acquireTrainLock acquires the exclusive training lock.
func (b *BaseAlgorithm) acquireTrainLock() {
	b.mu.Lock()
}

// releaseTrainLock releases the exclusive training lock.
func (b *BaseAlgorithm) releaseTrainLock() {
	b.mu.Unlock()
}

// acquirePredictLock acquires the shared prediction lock.
func (b *BaseAlgorithm) acquirePredictLock() {
	b.mu.RLock()
}

// releasePredictLock releases the shared prediction lock.
func (b *BaseAlgorithm) releasePredictLock() {
	b.mu.RUnlock()
}

// Scored pairs an item ID with a score, the unit of every ranked list
// this package produces.
type Scored struct {
	ItemID string
	Score  float64
}

// SortScoredDescending orders by score descending with an item-ID
// lexicographic tie-break, so identical inputs always rank identically.
func SortScoredDescending(scored []Scored) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ItemID < scored[j].ItemID
	})
}

// normalizeScores normalizes scores to [0, 1] using min-max normalization.
// All-equal inputs map to 0.5 so a flat score surface stays distinguishable
// from an absent one.
func normalizeScores(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}

	var minScore, maxScore float64
	first := true
	for _, score := range scores {
		if first {
			minScore, maxScore = score, score
			first = false
			continue
		}
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	rang := maxScore - minScore
	if rang == 0 {
		for id := range scores {
			scores[id] = 0.5
		}
		return scores
	}

	for id, score := range scores {
		scores[id] = (score - minScore) / rang
	}

	return scores
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure the latent model satisfies the interface.
var _ Algorithm = (*LatentFactors)(nil)
