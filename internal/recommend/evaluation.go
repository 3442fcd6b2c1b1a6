// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

// EvalResult summarizes an offline ranking evaluation.
type EvalResult struct {
	K     int `json:"k"`
	Users int `json:"users"` // users the model could be evaluated on

	// PrecisionAtK and RecallAtK are averaged over evaluated users.
	PrecisionAtK float64 `json:"precision_at_k"`
	RecallAtK    float64 `json:"recall_at_k"`

	// Coverage is the share of the catalog that appeared in at least one
	// user's top-k list.
	Coverage float64 `json:"coverage"`
}

// PrecisionAtK is the share of the top-k recommendations that are
// relevant. k beyond the list length divides by k regardless, so short
// lists are penalized rather than excused.
func PrecisionAtK(recommended []string, relevant map[string]struct{}, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}
	return float64(hitsAtK(recommended, relevant, k)) / float64(k)
}

// RecallAtK is the share of relevant items found in the top-k.
func RecallAtK(recommended []string, relevant map[string]struct{}, k int) float64 {
	if k <= 0 || len(relevant) == 0 {
		return 0
	}
	return float64(hitsAtK(recommended, relevant, k)) / float64(len(relevant))
}

func hitsAtK(recommended []string, relevant map[string]struct{}, k int) int {
	if k > len(recommended) {
		k = len(recommended)
	}
	hits := 0
	for _, id := range recommended[:k] {
		if _, ok := relevant[id]; ok {
			hits++
		}
	}
	return hits
}

// SplitHoldout separates each user's most recent interaction into a
// holdout set for offline evaluation. Users with a single interaction
// stay entirely in the training split so the model still covers them.
// Both splits preserve the input order.
func SplitHoldout(interactions []models.Interaction) (train, holdout []models.Interaction) {
	counts := make(map[string]int, len(interactions))
	latest := make(map[string]int, len(interactions))
	for i, in := range interactions {
		if in.UserID == "" {
			continue
		}
		counts[in.UserID]++
		// >= keeps the later log position on equal timestamps.
		if prev, ok := latest[in.UserID]; !ok || !interactions[i].OrderedAt.Before(interactions[prev].OrderedAt) {
			latest[in.UserID] = i
		}
	}

	heldOut := make(map[int]struct{}, len(latest))
	for userID, idx := range latest {
		if counts[userID] >= 2 {
			heldOut[idx] = struct{}{}
		}
	}

	train = make([]models.Interaction, 0, len(interactions)-len(heldOut))
	holdout = make([]models.Interaction, 0, len(heldOut))
	for i, in := range interactions {
		if _, held := heldOut[i]; held {
			holdout = append(holdout, in)
		} else {
			train = append(train, in)
		}
	}
	return train, holdout
}

// EvaluateOffline measures the engine's ranking quality on a per-user
// holdout split of the current interaction log. A side model is trained
// on the training split with the engine's own hyperparameters; the
// active model is never touched. A log too small to hold anything out
// (or to train on) yields a zero result, not an error.
func (e *Engine) EvaluateOffline(ctx context.Context, k int) (*EvalResult, error) {
	interactions, err := e.stores.Log.AllInteractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	train, holdout := SplitHoldout(interactions)
	if len(holdout) == 0 {
		return &EvalResult{K: k}, nil
	}

	side := algorithms.NewLatentFactors(e.latentConfig())
	if err := side.Train(ctx, train, nil); err != nil {
		return nil, fmt.Errorf("train evaluation model: %w", err)
	}

	result := Evaluate(side, train, holdout, 0, k)
	return &result, nil
}

// Evaluate measures top-k ranking quality of a trained model against
// held-out interactions. Each user's training items are excluded from
// their candidate ranking so the model is scored on what it predicts,
// not on what it memorized. Users outside the model index are skipped
// and not counted.
func Evaluate(model *algorithms.LatentFactors, train, holdout []models.Interaction, catalogSize, k int) EvalResult {
	result := EvalResult{K: k}
	if model == nil || !model.IsTrained() || k <= 0 || len(holdout) == 0 {
		return result
	}

	state := model.ExportState()
	if state == nil {
		return result
	}
	candidates := state.ItemIDs

	trainItems := make(map[string]map[string]struct{})
	for _, in := range train {
		if trainItems[in.UserID] == nil {
			trainItems[in.UserID] = make(map[string]struct{})
		}
		trainItems[in.UserID][in.ItemID] = struct{}{}
	}

	relevant := make(map[string]map[string]struct{})
	for _, in := range holdout {
		if relevant[in.UserID] == nil {
			relevant[in.UserID] = make(map[string]struct{})
		}
		relevant[in.UserID][in.ItemID] = struct{}{}
	}

	userIDs := make([]string, 0, len(relevant))
	for userID := range relevant {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	recommendedEver := make(map[string]struct{})
	var precisionSum, recallSum float64
	for _, userID := range userIDs {
		if !model.HasUser(userID) {
			continue
		}

		ranked := model.RankCandidates(userID, candidates, trainItems[userID])
		topK := make([]string, 0, k)
		for _, s := range ranked {
			if len(topK) >= k {
				break
			}
			topK = append(topK, s.ItemID)
			recommendedEver[s.ItemID] = struct{}{}
		}

		precisionSum += PrecisionAtK(topK, relevant[userID], k)
		recallSum += RecallAtK(topK, relevant[userID], k)
		result.Users++
	}

	if result.Users > 0 {
		result.PrecisionAtK = precisionSum / float64(result.Users)
		result.RecallAtK = recallSum / float64(result.Users)
	}
	if catalogSize <= 0 {
		catalogSize = len(candidates)
	}
	if catalogSize > 0 {
		result.Coverage = float64(len(recommendedEver)) / float64(catalogSize)
	}
	return result
}
