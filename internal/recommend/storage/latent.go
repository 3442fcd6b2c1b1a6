// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package storage

import (
	"context"
	"fmt"

	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

// LatentModelName is the storage name of the latent factor model.
const LatentModelName = "latent"

// SaveLatent persists a latent model snapshot under its engine version.
// Implements the engine's snapshot persistence hook.
func (s *Store) SaveLatent(state *algorithms.LatentState) error {
	if state == nil {
		return fmt.Errorf("nil latent state")
	}
	return s.Save(context.Background(), LatentModelName, state.Version, state, ModelMetadata{
		TrainedAt: state.TrainedAt,
		Rank:      state.Rank,
		UserCount: len(state.UserIDs),
		ItemCount: len(state.ItemIDs),
	})
}

// LoadLatestLatent returns the newest persisted latent snapshot, or nil
// when none has ever been saved.
func (s *Store) LoadLatestLatent() (*algorithms.LatentState, error) {
	version, ok := s.GetLatestVersion(LatentModelName)
	if !ok {
		return nil, nil
	}

	var state algorithms.LatentState
	if _, err := s.Load(context.Background(), LatentModelName, version, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
