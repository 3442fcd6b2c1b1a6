// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"github.com/tomtom215/palate/internal/models"
)

// InteractionMatrix is the sparse user-item matrix of implicit feedback.
// Cell (u, i) holds the summed order quantity of user u for item i.
//
// Rows and columns exist only for users and items that appear in the log;
// indices are assigned in order of first appearance. Index assignment is
// stable within one build but not across rebuilds, so nothing outside this
// package may hold an index across a retrain. Resolve by business ID.
type InteractionMatrix struct {
	userIndex map[string]int
	itemIndex map[string]int
	users     []string
	items     []string

	// rows[u] holds the non-zero cells of user u's row, keyed by item index.
	rows []map[int]float64
}

// BuildMatrix aggregates the interaction log into a sparse matrix.
// Interactions with a non-positive quantity or empty IDs are skipped;
// they are boundary-validation escapes, not signal.
func BuildMatrix(interactions []models.Interaction) *InteractionMatrix {
	m := &InteractionMatrix{
		userIndex: make(map[string]int),
		itemIndex: make(map[string]int),
	}

	for _, in := range interactions {
		if in.UserID == "" || in.ItemID == "" || in.Quantity <= 0 {
			continue
		}

		ui, ok := m.userIndex[in.UserID]
		if !ok {
			ui = len(m.users)
			m.userIndex[in.UserID] = ui
			m.users = append(m.users, in.UserID)
			m.rows = append(m.rows, make(map[int]float64))
		}

		ii, ok := m.itemIndex[in.ItemID]
		if !ok {
			ii = len(m.items)
			m.itemIndex[in.ItemID] = ii
			m.items = append(m.items, in.ItemID)
		}

		m.rows[ui][ii] += float64(in.Quantity)
	}

	return m
}

// Empty reports the no-model state: a log with no usable interactions.
// Callers must check this before training instead of factorizing a
// zero-dimension matrix.
func (m *InteractionMatrix) Empty() bool {
	return m == nil || len(m.users) == 0 || len(m.items) == 0
}

// UserCount returns the number of users with at least one interaction.
func (m *InteractionMatrix) UserCount() int {
	return len(m.users)
}

// ItemCount returns the number of items with at least one interaction.
func (m *InteractionMatrix) ItemCount() int {
	return len(m.items)
}

// UserIndexOf returns the row index for a user ID.
func (m *InteractionMatrix) UserIndexOf(userID string) (int, bool) {
	ui, ok := m.userIndex[userID]
	return ui, ok
}

// ItemIndexOf returns the column index for an item ID.
func (m *InteractionMatrix) ItemIndexOf(itemID string) (int, bool) {
	ii, ok := m.itemIndex[itemID]
	return ii, ok
}

// Quantity returns the summed order quantity for a (user, item) pair,
// zero when the pair never interacted.
func (m *InteractionMatrix) Quantity(userID, itemID string) float64 {
	ui, ok := m.userIndex[userID]
	if !ok {
		return 0
	}
	ii, ok := m.itemIndex[itemID]
	if !ok {
		return 0
	}
	return m.rows[ui][ii]
}

// Row returns the non-zero cells of one user row, keyed by item index.
// The returned map is the matrix's own storage; callers must not mutate it.
func (m *InteractionMatrix) Row(ui int) map[int]float64 {
	if ui < 0 || ui >= len(m.rows) {
		return nil
	}
	return m.rows[ui]
}

// UserIDs returns the users in index order. The slice is shared; treat it
// as read-only.
func (m *InteractionMatrix) UserIDs() []string {
	return m.users
}

// ItemIDs returns the items in index order. The slice is shared; treat it
// as read-only.
func (m *InteractionMatrix) ItemIDs() []string {
	return m.items
}
