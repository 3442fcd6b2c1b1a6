// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package render

import (
	"context"

	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

// Input is everything a renderer may draw on for one chat reply. It is
// fully computed before rendering starts; renderers phrase it, they do
// not re-derive or filter anything.
type Input struct {
	// Intent is the classified intent of the message being answered.
	Intent interpret.Intent `json:"intent"`

	// Language selects the reply language, "en" or "ur".
	Language string `json:"language"`

	// UserName is the display name used in greetings. Empty is fine.
	UserName string `json:"user_name,omitempty"`

	// ItemQuery is the extracted search phrase for item-search intents.
	ItemQuery string `json:"item_query,omitempty"`

	// Constraints is the merged profile/override view the lists below
	// were filtered and scored under.
	Constraints algorithms.EffectiveConstraints `json:"constraints"`

	// Conflicts are advisory tensions between the stored profile and
	// the current request. Nothing upstream filtered on them; the
	// renderer surfaces them and asks whether to proceed.
	Conflicts []models.Conflict `json:"conflicts,omitempty"`

	// ReorderItems are historical favorites ranked by order volume.
	ReorderItems []recommend.RecommendedItem `json:"reorder_items,omitempty"`

	// NewItems are ranked recommendations the reorder list does not
	// already cover.
	NewItems []recommend.RecommendedItem `json:"new_items,omitempty"`

	// LoopBreaker reports a stalled conversation. When set, renderers
	// reply with the redirect phrase and ignore every other field.
	LoopBreaker bool `json:"loop_breaker"`
}

// NewInput assembles the render contract from one turn's artifacts.
// rec may be nil when no recommendations were computed for the intent.
func NewInput(res interpret.Result, conflicts []models.Conflict, rec *recommend.Response, userName string) *Input {
	in := &Input{
		Intent:      res.Intent,
		Language:    res.Language,
		UserName:    userName,
		ItemQuery:   res.ItemQuery,
		Conflicts:   conflicts,
		LoopBreaker: res.LoopBreak,
	}
	if rec != nil {
		in.Constraints = rec.Constraints
		in.ReorderItems = rec.ReorderItems
		in.NewItems = rec.NewItems
	}
	return in
}

// Renderer produces the prose reply for one interpreted chat turn.
// Implementations must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, in *Input) (string, error)
}
