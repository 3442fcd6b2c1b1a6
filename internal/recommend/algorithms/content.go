// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"strings"

	"github.com/tomtom215/palate/internal/models"
)

// EffectiveConstraints is the merged view of a stored profile and a
// request's overrides: each field holds the override when one is present,
// the profile value otherwise. This is the only preference shape the
// scoring paths ever see; they never look at profiles or overrides
// directly.
type EffectiveConstraints struct {
	// Cuisines is the effective favorite-cuisine set. A cuisine override
	// replaces the profile set wholesale, it does not merge.
	Cuisines []string `json:"cuisines,omitempty"`

	// Dietary is the union of profile restrictions and dietary overrides.
	// Restrictions are hard filters; they are listed here so the scorer
	// can award the explicit-preference bonus.
	Dietary []models.Dietary `json:"dietary,omitempty"`

	// Spice is the effective spice preference.
	Spice models.SpiceLevel `json:"spice"`

	// ItemType narrows the candidate pool when set; empty means any.
	ItemType models.ItemType `json:"item_type,omitempty"`
}

// CuisineMatch reports whether the cuisine is in the effective set,
// case-insensitively.
func (c *EffectiveConstraints) CuisineMatch(cuisine string) bool {
	if cuisine == "" {
		return false
	}
	for _, want := range c.Cuisines {
		if strings.EqualFold(want, cuisine) {
			return true
		}
	}
	return false
}

// TasteHistory is the per-user frequency view of past orders, weighted by
// recency: the i-th most recent interaction contributes quantity * decay^i.
// A zero-valued TasteHistory is valid and means "no history".
type TasteHistory struct {
	// CategoryFreq maps lowercased catalog categories to decayed weight.
	CategoryFreq map[string]float64

	// CuisineFreq maps lowercased cuisines to decayed weight.
	CuisineFreq map[string]float64

	// SpiceFreq maps spice levels to decayed weight.
	SpiceFreq map[models.SpiceLevel]float64
}

// HistoryDecay is the per-step recency decay applied when folding the
// order history into frequency maps.
const HistoryDecay = 0.95

// BuildTasteHistory folds an order history into decayed frequency maps.
// The history must be ordered most recent first; items missing from the
// lookup map contribute nothing.
func BuildTasteHistory(history []models.Interaction, items map[string]models.MenuItem) TasteHistory {
	taste := TasteHistory{
		CategoryFreq: make(map[string]float64),
		CuisineFreq:  make(map[string]float64),
		SpiceFreq:    make(map[models.SpiceLevel]float64),
	}

	weight := 1.0
	for _, in := range history {
		item, ok := items[in.ItemID]
		if ok && in.Quantity > 0 {
			w := weight * float64(in.Quantity)
			if category := strings.ToLower(strings.TrimSpace(item.Category)); category != "" {
				taste.CategoryFreq[category] += w
			}
			if cuisine := strings.ToLower(strings.TrimSpace(item.Cuisine)); cuisine != "" {
				taste.CuisineFreq[cuisine] += w
			}
			if item.SpiceLevel.Valid() {
				taste.SpiceFreq[item.SpiceLevel] += w
			}
		}
		weight *= HistoryDecay
	}

	return taste
}

// OrderedCuisine reports whether the user's history contains the cuisine.
func (t *TasteHistory) OrderedCuisine(cuisine string) bool {
	if t.CuisineFreq == nil {
		return false
	}
	_, ok := t.CuisineFreq[strings.ToLower(strings.TrimSpace(cuisine))]
	return ok
}

// ContentConfig holds the scoring weights and caps. Every term is capped
// so no single signal can dominate the additive total.
type ContentConfig struct {
	// PopularityWeight scales popularity_score in the base term.
	PopularityWeight float64
	// PopularityCap bounds the popularity contribution.
	PopularityCap float64
	// RatingWeight scales average_rating in the base term.
	RatingWeight float64
	// OrderCountDivisor converts lifetime orders into score points.
	OrderCountDivisor float64
	// OrderCountCap bounds the order-count contribution.
	OrderCountCap float64

	// CuisineFavoriteBonus is awarded when the item's cuisine is in the
	// effective favorite set.
	CuisineFavoriteBonus float64
	// CuisineHistoryBonus is awarded when the user has ordered this
	// cuisine before.
	CuisineHistoryBonus float64

	// SpiceExactBonus is awarded on an exact spice-preference match,
	// SpiceAdjacentBonus on a one-step-adjacent level.
	SpiceExactBonus    float64
	SpiceAdjacentBonus float64
	// SpiceMismatchPenalty is subtracted from opposite-extreme items, but
	// only when the pool already holds enough better candidates; see
	// RankCandidates.
	SpiceMismatchPenalty float64

	// CategoryAffinityWeight scales the decayed category frequency,
	// capped at CategoryAffinityCap.
	CategoryAffinityWeight float64
	CategoryAffinityCap    float64
	// SpiceAffinityWeight scales the decayed spice-level frequency,
	// capped at SpiceAffinityCap.
	SpiceAffinityWeight float64
	SpiceAffinityCap    float64

	// DietaryBonus is awarded per stated restriction the item explicitly
	// satisfies. Items with unknown halal data pass the filter but do not
	// earn the halal bonus.
	DietaryBonus float64
}

// DefaultContentConfig returns the default scoring weights.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		PopularityWeight:  2.0,
		PopularityCap:     20.0,
		RatingWeight:      0.5,
		OrderCountDivisor: 100.0,
		OrderCountCap:     10.0,

		CuisineFavoriteBonus: 15.0,
		CuisineHistoryBonus:  10.0,

		SpiceExactBonus:      10.0,
		SpiceAdjacentBonus:   5.0,
		SpiceMismatchPenalty: 10.0,

		CategoryAffinityWeight: 0.8,
		CategoryAffinityCap:    8.0,
		SpiceAffinityWeight:    0.3,
		SpiceAffinityCap:       3.0,

		DietaryBonus: 5.0,
	}
}

// ContentScorer produces rule-based scores from catalog attributes and
// user preference signals. It never filters: dietary admissibility is
// settled before scoring, and the spice penalty only reorders.
type ContentScorer struct {
	config ContentConfig
}

// NewContentScorer creates a content scorer with the given weights.
// Zero-valued weights are replaced by defaults.
func NewContentScorer(cfg ContentConfig) *ContentScorer {
	def := DefaultContentConfig()
	if cfg.PopularityWeight <= 0 {
		cfg.PopularityWeight = def.PopularityWeight
	}
	if cfg.PopularityCap <= 0 {
		cfg.PopularityCap = def.PopularityCap
	}
	if cfg.RatingWeight <= 0 {
		cfg.RatingWeight = def.RatingWeight
	}
	if cfg.OrderCountDivisor <= 0 {
		cfg.OrderCountDivisor = def.OrderCountDivisor
	}
	if cfg.OrderCountCap <= 0 {
		cfg.OrderCountCap = def.OrderCountCap
	}
	if cfg.CuisineFavoriteBonus <= 0 {
		cfg.CuisineFavoriteBonus = def.CuisineFavoriteBonus
	}
	if cfg.CuisineHistoryBonus <= 0 {
		cfg.CuisineHistoryBonus = def.CuisineHistoryBonus
	}
	if cfg.SpiceExactBonus <= 0 {
		cfg.SpiceExactBonus = def.SpiceExactBonus
	}
	if cfg.SpiceAdjacentBonus <= 0 {
		cfg.SpiceAdjacentBonus = def.SpiceAdjacentBonus
	}
	if cfg.SpiceMismatchPenalty <= 0 {
		cfg.SpiceMismatchPenalty = def.SpiceMismatchPenalty
	}
	if cfg.CategoryAffinityWeight <= 0 {
		cfg.CategoryAffinityWeight = def.CategoryAffinityWeight
	}
	if cfg.CategoryAffinityCap <= 0 {
		cfg.CategoryAffinityCap = def.CategoryAffinityCap
	}
	if cfg.SpiceAffinityWeight <= 0 {
		cfg.SpiceAffinityWeight = def.SpiceAffinityWeight
	}
	if cfg.SpiceAffinityCap <= 0 {
		cfg.SpiceAffinityCap = def.SpiceAffinityCap
	}
	if cfg.DietaryBonus <= 0 {
		cfg.DietaryBonus = def.DietaryBonus
	}

	return &ContentScorer{config: cfg}
}

// Score computes the additive content score for one item. The result is
// non-negative; the opposite-extreme spice penalty is not part of Score
// because it depends on the surrounding pool (see RankCandidates).
func (s *ContentScorer) Score(item *models.MenuItem, constraints EffectiveConstraints, taste TasteHistory) float64 {
	score := s.baseTerm(item)
	score += s.cuisineTerm(item, constraints, taste)
	score += s.spiceTerm(item, constraints)
	score += s.affinityTerms(item, taste)
	score += s.dietaryTerm(item, constraints)
	return score
}

// baseTerm is the popularity/rating component, monotonic in both inputs.
func (s *ContentScorer) baseTerm(item *models.MenuItem) float64 {
	popularity := item.PopularityScore * s.config.PopularityWeight
	if popularity > s.config.PopularityCap {
		popularity = s.config.PopularityCap
	}

	orders := float64(item.OrderCount) / s.config.OrderCountDivisor
	if orders > s.config.OrderCountCap {
		orders = s.config.OrderCountCap
	}

	return popularity + item.AverageRating*s.config.RatingWeight + orders
}

func (s *ContentScorer) cuisineTerm(item *models.MenuItem, constraints EffectiveConstraints, taste TasteHistory) float64 {
	var bonus float64
	if constraints.CuisineMatch(item.Cuisine) {
		bonus += s.config.CuisineFavoriteBonus
	}
	if taste.OrderedCuisine(item.Cuisine) {
		bonus += s.config.CuisineHistoryBonus
	}
	return bonus
}

func (s *ContentScorer) spiceTerm(item *models.MenuItem, constraints EffectiveConstraints) float64 {
	if !constraints.Spice.Valid() || !item.SpiceLevel.Valid() {
		return 0
	}
	switch item.SpiceLevel.Distance(constraints.Spice) {
	case 0:
		return s.config.SpiceExactBonus
	case 1:
		return s.config.SpiceAdjacentBonus
	default:
		return 0
	}
}

func (s *ContentScorer) affinityTerms(item *models.MenuItem, taste TasteHistory) float64 {
	var affinity float64
	if category := strings.ToLower(strings.TrimSpace(item.Category)); category != "" {
		a := taste.CategoryFreq[category] * s.config.CategoryAffinityWeight
		if a > s.config.CategoryAffinityCap {
			a = s.config.CategoryAffinityCap
		}
		affinity += a
	}
	if item.SpiceLevel.Valid() {
		a := taste.SpiceFreq[item.SpiceLevel] * s.config.SpiceAffinityWeight
		if a > s.config.SpiceAffinityCap {
			a = s.config.SpiceAffinityCap
		}
		affinity += a
	}
	return affinity
}

// dietaryTerm awards the bonus per stated restriction the item
// explicitly satisfies. The halal bonus requires declared halal data.
func (s *ContentScorer) dietaryTerm(item *models.MenuItem, constraints EffectiveConstraints) float64 {
	var bonus float64
	for _, d := range constraints.Dietary {
		switch d {
		case models.DietVegetarian:
			if item.IsVegetarian {
				bonus += s.config.DietaryBonus
			}
		case models.DietVegan:
			if item.IsVegan {
				bonus += s.config.DietaryBonus
			}
		case models.DietHalal:
			if item.IsHalal != nil && *item.IsHalal {
				bonus += s.config.DietaryBonus
			}
		}
	}
	return bonus
}

// RankCandidates scores and orders the candidate items, best first, with
// the lexicographic item-ID tie-break.
//
// Items whose spice level sits at the opposite extreme of the effective
// preference take the mismatch penalty only when at least limit
// candidates already outscore them before any penalty. In a thin pool
// they keep their unpenalized score, so the penalty demotes mismatched
// items without ever starving the result list. limit <= 0 disables the
// penalty.
func (s *ContentScorer) RankCandidates(items []models.MenuItem, constraints EffectiveConstraints, taste TasteHistory, limit int) []Scored {
	if len(items) == 0 {
		return nil
	}

	scored := make([]Scored, len(items))
	mismatched := make([]bool, len(items))
	for i := range items {
		scored[i] = Scored{ItemID: items[i].ID, Score: s.Score(&items[i], constraints, taste)}
		mismatched[i] = constraints.Spice.OppositeExtreme(items[i].SpiceLevel)
	}

	if limit > 0 {
		s.applySpicePenalties(scored, mismatched, limit)
	}

	SortScoredDescending(scored)
	return scored
}

// applySpicePenalties subtracts the mismatch penalty from each flagged
// item that already has at least limit strictly better candidates,
// judged on pre-penalty scores. Scores are clamped at zero to stay
// non-negative.
func (s *ContentScorer) applySpicePenalties(scored []Scored, mismatched []bool, limit int) {
	prePenalty := make([]float64, len(scored))
	for i := range scored {
		prePenalty[i] = scored[i].Score
	}

	for i := range scored {
		if !mismatched[i] {
			continue
		}
		better := 0
		for j := range prePenalty {
			if j != i && prePenalty[j] > prePenalty[i] {
				better++
				if better >= limit {
					break
				}
			}
		}
		if better >= limit {
			scored[i].Score -= s.config.SpiceMismatchPenalty
			if scored[i].Score < 0 {
				scored[i].Score = 0
			}
		}
	}
}
