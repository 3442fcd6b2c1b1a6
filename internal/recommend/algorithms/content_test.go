// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package algorithms

import (
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/palate/internal/models"
)

func TestBuildTasteHistory(t *testing.T) {
	items := map[string]models.MenuItem{
		"item-biryani": {
			ID:         "item-biryani",
			Cuisine:    "Pakistani",
			Category:   "Main Course",
			SpiceLevel: models.SpiceHot,
		},
		"item-chowmein": {
			ID:         "item-chowmein",
			Cuisine:    "Chinese",
			Category:   "Noodles",
			SpiceLevel: models.SpiceMedium,
		},
	}

	// Most recent first. The unknown item and the zero-quantity row
	// contribute nothing but still advance the decay position.
	history := []models.Interaction{
		{ItemID: "item-biryani", Quantity: 2},
		{ItemID: "item-retired", Quantity: 3},
		{ItemID: "item-chowmein", Quantity: 1},
		{ItemID: "item-biryani", Quantity: 1},
		{ItemID: "item-chowmein", Quantity: 0},
	}

	taste := BuildTasteHistory(history, items)

	wantBiryani := 2.0 + math.Pow(HistoryDecay, 3)
	wantChowmein := math.Pow(HistoryDecay, 2)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"cuisine pakistani", taste.CuisineFreq["pakistani"], wantBiryani},
		{"cuisine chinese", taste.CuisineFreq["chinese"], wantChowmein},
		{"category main course", taste.CategoryFreq["main course"], wantBiryani},
		{"category noodles", taste.CategoryFreq["noodles"], wantChowmein},
		{"spice hot", taste.SpiceFreq[models.SpiceHot], wantBiryani},
		{"spice medium", taste.SpiceFreq[models.SpiceMedium], wantChowmein},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %f, want %f", c.name, c.got, c.want)
		}
	}

	if !taste.OrderedCuisine("PAKISTANI") {
		t.Error("OrderedCuisine(PAKISTANI) = false, want case-insensitive true")
	}
	if taste.OrderedCuisine("Italian") {
		t.Error("OrderedCuisine(Italian) = true, want false")
	}
}

func TestBuildTasteHistoryEmpty(t *testing.T) {
	taste := BuildTasteHistory(nil, nil)
	if len(taste.CuisineFreq) != 0 || len(taste.CategoryFreq) != 0 || len(taste.SpiceFreq) != 0 {
		t.Errorf("BuildTasteHistory(nil, nil) = %+v, want empty maps", taste)
	}

	var zero TasteHistory
	if zero.OrderedCuisine("Pakistani") {
		t.Error("OrderedCuisine() = true on zero-valued history")
	}
}

func TestNewContentScorerDefaults(t *testing.T) {
	s := NewContentScorer(ContentConfig{})
	def := DefaultContentConfig()
	if !reflect.DeepEqual(s.config, def) {
		t.Errorf("zero config = %+v, want defaults %+v", s.config, def)
	}

	s = NewContentScorer(ContentConfig{CuisineFavoriteBonus: 30})
	if s.config.CuisineFavoriteBonus != 30 {
		t.Errorf("CuisineFavoriteBonus = %f, want 30", s.config.CuisineFavoriteBonus)
	}
	if s.config.SpiceExactBonus != def.SpiceExactBonus {
		t.Errorf("SpiceExactBonus = %f, want default %f", s.config.SpiceExactBonus, def.SpiceExactBonus)
	}
}

func TestContentScorer_Score(t *testing.T) {
	yes := true

	tests := []struct {
		name        string
		item        models.MenuItem
		constraints EffectiveConstraints
		taste       TasteHistory
		want        float64
	}{
		{
			name: "base term from popularity rating and orders",
			item: models.MenuItem{
				ID:              "item-1",
				PopularityScore: 3.0,
				AverageRating:   4.0,
				OrderCount:      250,
			},
			want: 6.0 + 2.0 + 2.5,
		},
		{
			name: "caps bound every base contribution",
			item: models.MenuItem{
				ID:              "item-1",
				PopularityScore: 15.0,
				AverageRating:   5.0,
				OrderCount:      5000,
			},
			want: 20.0 + 2.5 + 10.0,
		},
		{
			name: "favorite cuisine matches case insensitively",
			item: models.MenuItem{ID: "item-1", Cuisine: "Pakistani", PopularityScore: 1.0},
			constraints: EffectiveConstraints{
				Cuisines: []string{"pakistani"},
			},
			want: 2.0 + 15.0,
		},
		{
			name: "previously ordered cuisine earns the history bonus",
			item: models.MenuItem{ID: "item-1", Cuisine: "Pakistani", PopularityScore: 1.0},
			taste: TasteHistory{
				CuisineFreq: map[string]float64{"pakistani": 1.5},
			},
			want: 2.0 + 10.0,
		},
		{
			name: "favorite and history cuisine bonuses stack",
			item: models.MenuItem{ID: "item-1", Cuisine: "Pakistani", PopularityScore: 1.0},
			constraints: EffectiveConstraints{
				Cuisines: []string{"Pakistani"},
			},
			taste: TasteHistory{
				CuisineFreq: map[string]float64{"pakistani": 1.5},
			},
			want: 2.0 + 15.0 + 10.0,
		},
		{
			name:        "exact spice match",
			item:        models.MenuItem{ID: "item-1", SpiceLevel: models.SpiceHot, PopularityScore: 1.0},
			constraints: EffectiveConstraints{Spice: models.SpiceHot},
			want:        2.0 + 10.0,
		},
		{
			name:        "adjacent spice level",
			item:        models.MenuItem{ID: "item-1", SpiceLevel: models.SpiceVeryHot, PopularityScore: 1.0},
			constraints: EffectiveConstraints{Spice: models.SpiceHot},
			want:        2.0 + 5.0,
		},
		{
			name:        "distant spice earns nothing in scoring",
			item:        models.MenuItem{ID: "item-1", SpiceLevel: models.SpiceHot, PopularityScore: 1.0},
			constraints: EffectiveConstraints{Spice: models.SpiceMild},
			want:        2.0,
		},
		{
			name: "dietary bonus needs explicit satisfaction",
			item: models.MenuItem{
				ID:              "item-1",
				PopularityScore: 1.0,
				IsVegetarian:    true,
				IsHalal:         nil,
			},
			constraints: EffectiveConstraints{
				Dietary: []models.Dietary{models.DietVegetarian, models.DietHalal},
			},
			want: 2.0 + 5.0,
		},
		{
			name: "declared halal earns the bonus",
			item: models.MenuItem{
				ID:              "item-1",
				PopularityScore: 1.0,
				IsVegetarian:    true,
				IsHalal:         &yes,
			},
			constraints: EffectiveConstraints{
				Dietary: []models.Dietary{models.DietVegetarian, models.DietHalal},
			},
			want: 2.0 + 5.0 + 5.0,
		},
		{
			name: "affinity terms are independently capped",
			item: models.MenuItem{
				ID:         "item-1",
				Category:   "Main Course",
				SpiceLevel: models.SpiceHot,
			},
			taste: TasteHistory{
				CategoryFreq: map[string]float64{"main course": 20.0},
				SpiceFreq:    map[models.SpiceLevel]float64{models.SpiceHot: 20.0},
			},
			want: 8.0 + 3.0,
		},
		{
			name: "small affinities stay under the caps",
			item: models.MenuItem{
				ID:         "item-1",
				Category:   "Main Course",
				SpiceLevel: models.SpiceHot,
			},
			taste: TasteHistory{
				CategoryFreq: map[string]float64{"main course": 5.0},
				SpiceFreq:    map[models.SpiceLevel]float64{models.SpiceHot: 5.0},
			},
			want: 4.0 + 1.5,
		},
	}

	s := NewContentScorer(ContentConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(&tt.item, tt.constraints, tt.taste)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %f, want %f", got, tt.want)
			}
			if got < 0 {
				t.Errorf("Score() = %f, want non-negative", got)
			}
		})
	}
}

// penaltyPool is four well-matched mild items and one very hot outlier
// for a mild spice preference.
func penaltyPool() []models.MenuItem {
	return []models.MenuItem{
		{ID: "item-mild-a", SpiceLevel: models.SpiceMild, PopularityScore: 10},
		{ID: "item-mild-b", SpiceLevel: models.SpiceMild, PopularityScore: 9},
		{ID: "item-mild-c", SpiceLevel: models.SpiceMild, PopularityScore: 8},
		{ID: "item-mild-d", SpiceLevel: models.SpiceMild, PopularityScore: 7},
		{ID: "item-fire", SpiceLevel: models.SpiceVeryHot, PopularityScore: 2},
	}
}

func TestContentScorer_RankCandidates(t *testing.T) {
	s := NewContentScorer(ContentConfig{})
	mildPref := EffectiveConstraints{Spice: models.SpiceMild}

	t.Run("deep pool penalizes the opposite extreme", func(t *testing.T) {
		got := s.RankCandidates(penaltyPool(), mildPref, TasteHistory{}, 3)
		want := []Scored{
			{ItemID: "item-mild-a", Score: 30},
			{ItemID: "item-mild-b", Score: 28},
			{ItemID: "item-mild-c", Score: 26},
			{ItemID: "item-mild-d", Score: 24},
			{ItemID: "item-fire", Score: 0},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("RankCandidates() = %v, want %v", got, want)
		}
	})

	t.Run("penalty never removes the item", func(t *testing.T) {
		got := s.RankCandidates(penaltyPool(), mildPref, TasteHistory{}, 3)
		if len(got) != len(penaltyPool()) {
			t.Fatalf("RankCandidates() returned %d items, want %d", len(got), len(penaltyPool()))
		}
	})

	t.Run("shallow pool keeps the mismatch unpenalized", func(t *testing.T) {
		pool := []models.MenuItem{
			{ID: "item-fire", SpiceLevel: models.SpiceVeryHot, PopularityScore: 2},
			{ID: "item-mild-a", SpiceLevel: models.SpiceMild, PopularityScore: 10},
		}
		got := s.RankCandidates(pool, mildPref, TasteHistory{}, 3)
		want := []Scored{
			{ItemID: "item-mild-a", Score: 30},
			{ItemID: "item-fire", Score: 4},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("RankCandidates() = %v, want %v", got, want)
		}
	})

	t.Run("limit beyond pool depth skips the penalty", func(t *testing.T) {
		got := s.RankCandidates(penaltyPool(), mildPref, TasteHistory{}, 10)
		if got[len(got)-1].ItemID != "item-fire" {
			t.Fatalf("last = %q, want item-fire", got[len(got)-1].ItemID)
		}
		if got[len(got)-1].Score != 4 {
			t.Errorf("item-fire score = %f, want unpenalized 4", got[len(got)-1].Score)
		}
	})

	t.Run("non-positive limit disables the penalty", func(t *testing.T) {
		got := s.RankCandidates(penaltyPool(), mildPref, TasteHistory{}, 0)
		if got[len(got)-1].Score != 4 {
			t.Errorf("item-fire score = %f, want unpenalized 4", got[len(got)-1].Score)
		}
	})

	t.Run("mismatch is symmetric across the scale", func(t *testing.T) {
		pool := []models.MenuItem{
			{ID: "item-hot-a", SpiceLevel: models.SpiceVeryHot, PopularityScore: 10},
			{ID: "item-hot-b", SpiceLevel: models.SpiceVeryHot, PopularityScore: 9},
			{ID: "item-cool", SpiceLevel: models.SpiceMild, PopularityScore: 2},
		}
		got := s.RankCandidates(pool, EffectiveConstraints{Spice: models.SpiceVeryHot}, TasteHistory{}, 2)
		if got[len(got)-1].ItemID != "item-cool" {
			t.Fatalf("last = %q, want item-cool", got[len(got)-1].ItemID)
		}
		if got[len(got)-1].Score != 0 {
			t.Errorf("item-cool score = %f, want penalized to 0", got[len(got)-1].Score)
		}
	})

	t.Run("ties break lexicographically", func(t *testing.T) {
		pool := []models.MenuItem{
			{ID: "item-twin-b", SpiceLevel: models.SpiceMild, PopularityScore: 5},
			{ID: "item-twin-a", SpiceLevel: models.SpiceMild, PopularityScore: 5},
		}
		got := s.RankCandidates(pool, mildPref, TasteHistory{}, 5)
		want := []Scored{
			{ItemID: "item-twin-a", Score: 20},
			{ItemID: "item-twin-b", Score: 20},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("RankCandidates() = %v, want %v", got, want)
		}
	})

	t.Run("empty pool returns nil", func(t *testing.T) {
		if got := s.RankCandidates(nil, mildPref, TasteHistory{}, 5); got != nil {
			t.Errorf("RankCandidates(nil) = %v, want nil", got)
		}
	})
}

func TestContentScorer_ColdStartFallsBackToPopularity(t *testing.T) {
	s := NewContentScorer(ContentConfig{})
	pool := []models.MenuItem{
		{ID: "item-low", PopularityScore: 1.0, AverageRating: 3.0},
		{ID: "item-high", PopularityScore: 3.0, AverageRating: 4.5},
		{ID: "item-mid", PopularityScore: 2.0, AverageRating: 4.0},
	}

	got := s.RankCandidates(pool, EffectiveConstraints{}, TasteHistory{}, 5)
	wantOrder := []string{"item-high", "item-mid", "item-low"}
	for i, want := range wantOrder {
		if got[i].ItemID != want {
			t.Errorf("rank %d = %q, want %q", i, got[i].ItemID, want)
		}
	}
}
