// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/palate/internal/config"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/textmatch"
)

// DefaultLoopBreakerThreshold is the number of consecutive non-selecting
// turns a session tolerates before responses de-escalate.
const DefaultLoopBreakerThreshold = 5

// Context is the slice of session state classification consults. It is
// plain values on purpose: the interpreter reads session state, it never
// owns or mutates it.
type Context struct {
	// PreviousIntent is the intent classified for the session's last turn.
	PreviousIntent Intent

	// ConsecutiveNonSelecting counts the turns since the user last
	// selected a recommendation, including the current turn.
	ConsecutiveNonSelecting int

	// AwaitingSelection is set while the last response shows a list the
	// user has not answered yet; it suppresses the loop breaker.
	AwaitingSelection bool
}

// Result is the full interpretation of one message.
type Result struct {
	// Intent is the keyword classification in precedence order.
	Intent Intent `json:"intent"`

	// LoopBreak flags that the session crossed the consecutive-turn
	// threshold and this turn should answer with a neutral de-escalation
	// instead of recommendations.
	LoopBreak bool `json:"loop_break,omitempty"`

	// Override carries the request-scoped preference overrides.
	Override models.QueryOverride `json:"override"`

	// ItemQuery is the free-text item lookup extracted for
	// SPECIFIC_ITEM_SEARCH, empty for all other intents.
	ItemQuery string `json:"item_query,omitempty"`

	// Cuisines names the cuisines behind a SPECIFIC_CUISINE intent,
	// either from the promoted override or from the intent's own
	// keyword scan.
	Cuisines []string `json:"cuisines,omitempty"`

	// Language is the detected response language ("en" or "ur").
	Language string `json:"language"`
}

// Final returns the intent a response should be built for: the keyword
// classification, or IntentLoopBreaker when the loop breaker fired.
func (r Result) Final() Intent {
	if r.LoopBreak {
		return IntentLoopBreaker
	}
	return r.Intent
}

// spiceMatcher pairs a spice level with its compiled phrase matcher.
type spiceMatcher struct {
	level   models.SpiceLevel
	matcher *textmatch.PatternMatcher
}

type dietaryMatcher struct {
	diet    models.Dietary
	matcher *textmatch.PatternMatcher
}

type cuisineMatcher struct {
	name    string
	matcher *textmatch.PatternMatcher
}

type itemTypeMatcher struct {
	itemType models.ItemType
	matcher  *textmatch.PatternMatcher
}

// Interpreter turns raw chat messages into intents, overrides, and
// search terms. All matchers are compiled once at construction; the
// methods are read-only and safe for concurrent use.
type Interpreter struct {
	logger        zerolog.Logger
	loopThreshold int

	spice     []spiceMatcher
	dietary   []dietaryMatcher
	cuisines  []cuisineMatcher
	itemTypes []itemTypeMatcher

	intentCuisines []cuisineMatcher

	reorder   *textmatch.PatternMatcher
	newItems  *textmatch.PatternMatcher
	search    *textmatch.PatternMatcher
	dishes    *textmatch.PatternMatcher
	food      *textmatch.PatternMatcher
	status    *textmatch.PatternMatcher
	complaint *textmatch.PatternMatcher

	romanUrdu map[string]struct{}
}

// New builds an interpreter from the given config. A nil config gets the
// defaults; ExtraDishTokens widen the item-search vocabulary without a
// rebuild of the binary.
func New(cfg *config.InterpretConfig, logger zerolog.Logger) *Interpreter {
	threshold := DefaultLoopBreakerThreshold
	var extraDishes []string
	if cfg != nil {
		if cfg.LoopBreakerThreshold > 0 {
			threshold = cfg.LoopBreakerThreshold
		}
		extraDishes = cfg.ExtraDishTokens
	}

	in := &Interpreter{
		logger:        logger.With().Str("component", "interpret").Logger(),
		loopThreshold: threshold,
		romanUrdu:     make(map[string]struct{}, len(romanUrduWords)),
	}

	for _, tier := range spiceTiers {
		in.spice = append(in.spice, spiceMatcher{
			level:   tier.level,
			matcher: textmatch.NewPatternMatcherFromSlice(tier.terms, tier.level),
		})
	}
	for _, fam := range dietaryFamilies {
		in.dietary = append(in.dietary, dietaryMatcher{
			diet:    fam.diet,
			matcher: textmatch.NewPatternMatcherFromSlice(fam.terms, fam.diet),
		})
	}
	in.cuisines = compileCuisines(overrideCuisineFamilies)
	in.intentCuisines = compileCuisines(intentCuisineFamilies)
	for _, fam := range itemTypeFamilies {
		in.itemTypes = append(in.itemTypes, itemTypeMatcher{
			itemType: fam.itemType,
			matcher:  textmatch.NewPatternMatcherFromSlice(fam.terms, fam.itemType),
		})
	}

	dishes := make([]string, 0, len(dishTokens)+len(extraDishes))
	dishes = append(dishes, dishTokens...)
	dishes = append(dishes, extraDishes...)

	in.reorder = textmatch.NewPatternMatcherFromSlice(reorderTerms, IntentReorder)
	in.newItems = textmatch.NewPatternMatcherFromSlice(newItemTerms, IntentNewItems)
	in.search = textmatch.NewPatternMatcherFromSlice(searchIndicators, IntentSpecificItemSearch)
	in.dishes = textmatch.NewPatternMatcherFromSlice(dishes, nil)
	in.food = textmatch.NewPatternMatcherFromSlice(foodTerms, IntentFoodRecommendation)
	in.status = textmatch.NewPatternMatcherFromSlice(statusTerms, IntentOrderStatus)
	in.complaint = textmatch.NewPatternMatcherFromSlice(complaintTerms, IntentComplaint)

	for _, w := range romanUrduWords {
		in.romanUrdu[w] = struct{}{}
	}

	return in
}

func compileCuisines(families []cuisineFamily) []cuisineMatcher {
	compiled := make([]cuisineMatcher, 0, len(families))
	for _, fam := range families {
		compiled = append(compiled, cuisineMatcher{
			name:    fam.name,
			matcher: textmatch.NewPatternMatcherFromSlice(fam.terms, fam.name),
		})
	}
	return compiled
}

// Interpret runs the full pipeline over one message: override extraction,
// intent classification, loop-breaker check, and language detection.
func (in *Interpreter) Interpret(message string, sctx Context) Result {
	lower := strings.ToLower(strings.TrimSpace(message))

	res := Result{
		Override: in.extractOverrides(lower),
		Language: in.DetectLanguage(message),
	}
	res.Intent, res.ItemQuery, res.Cuisines = in.classify(lower, res.Override)
	res.LoopBreak = sctx.ConsecutiveNonSelecting > in.loopThreshold && !sctx.AwaitingSelection

	in.logger.Debug().
		Str("intent", res.Intent.String()).
		Bool("loop_break", res.LoopBreak).
		Str("language", res.Language).
		Str("item_query", res.ItemQuery).
		Strs("cuisines", res.Cuisines).
		Msg("Message interpreted")

	return res
}

// classify walks the precedence chain and returns the first matching
// intent plus its intent-specific extractions.
func (in *Interpreter) classify(lower string, override models.QueryOverride) (Intent, string, []string) {
	if in.isGreeting(lower) {
		return IntentGreeting, "", nil
	}
	if in.reorder.Contains(lower) {
		return IntentReorder, "", nil
	}
	if in.newItems.Contains(lower) {
		return IntentNewItems, "", nil
	}
	if in.search.Contains(lower) && in.dishes.Contains(lower) {
		if query := in.extractItemQuery(lower); query != "" {
			return IntentSpecificItemSearch, query, nil
		}
	}
	if override.HasCuisine() {
		return IntentSpecificCuisine, "", override.Cuisines
	}
	if cuisines := matchCuisines(in.intentCuisines, lower); len(cuisines) > 0 {
		return IntentSpecificCuisine, "", cuisines
	}
	if in.food.Contains(lower) {
		return IntentFoodRecommendation, "", nil
	}
	if in.status.Contains(lower) {
		return IntentOrderStatus, "", nil
	}
	if in.complaint.Contains(lower) {
		return IntentComplaint, "", nil
	}
	return IntentGeneralQuery, "", nil
}

// isGreeting matches the whole message or a leading greeting word. A
// substring test would turn "white chocolate" into a greeting via "hi".
func (in *Interpreter) isGreeting(lower string) bool {
	for _, g := range greetings {
		if lower == g || strings.HasPrefix(lower, g+" ") {
			return true
		}
	}
	return false
}

// extractItemQuery returns the text after the first present search
// indicator, trimmed of question marks and politeness. The query stops
// at the indicator's next occurrence when it repeats. Empty queries
// ("order" alone) fall through to the next indicator.
func (in *Interpreter) extractItemQuery(lower string) string {
	for _, ind := range searchIndicators {
		idx := strings.Index(lower, ind)
		if idx < 0 {
			continue
		}
		rest := lower[idx+len(ind):]
		if next := strings.Index(rest, ind); next >= 0 {
			rest = rest[:next]
		}
		rest = strings.TrimSpace(rest)
		rest = strings.ReplaceAll(rest, "?", "")
		rest = strings.ReplaceAll(rest, "please", "")
		rest = strings.TrimSpace(rest)
		if rest != "" {
			return rest
		}
	}
	return ""
}

func matchCuisines(families []cuisineMatcher, lower string) []string {
	var names []string
	for _, fam := range families {
		if fam.matcher.Contains(lower) {
			names = append(names, fam.name)
		}
	}
	return names
}
