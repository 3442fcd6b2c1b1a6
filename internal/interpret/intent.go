// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

// Intent is the classified purpose of one user message. The set is closed;
// anything unmatched is IntentGeneralQuery.
type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentReorder            Intent = "reorder"
	IntentNewItems           Intent = "new_items"
	IntentSpecificItemSearch Intent = "specific_item_search"
	IntentSpecificCuisine    Intent = "specific_cuisine"
	IntentFoodRecommendation Intent = "food_recommendation"
	IntentOrderStatus        Intent = "order_status"
	IntentComplaint          Intent = "complaint"
	IntentGeneralQuery       Intent = "general_query"

	// IntentLoopBreaker is never produced by keyword matching: it replaces
	// the classified intent when the session has burned through too many
	// consecutive turns without the user selecting anything, so the
	// response de-escalates instead of recommending again.
	IntentLoopBreaker Intent = "loop_breaker"
)

// intentPrecedence is the evaluation order for keyword classification.
// Earlier intents are higher-precision signals; the first matching intent
// wins even when a message carries keywords from several families.
var intentPrecedence = []Intent{
	IntentGreeting,
	IntentReorder,
	IntentNewItems,
	IntentSpecificItemSearch,
	IntentSpecificCuisine,
	IntentFoodRecommendation,
	IntentOrderStatus,
	IntentComplaint,
}

// String returns the wire form of the intent.
func (i Intent) String() string {
	return string(i)
}

// Valid reports whether the intent is one of the known values.
func (i Intent) Valid() bool {
	switch i {
	case IntentGreeting, IntentReorder, IntentNewItems, IntentSpecificItemSearch,
		IntentSpecificCuisine, IntentFoodRecommendation, IntentOrderStatus,
		IntentComplaint, IntentGeneralQuery, IntentLoopBreaker:
		return true
	default:
		return false
	}
}

// WantsRecommendations reports whether a response to this intent should
// carry recommendation lists at all.
func (i Intent) WantsRecommendations() bool {
	switch i {
	case IntentReorder, IntentNewItems, IntentSpecificItemSearch,
		IntentSpecificCuisine, IntentFoodRecommendation:
		return true
	default:
		return false
	}
}

// ReorderEligible reports whether this intent surfaces the user's
// historical favorites as a reorder list.
func (i Intent) ReorderEligible() bool {
	return i == IntentReorder || i == IntentFoodRecommendation
}
