// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package render

import (
	"context"
	"reflect"
	"testing"

	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
	"github.com/tomtom215/palate/internal/recommend/algorithms"
)

func rec(name, cuisine string, spice models.SpiceLevel, price float64) recommend.RecommendedItem {
	return recommend.RecommendedItem{
		Item: models.MenuItem{Name: name, Cuisine: cuisine, SpiceLevel: spice, Price: price},
	}
}

func TestTemplateRenderer_Render(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		want  string
	}{
		{
			name:  "loop breaker english",
			input: &Input{Intent: interpret.IntentFoodRecommendation, Language: "en", LoopBreaker: true},
			want:  "Is there anything else I can help you with?",
		},
		{
			name:  "loop breaker urdu",
			input: &Input{Intent: interpret.IntentGeneralQuery, Language: "ur", LoopBreaker: true},
			want:  "کیا میں آپ کی مزید مدد کر سکتا ہوں؟",
		},
		{
			name:  "greeting with name",
			input: &Input{Intent: interpret.IntentGreeting, Language: "en", UserName: "Ahmed"},
			want:  "Hello Ahmed! What would you like to eat today?",
		},
		{
			name:  "greeting without name",
			input: &Input{Intent: interpret.IntentGreeting, Language: "en"},
			want:  "Hello! What would you like to eat today?",
		},
		{
			name:  "greeting urdu",
			input: &Input{Intent: interpret.IntentGreeting, Language: "ur", UserName: "Ahmed"},
			want:  "میں یہاں آپ کی مدد کے لیے ہوں۔ کیا آپ کچھ آرڈر کرنا چاہیں گے?",
		},
		{
			name:  "reorder without history",
			input: &Input{Intent: interpret.IntentReorder, Language: "en"},
			want: "You don't have any previous orders with us yet. " +
				"Would you like some recommendations instead?",
		},
		{
			name: "reorder with favorites",
			input: &Input{
				Intent:   interpret.IntentReorder,
				Language: "en",
				ReorderItems: []recommend.RecommendedItem{
					rec("Chicken Biryani", "Pakistani", models.SpiceHot, 450),
					rec("Seekh Kebab", "BBQ", models.SpiceMedium, 300),
				},
			},
			want: "Here are your favorites:\n" +
				"1. Chicken Biryani - PKR 450\n" +
				"2. Seekh Kebab - PKR 300\n" +
				"\nWould you like to order one of these again?",
		},
		{
			name: "reorder list caps at three",
			input: &Input{
				Intent:   interpret.IntentReorder,
				Language: "en",
				ReorderItems: []recommend.RecommendedItem{
					rec("A", "", models.SpiceMild, 100),
					rec("B", "", models.SpiceMild, 200),
					rec("C", "", models.SpiceMild, 300),
					rec("D", "", models.SpiceMild, 400),
				},
			},
			want: "Here are your favorites:\n" +
				"1. A - PKR 100\n" +
				"2. B - PKR 200\n" +
				"3. C - PKR 300\n" +
				"\nWould you like to order one of these again?",
		},
		{
			name: "item search found",
			input: &Input{
				Intent:    interpret.IntentSpecificItemSearch,
				Language:  "en",
				ItemQuery: "biryani",
				NewItems: []recommend.RecommendedItem{
					rec("Chicken Biryani", "Pakistani", models.SpiceHot, 450),
				},
			},
			want: "Here's what I found for \"biryani\":\n" +
				"1. Chicken Biryani (Pakistani, hot spice) - PKR 450\n" +
				"\nShould I add one to your order?",
		},
		{
			name: "item search not found",
			input: &Input{
				Intent:    interpret.IntentSpecificItemSearch,
				Language:  "en",
				ItemQuery: "sushi",
			},
			want: "Sorry, I couldn't find anything matching \"sushi\". " +
				"Would you like to try something similar?",
		},
		{
			name: "cuisine with effective cuisines",
			input: &Input{
				Intent:      interpret.IntentSpecificCuisine,
				Language:    "en",
				Constraints: algorithms.EffectiveConstraints{Cuisines: []string{"Chinese"}},
				NewItems: []recommend.RecommendedItem{
					rec("Chow Mein", "Chinese", models.SpiceMedium, 350),
				},
			},
			want: "Here are some Chinese options:\n" +
				"1. Chow Mein (Chinese, medium spice) - PKR 350\n" +
				"\nAnything catch your eye?",
		},
		{
			name: "cuisine defaults missing spice to medium",
			input: &Input{
				Intent:   interpret.IntentSpecificCuisine,
				Language: "en",
				NewItems: []recommend.RecommendedItem{
					rec("Nihari", "Pakistani", "", 400),
				},
			},
			want: "Here's what we have:\n" +
				"1. Nihari (Pakistani, medium spice) - PKR 400\n" +
				"\nAnything catch your eye?",
		},
		{
			name: "new items",
			input: &Input{
				Intent:   interpret.IntentNewItems,
				Language: "en",
				NewItems: []recommend.RecommendedItem{
					rec("Sushi Platter", "Japanese", models.SpiceMild, 1200),
				},
			},
			want: "Here's something different from your usual:\n" +
				"1. Sushi Platter (Japanese, mild spice) - PKR 1200\n" +
				"\nWant to give one of these a try?",
		},
		{
			name: "recommendation with conflict and both lists",
			input: &Input{
				Intent:   interpret.IntentFoodRecommendation,
				Language: "en",
				Conflicts: []models.Conflict{{
					Type:        models.ConflictSpice,
					Explanation: "You usually prefer mild food, but you're asking for very_hot.",
				}},
				ReorderItems: []recommend.RecommendedItem{
					rec("Daal Chawal", "Pakistani", models.SpiceMild, 250),
				},
				NewItems: []recommend.RecommendedItem{
					rec("Peri Peri Wings", "BBQ", models.SpiceVeryHot, 550),
				},
			},
			want: "You usually prefer mild food, but you're asking for very_hot. " +
				"Would you like to see these options anyway?\n\n" +
				"Your favorites:\n" +
				"1. Daal Chawal - PKR 250\n" +
				"\nYou might also like:\n" +
				"1. Peri Peri Wings (BBQ, very_hot spice) - PKR 550\n" +
				"\nWhat sounds good?",
		},
		{
			name: "recommendation without items",
			input: &Input{
				Intent:   interpret.IntentFoodRecommendation,
				Language: "en",
			},
			want: "Sorry, I don't have anything to suggest right now. " +
				"How about trying our Biryani or Burgers?",
		},
		{
			name:  "order status",
			input: &Input{Intent: interpret.IntentOrderStatus, Language: "en"},
			want:  "I can help you check on an order. Could you tell me which order you mean?",
		},
		{
			name:  "complaint",
			input: &Input{Intent: interpret.IntentComplaint, Language: "en"},
			want: "I'm really sorry to hear that. We'll look into it right away. " +
				"Is there anything I can do to make it right?",
		},
		{
			name:  "general query english",
			input: &Input{Intent: interpret.IntentGeneralQuery, Language: "en"},
			want:  "I'm here to help! What would you like to order?",
		},
		{
			name:  "general query urdu",
			input: &Input{Intent: interpret.IntentGeneralQuery, Language: "ur"},
			want:  "میں یہاں آپ کی مدد کے لیے ہوں۔ کیا آپ کچھ آرڈر کرنا چاہیں گے?",
		},
	}

	r := NewTemplateRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestTemplateRenderer_NilInput(t *testing.T) {
	r := NewTemplateRenderer()
	if _, err := r.Render(context.Background(), nil); err == nil {
		t.Error("Render(nil) error = nil, want error")
	}
}

func TestNewInput(t *testing.T) {
	res := interpret.Result{
		Intent:    interpret.IntentSpecificItemSearch,
		Language:  "en",
		ItemQuery: "biryani",
		LoopBreak: true,
	}
	conflicts := []models.Conflict{{Type: models.ConflictSpice, Explanation: "x"}}
	resp := &recommend.Response{
		Constraints: algorithms.EffectiveConstraints{Spice: models.SpiceHot},
		NewItems:    []recommend.RecommendedItem{rec("Chicken Biryani", "Pakistani", models.SpiceHot, 450)},
	}

	in := NewInput(res, conflicts, resp, "Ahmed")

	if in.Intent != interpret.IntentSpecificItemSearch || !in.LoopBreaker {
		t.Errorf("intent/loop = %s/%v", in.Intent, in.LoopBreaker)
	}
	if in.UserName != "Ahmed" || in.ItemQuery != "biryani" {
		t.Errorf("user/query = %s/%s", in.UserName, in.ItemQuery)
	}
	if in.Constraints.Spice != models.SpiceHot {
		t.Errorf("Constraints.Spice = %s", in.Constraints.Spice)
	}
	if !reflect.DeepEqual(in.Conflicts, conflicts) {
		t.Errorf("Conflicts = %+v", in.Conflicts)
	}
	if len(in.NewItems) != 1 || len(in.ReorderItems) != 0 {
		t.Errorf("lists = %d new, %d reorder", len(in.NewItems), len(in.ReorderItems))
	}

	bare := NewInput(res, nil, nil, "")
	if len(bare.NewItems) != 0 || len(bare.Conflicts) != 0 {
		t.Errorf("nil response input not empty: %+v", bare)
	}
}
