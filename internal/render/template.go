// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/palate/internal/interpret"
	"github.com/tomtom215/palate/internal/models"
	"github.com/tomtom215/palate/internal/recommend"
)

// Fixed phrases the product ships in both languages. List prose is
// English only; full localization is the remote renderer's job.
const (
	loopBreakerEN = "Is there anything else I can help you with?"
	loopBreakerUR = "کیا میں آپ کی مزید مدد کر سکتا ہوں؟"

	helpFallbackEN = "I'm here to help! What would you like to order?"
	helpFallbackUR = "میں یہاں آپ کی مدد کے لیے ہوں۔ کیا آپ کچھ آرڈر کرنا چاہیں گے?"
)

const noItemsText = "Sorry, I don't have anything to suggest right now. " +
	"How about trying our Biryani or Burgers?"

// maxListItems caps how many entries a rendered list shows.
const maxListItems = 3

var errNilInput = errors.New("nil render input")

// TemplateRenderer composes replies from fixed templates. Output is
// deterministic for a given Input, which is what makes it usable as
// both the default renderer and the degraded path behind the breaker.
type TemplateRenderer struct{}

// NewTemplateRenderer returns the built-in deterministic renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render phrases the input. It never fails on a non-nil input.
func (r *TemplateRenderer) Render(_ context.Context, in *Input) (string, error) {
	if in == nil {
		return "", errNilInput
	}

	urdu := in.Language == interpret.LanguageUrdu
	if in.LoopBreaker {
		if urdu {
			return loopBreakerUR, nil
		}
		return loopBreakerEN, nil
	}

	switch in.Intent {
	case interpret.IntentGreeting:
		return r.greeting(in, urdu), nil
	case interpret.IntentReorder:
		return r.reorder(in), nil
	case interpret.IntentNewItems:
		return r.newItems(in), nil
	case interpret.IntentSpecificCuisine:
		return r.cuisine(in), nil
	case interpret.IntentSpecificItemSearch:
		return r.itemSearch(in), nil
	case interpret.IntentFoodRecommendation:
		return r.recommendation(in), nil
	case interpret.IntentOrderStatus:
		return "I can help you check on an order. Could you tell me which order you mean?", nil
	case interpret.IntentComplaint:
		return "I'm really sorry to hear that. We'll look into it right away. " +
			"Is there anything I can do to make it right?", nil
	default:
		if urdu {
			return helpFallbackUR, nil
		}
		return helpFallbackEN, nil
	}
}

func (r *TemplateRenderer) greeting(in *Input, urdu bool) string {
	if urdu {
		return helpFallbackUR
	}
	if in.UserName != "" {
		return fmt.Sprintf("Hello %s! What would you like to eat today?", in.UserName)
	}
	return "Hello! What would you like to eat today?"
}

func (r *TemplateRenderer) reorder(in *Input) string {
	if len(in.ReorderItems) == 0 {
		return "You don't have any previous orders with us yet. " +
			"Would you like some recommendations instead?"
	}

	var b strings.Builder
	b.WriteString("Here are your favorites:\n")
	writeReorderList(&b, in.ReorderItems)
	if len(in.NewItems) > 0 {
		b.WriteString("\nSomething new to try:\n")
		writeItemList(&b, in.NewItems)
	}
	b.WriteString("\nWould you like to order one of these again?")
	return b.String()
}

func (r *TemplateRenderer) newItems(in *Input) string {
	if len(in.NewItems) == 0 {
		return noItemsText
	}

	var b strings.Builder
	b.WriteString(conflictLead(in))
	b.WriteString("Here's something different from your usual:\n")
	writeItemList(&b, in.NewItems)
	b.WriteString("\nWant to give one of these a try?")
	return b.String()
}

func (r *TemplateRenderer) cuisine(in *Input) string {
	if len(in.NewItems) == 0 {
		return noItemsText
	}

	var b strings.Builder
	b.WriteString(conflictLead(in))
	if len(in.Constraints.Cuisines) > 0 {
		fmt.Fprintf(&b, "Here are some %s options:\n", strings.Join(in.Constraints.Cuisines, ", "))
	} else {
		b.WriteString("Here's what we have:\n")
	}
	writeItemList(&b, in.NewItems)
	b.WriteString("\nAnything catch your eye?")
	return b.String()
}

func (r *TemplateRenderer) itemSearch(in *Input) string {
	if len(in.NewItems) == 0 {
		if in.ItemQuery != "" {
			return fmt.Sprintf("Sorry, I couldn't find anything matching %q. "+
				"Would you like to try something similar?", in.ItemQuery)
		}
		return "Sorry, I couldn't find anything matching that. " +
			"Would you like to try something similar?"
	}

	var b strings.Builder
	if in.ItemQuery != "" {
		fmt.Fprintf(&b, "Here's what I found for %q:\n", in.ItemQuery)
	} else {
		b.WriteString("Here's what I found:\n")
	}
	writeItemList(&b, in.NewItems)
	b.WriteString("\nShould I add one to your order?")
	return b.String()
}

func (r *TemplateRenderer) recommendation(in *Input) string {
	if len(in.ReorderItems) == 0 && len(in.NewItems) == 0 {
		return noItemsText
	}

	var b strings.Builder
	b.WriteString(conflictLead(in))
	if len(in.ReorderItems) > 0 {
		b.WriteString("Your favorites:\n")
		writeReorderList(&b, in.ReorderItems)
	}
	if len(in.NewItems) > 0 {
		if len(in.ReorderItems) > 0 {
			b.WriteString("\nYou might also like:\n")
		} else {
			b.WriteString("Recommendations for you:\n")
		}
		writeItemList(&b, in.NewItems)
	}
	b.WriteString("\nWhat sounds good?")
	return b.String()
}

// conflictLead turns the first conflict into an acknowledge-and-ask
// line. Conflicts are advisory: the lists below it are still the ones
// the user asked for.
func conflictLead(in *Input) string {
	if len(in.Conflicts) == 0 {
		return ""
	}
	return in.Conflicts[0].Explanation + " Would you like to see these options anyway?\n\n"
}

func writeReorderList(b *strings.Builder, items []recommend.RecommendedItem) {
	for i, ri := range items {
		if i == maxListItems {
			break
		}
		fmt.Fprintf(b, "%d. %s - PKR %s\n", i+1, ri.Item.Name, formatPrice(ri.Item.Price))
	}
}

func writeItemList(b *strings.Builder, items []recommend.RecommendedItem) {
	for i, ri := range items {
		if i == maxListItems {
			break
		}
		spice := ri.Item.SpiceLevel
		if spice == "" {
			spice = models.DefaultSpiceLevel
		}
		if ri.Item.Cuisine != "" {
			fmt.Fprintf(b, "%d. %s (%s, %s spice) - PKR %s\n",
				i+1, ri.Item.Name, ri.Item.Cuisine, spice, formatPrice(ri.Item.Price))
		} else {
			fmt.Fprintf(b, "%d. %s (%s spice) - PKR %s\n",
				i+1, ri.Item.Name, spice, formatPrice(ri.Item.Price))
		}
	}
}

// formatPrice renders a PKR amount without trailing zeros.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
