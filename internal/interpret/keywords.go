// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

import "github.com/tomtom215/palate/internal/models"

// The keyword tables below are the interpreter's entire vocabulary. They
// mix English, Roman Urdu, and Urdu script because users type all three,
// often inside one message. Matching is case-insensitive substring unless
// a table says otherwise.

// spiceTier binds one spice level to its trigger phrases. Tiers are
// scanned strongest-first so "extra spicy" lands on very_hot before the
// bare "spicy" can claim it for hot.
type spiceTier struct {
	level models.SpiceLevel
	terms []string
}

var spiceTiers = []spiceTier{
	{models.SpiceVeryHot, []string{"very spicy", "extra spicy", "very hot", "bahut tez"}},
	{models.SpiceHot, []string{"spicy", "hot", "tez", "teekha"}},
	{models.SpiceMild, []string{"mild", "not spicy", "halka", "no spice", "bland"}},
}

// dietaryFamily binds one restriction to its trigger phrases. Families are
// scanned independently and every match is collected: "vegan" contains
// "veg", so a vegan request also carries the vegetarian restriction.
type dietaryFamily struct {
	diet  models.Dietary
	terms []string
}

var dietaryFamilies = []dietaryFamily{
	{models.DietVegan, []string{"vegan", "plant based", "no dairy", "no animal"}},
	{models.DietVegetarian, []string{"vegetarian", "veg", "veggie", "no meat"}},
	{models.DietGlutenFree, []string{"gluten free", "no gluten", "gluten-free"}},
	{models.DietHalal, []string{"halal"}},
}

// cuisineFamily binds a canonical cuisine name to its trigger phrases.
type cuisineFamily struct {
	name  string
	terms []string
}

// overrideCuisineFamilies feed override extraction. Dish names imply their
// cuisine here: "biryani" reads as Pakistani even without the word, and
// "pizza" is deliberately ambiguous between Fast Food and Italian.
var overrideCuisineFamilies = []cuisineFamily{
	{"Pakistani", []string{"pakistani", "biryani", "karahi", "nihari", "pulao", "desi"}},
	{"Chinese", []string{"chinese", "chowmein", "fried rice", "noodles", "manchurian"}},
	{"Fast Food", []string{"burger", "pizza", "fries", "sandwich", "fast food"}},
	{"BBQ", []string{"bbq", "tikka", "kebab", "grill", "barbecue", "seekh"}},
	{"Desserts", []string{"dessert", "sweet", "ice cream", "cake", "mithai", "kulfi"}},
	{"Italian", []string{"italian", "pasta", "pizza"}},
	{"Japanese", []string{"japanese", "sushi", "ramen"}},
	{"Thai", []string{"thai", "pad thai", "curry"}},
}

// intentCuisineFamilies are the narrower families the classifier falls
// back to when no cuisine override was promoted: explicit cuisine names
// only, no dish-name inference.
var intentCuisineFamilies = []cuisineFamily{
	{"Pakistani", []string{"pakistani", "desi", "local"}},
	{"Chinese", []string{"chinese"}},
	{"Fast Food", []string{"fast food", "junk food"}},
	{"BBQ", []string{"bbq", "barbecue", "grill"}},
	{"Desserts", []string{"dessert", "sweet", "mithai"}},
	{"Italian", []string{"italian"}},
	{"Japanese", []string{"japanese"}},
	{"Thai", []string{"thai"}},
}

// itemTypeFamily binds a coarse dish classification to its trigger
// phrases. First matching family wins in declaration order.
type itemTypeFamily struct {
	itemType models.ItemType
	terms    []string
}

var itemTypeFamilies = []itemTypeFamily{
	{models.ItemTypeMain, []string{"main course", "dinner", "lunch", "meal"}},
	{models.ItemTypeSnack, []string{"snack", "light", "appetizer", "starter"}},
	{models.ItemTypeDessert, []string{"dessert", "sweet", "after meal"}},
	{models.ItemTypeDrink, []string{"drink", "beverage", "juice"}},
}

// greetings are matched against the whole message or its first word
// followed by a space, never as substrings: "hi" inside "chicken" is
// not a greeting.
var greetings = []string{"hello", "hi", "hey", "salam", "السلام", "assalam", "kaise ho"}

var reorderTerms = []string{
	"reorder", "same", "again", "previous", "last time", "before", "usual",
	"dobara", "pehle wala", "favourite", "phir se", "wahi", "دوبارہ", "پہلے",
}

var newItemTerms = []string{
	"new", "different", "unique", "try something", "haven't tried", "never tried",
	"naya", "alag", "kuch aur", "try karna", "نیا", "مختلف", "explore",
}

// searchIndicators mark a message as a lookup request. Declaration order
// doubles as the extraction order: the first indicator present in the
// message anchors where the item query starts.
var searchIndicators = []string{
	"do you have", "have you got", "find", "looking for", "search for",
	"get me", "i want", "order", "give me",
	"hai kya", "mil sakta", "dhundo", "lao", "لاؤ",
}

// dishTokens are the dish names a search indicator must co-occur with
// before a message counts as an item search. Deployments extend the list
// through InterpretConfig.ExtraDishTokens as menus grow.
var dishTokens = []string{
	"biryani", "karahi", "nihari", "pulao", "tikka", "kebab",
	"burger", "pizza", "sandwich", "shawarma",
	"chowmein", "fried rice", "noodles",
	"cake", "ice cream", "kulfi",
}

var foodTerms = []string{
	"hungry", "eat", "food", "recommend", "suggestion", "suggest",
	"menu", "craving", "what should", "what to eat", "what can i",
	"bhook", "khana", "kuch", "کچھ", "بھوک", "کھانا",
	"show me", "show",
}

var statusTerms = []string{
	"order", "status", "track", "where", "delivery",
	"kahan", "aa gaya", "آرڈر", "ڈیلیوری",
}

var complaintTerms = []string{
	"problem", "issue", "complaint", "wrong", "bad", "cold", "late",
	"masla", "mushkil", "thanda", "galat", "shikayat", "مسئلہ", "شکایت",
}

// urduScript is the character inventory that marks a message as Urdu
// regardless of any Latin text around it.
const urduScript = "آابپتٹثجچحخدڈذرڑزژسشصضطظعغفقکگلمنںوہھءیےأإؤئ"

// romanUrduWords flag transliterated Urdu. The list carries only terms
// that are not also everyday English words, and they are matched as
// whole words so short ones cannot fire inside English text.
var romanUrduWords = []string{
	"hai", "hain", "kya", "kuch", "chahiye", "bhook", "khana",
	"dikhao", "mangwao", "karo", "naya",
	"dobara", "pehle", "wala", "salam", "yaar", "bhai",
}
