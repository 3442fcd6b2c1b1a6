// Palate - Conversational Food Ordering Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/palate

package interpret

import (
	"strings"
	"unicode"
)

// Languages reported by DetectLanguage. The renderer picks its response
// templates by this value.
const (
	LanguageEnglish = "en"
	LanguageUrdu    = "ur"
)

// DetectLanguage classifies a message as English or Urdu. A single Urdu
// script character decides immediately; otherwise the message counts as
// Urdu when any whole word is a known Roman Urdu transliteration.
func (in *Interpreter) DetectLanguage(message string) string {
	for _, r := range message {
		if strings.ContainsRune(urduScript, r) {
			return LanguageUrdu
		}
	}

	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if _, ok := in.romanUrdu[w]; ok {
			return LanguageUrdu
		}
	}

	return LanguageEnglish
}
