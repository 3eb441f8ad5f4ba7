// Package normalize turns raw roster and requisition fields into values that are
// safe to compare and do arithmetic on. Nothing in this package returns an error:
// malformed input always resolves to an empty or "not ok" value.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Canonical, case-folded status values. Compare only against Status() output.
const (
	StatusPositionIdentified = "position identified"
	StatusOfferPending       = "offer pending"
	StatusOfferAccepted      = "offer accepted"
	StatusTraining           = "training"
)

// DefaultFreeTextFields are the field-name tokens scanned for bonus keywords.
var DefaultFreeTextFields = []string{"experience", "notes", "background"}

// Text applies NFKC normalization, strips control characters and trims whitespace.
func Text(s string) string {
	normed := norm.NFKC.String(s)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, normed)
	return strings.TrimSpace(normed)
}

// Fold returns the comparison key of s: normalized, trimmed and case-folded.
// Internal whitespace runs are collapsed to a single space.
func Fold(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(Text(s)), " "))
}

// Status returns the canonical form of a free-text status.
func Status(s string) string {
	return Fold(s)
}

// EqualFold reports whether a and b are equal after folding. Empty values never match.
func EqualFold(a, b string) bool {
	fa, fb := Fold(a), Fold(b)
	return fa != "" && fa == fb
}

// SplitLocation splits a combined "City, ST" string on its last comma.
// A string without a comma is returned as the city.
func SplitLocation(location string) (city, state string) {
	location = Text(location)
	idx := strings.LastIndex(location, ",")
	if idx == -1 {
		return location, ""
	}
	return strings.TrimSpace(location[:idx]), strings.TrimSpace(location[idx+1:])
}

// EndsWithState reports whether location ends with the given state as a whole
// word, ignoring case: "Springfield, IL" and "IL" match "IL", "Pensacola" does not match "LA".
func EndsWithState(location, state string) bool {
	loc, st := Fold(location), Fold(state)
	if loc == "" || st == "" || !strings.HasSuffix(loc, st) {
		return false
	}
	if len(loc) == len(st) {
		return true
	}
	switch loc[len(loc)-len(st)-1] {
	case ',', ' ':
		return true
	default:
		return false
	}
}

// FreeTextKeys resolves which record keys hold free text. A key matches when its
// folded name contains any of the folded tokens. Keys are returned sorted so the
// concatenated text is stable between runs.
func FreeTextKeys(record map[string]any, tokens []string) []string {
	folded := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if t := Fold(token); t != "" {
			folded = append(folded, t)
		}
	}

	keys := make([]string, 0)
	for key := range record {
		name := Fold(key)
		for _, token := range folded {
			if strings.Contains(name, token) {
				keys = append(keys, key)
				break
			}
		}
	}
	sort.Strings(keys)

	return keys
}

// CollectFreeText joins the string values stored under keys into one folded text.
func CollectFreeText(record map[string]any, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value, ok := record[key].(string)
		if !ok {
			continue
		}
		if folded := Fold(value); folded != "" {
			parts = append(parts, folded)
		}
	}
	return strings.Join(parts, " ")
}

// ContainsAny reports whether the folded text contains any of the keywords.
func ContainsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	text = Fold(text)
	for _, keyword := range keywords {
		if k := Fold(keyword); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
