package utils

import "strings"

// TruncateForLog turns s into a one-line preview of at most limit runes.
// Line breaks and runs of whitespace collapse to a single space.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
