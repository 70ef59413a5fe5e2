package utils

import "strings"

// CleanText collapses all whitespace runs (spaces, tabs, newlines)
// into single spaces and trims the ends. Applied to user input before
// validation, storage, and retrieval so indexed text is stable.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Preview returns the first n runes of s, suffixed with an ellipsis
// when truncated.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
