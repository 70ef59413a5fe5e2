package retrieval

import "strings"

// referenceMarkers are phrases that signal the student is pointing
// back at earlier turns of the conversation.
var referenceMarkers = []string{
	"之前",
	"刚才",
	"刚刚",
	"上次",
	"先前",
	"第一步",
	"上一步",
	"前面",
	"earlier",
	"previously",
	"before",
	"just now",
	"last time",
	"the first step",
}

// ReferencesPast reports whether the question refers back to earlier
// conversation. Matching is case-insensitive substring search, so
// "Earlier you said..." and "我想问一下之前讲的" both trigger.
func ReferencesPast(question string) bool {
	q := strings.ToLower(question)
	for _, marker := range referenceMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}
