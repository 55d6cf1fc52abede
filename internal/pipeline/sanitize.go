package pipeline

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^(?:```[a-zA-Z0-9_-]*[ \t]*\r?\n?|\"\"\")")
	trailingFence = regexp.MustCompile("(?:\r?\n?[ \t]*```|\"\"\")$")
)

// sanitizeCompletion strips a wrapping code fence (with optional language tag)
// or triple quotes from a raw completion and trims surrounding whitespace.
// Applying it to an already-clean string returns the string unchanged.
func sanitizeCompletion(raw string) string {
	text := strings.TrimSpace(raw)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
