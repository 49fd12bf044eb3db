package render

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const ellipsis = "…"

// Character budgets for the two text lines on the canvas.
const (
	titleMaxChars    = 48
	subtitleMaxChars = 64
)

// NormalizeText canonicalizes display text so visually identical titles
// truncate and render the same way regardless of source encoding.
func NormalizeText(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// TruncateMiddle shortens value to at most max characters by replacing the
// middle with an ellipsis. The head keeps roughly twice as many characters
// as the tail, since the start of a title carries most of its meaning.
func TruncateMiddle(value string, max int) string {
	value = NormalizeText(value)
	if max <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	if max == 1 {
		return ellipsis
	}
	keep := max - 1
	head := (keep*2 + 2) / 3
	if head > keep {
		head = keep
	}
	tail := keep - head
	return string(runes[:head]) + ellipsis + string(runes[len(runes)-tail:])
}
