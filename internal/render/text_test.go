package render

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateMiddleShortStringsUntouched(t *testing.T) {
	if got := TruncateMiddle("short title", 48); got != "short title" {
		t.Fatalf("short strings must pass through, got %q", got)
	}
}

func TestTruncateMiddleFavorsStart(t *testing.T) {
	long := strings.Repeat("a", 30) + strings.Repeat("z", 30)
	got := TruncateMiddle(long, 20)
	if utf8.RuneCountInString(got) != 20 {
		t.Fatalf("expected 20 runes, got %d in %q", utf8.RuneCountInString(got), got)
	}
	if !strings.Contains(got, ellipsis) {
		t.Fatalf("expected ellipsis in %q", got)
	}
	head := strings.Count(strings.Split(got, ellipsis)[0], "a")
	tail := strings.Count(strings.Split(got, ellipsis)[1], "z")
	if head <= tail {
		t.Fatalf("head should keep more characters than tail: head=%d tail=%d", head, tail)
	}
}

func TestTruncateMiddleEdgeBudgets(t *testing.T) {
	if got := TruncateMiddle("abcdef", 1); got != ellipsis {
		t.Fatalf("budget of 1 should yield bare ellipsis, got %q", got)
	}
	if got := TruncateMiddle("abcdef", 0); got != "" {
		t.Fatalf("budget of 0 should yield empty string, got %q", got)
	}
}

func TestNormalizeTextComposesAndTrims(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	decomposed := "  café  "
	got := NormalizeText(decomposed)
	if got != "café" {
		t.Fatalf("expected NFC-composed %q, got %q", "café", got)
	}
}
