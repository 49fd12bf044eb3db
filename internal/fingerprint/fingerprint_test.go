package fingerprint

import (
	"strings"
	"testing"
)

func TestClipDeterministic(t *testing.T) {
	a := Clip(42, "abc", Window(10, 40))
	b := Clip(42, "abc", Window(10, 40))
	if a != b {
		t.Fatalf("identical inputs produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(a))
	}
	if strings.ToLower(a) != a {
		t.Fatal("digest must be lowercase hex")
	}
}

func TestClipFieldSensitivity(t *testing.T) {
	base := Clip(42, "abc", Window(10, 40))
	if Clip(43, "abc", Window(10, 40)) == base {
		t.Fatal("feed id change must alter digest")
	}
	if Clip(42, "abcd", Window(10, 40)) == base {
		t.Fatal("guid change must alter digest")
	}
	if Clip(42, "abc", Window(10, 41)) == base {
		t.Fatal("window change must alter digest")
	}
}

func TestWindowRoundsToWholeSeconds(t *testing.T) {
	if Window(9.6, 40.2) != Window(10, 40) {
		t.Fatal("times must round to whole seconds before hashing")
	}
	if Clip(42, "abc", Window(10.0, 40.0)) != Clip(42, "abc", Window(10, 40)) {
		t.Fatal("float and integer second values must hash identically")
	}
}

func TestEditDeterministic(t *testing.T) {
	a := Edit("https://storage.example.com/v/1.mp4", 5, 65, true)
	b := Edit("https://storage.example.com/v/1.mp4", 5.2, 64.9, true)
	if a != b {
		t.Fatal("rounded-equal edit requests must share a digest")
	}
	if Edit("https://storage.example.com/v/1.mp4", 5, 65, false) == a {
		t.Fatal("subtitle flag must alter digest")
	}
	if Edit("https://storage.example.com/v/2.mp4", 5, 65, true) == a {
		t.Fatal("source change must alter digest")
	}
}

func TestRoundSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{119.9, 120},
		{600.0, 600},
	}
	for _, tc := range cases {
		if got := RoundSeconds(tc.in); got != tc.want {
			t.Fatalf("RoundSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
