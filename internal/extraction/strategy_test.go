package extraction

import (
	"testing"

	"clipforge/internal/testsupport"
)

func TestSelectPrefersRangeForLargeOffsetWindows(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	// 500MB source, 60s window starting at 120s.
	strategies := Select(cfg, 500<<20, 120, 180)
	if len(strategies) != 2 {
		t.Fatalf("expected range plus fallback, got %v", strategies)
	}
	if strategies[0] != StrategyRange || strategies[1] != StrategyFullDownload {
		t.Fatalf("unexpected strategy order: %v", strategies)
	}
}

func TestSelectFullDownloadOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	cases := []struct {
		name       string
		size       int64
		start, end int64
	}{
		{"small file", 10 << 20, 120, 180},
		{"long window", 500 << 20, 120, 120 + int64(cfg.Extraction.RangeMaxDurationSeconds)},
		{"early offset", 500 << 20, 10, 70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			strategies := Select(cfg, tc.size, tc.start, tc.end)
			if len(strategies) != 1 || strategies[0] != StrategyFullDownload {
				t.Fatalf("expected fullDownload only, got %v", strategies)
			}
		})
	}
}
