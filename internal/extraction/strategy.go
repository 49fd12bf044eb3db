package extraction

import "clipforge/internal/config"

// Strategy names one way of materializing the requested segment.
type Strategy string

const (
	// StrategyRange seeks into the remote source and re-encodes only the
	// requested window without a local copy of the whole file.
	StrategyRange Strategy = "range"
	// StrategyFullDownload streams the entire source to local disk before
	// cutting the segment.
	StrategyFullDownload Strategy = "fullDownload"
)

// Select returns the ordered strategies to attempt for the given source.
//
// Range extraction pays off only when the source is large, the window is
// short, and the window starts well past the head of the file; seeking near
// the start of a file gains nothing and remote seeks are less stable than a
// plain download. When range is chosen it is followed by fullDownload as the
// single fallback, so a failed seek does not fail the job outright.
func Select(cfg *config.Config, sourceSizeBytes, startSec, endSec int64) []Strategy {
	duration := endSec - startSec
	useRange := sourceSizeBytes > cfg.Extraction.RangeMinSizeBytes &&
		duration < int64(cfg.Extraction.RangeMaxDurationSeconds) &&
		startSec > int64(cfg.Extraction.RangeMinOffsetSeconds)
	if useRange {
		return []Strategy{StrategyRange, StrategyFullDownload}
	}
	return []Strategy{StrategyFullDownload}
}
