package resourceguard

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// residentBytes reports the process resident set size. On Linux it reads
// /proc/self/statm; elsewhere it falls back to Go heap statistics, which
// under-count non-heap memory but keep the ceiling enforceable.
func residentBytes() (int64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		return int64(stats.HeapInuse + stats.StackInuse), nil
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, fmt.Errorf("unexpected statm format: %q", string(data))
	}
	pages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse statm resident pages: %w", err)
	}
	return pages * int64(os.Getpagesize()), nil
}
