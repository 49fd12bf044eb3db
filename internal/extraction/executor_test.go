package extraction

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"clipforge/internal/logging"
	"clipforge/internal/media/ffmpeg"
	"clipforge/internal/media/ffprobe"
	"clipforge/internal/resourceguard"
	"clipforge/internal/services"
	"clipforge/internal/testsupport"
)

// fakeCutter stands in for the ffmpeg runner so strategy attempts can be
// made to fail deterministically.
type fakeCutter struct {
	inputs []string
	fail   func(input string) error
}

func (f *fakeCutter) ExtractSegment(ctx context.Context, input string, startSec, endSec int64, output string) error {
	f.inputs = append(f.inputs, input)
	if f.fail != nil {
		if err := f.fail(input); err != nil {
			return err
		}
	}
	return os.WriteFile(output, []byte("segment"), 0o644)
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	guard := resourceguard.New(cfg, logging.NewNop())
	return NewExecutor(cfg, guard, ffmpeg.New(cfg.FFmpegBinary()), logging.NewNop())
}

func TestDownloadStreamsToStaging(t *testing.T) {
	payload := bytes.Repeat([]byte("clipforge"), (2<<20)/9)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	executor := newTestExecutor(t)
	destination := executor.stagePath("source.media")
	if err := executor.download(context.Background(), server.URL, destination); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	written, err := os.ReadFile(destination)
	if err != nil {
		t.Fatalf("read staged copy: %v", err)
	}
	if !bytes.Equal(written, payload) {
		t.Fatalf("staged copy differs from source: got %d bytes, want %d", len(written), len(payload))
	}
}

func TestDownloadRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	executor := newTestExecutor(t)
	err := executor.download(context.Background(), server.URL, executor.stagePath("source.media"))
	if err == nil {
		t.Fatal("expected error for 404 source")
	}
}

func TestStagePathsAreUnique(t *testing.T) {
	executor := newTestExecutor(t)
	if executor.stagePath("segment.mp4") == executor.stagePath("segment.mp4") {
		t.Fatal("staging paths must be unique per call")
	}
}

// rangeEligible shapes the executor so Select yields range first with a
// full-download fallback for the given request.
func rangeEligible(t *testing.T, executor *Executor) (Request, int64) {
	t.Helper()
	executor.cfg.Extraction.RangeMinSizeBytes = 1 << 20
	executor.cfg.Extraction.RangeMaxDurationSeconds = 300
	executor.cfg.Extraction.RangeMinOffsetSeconds = 30
	req := Request{
		Fingerprint: "fp-fallback",
		StartTime:   60,
		EndTime:     120,
	}
	return req, int64(10 << 20)
}

func TestExtractFallsBackToFullDownloadAfterRangeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("av"), 4096))
	}))
	defer server.Close()

	executor := newTestExecutor(t)
	req, size := rangeEligible(t, executor)
	req.SourceLocation = server.URL + "/episode.mp4"

	cutter := &fakeCutter{fail: func(input string) error {
		if strings.HasPrefix(input, "http") {
			return errors.New("seek failed")
		}
		return nil
	}}
	executor.ffmpeg = cutter
	executor.probe = func(ctx context.Context, binary, location string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: "900.0"}}, nil
	}

	output, strategy, err := executor.Extract(context.Background(), req, size)
	if err != nil {
		t.Fatalf("Extract should recover via fallback: %v", err)
	}
	if strategy != StrategyFullDownload {
		t.Fatalf("expected fallback strategy, got %q", strategy)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("fallback output missing: %v", err)
	}
	if len(cutter.inputs) != 2 || !strings.HasPrefix(cutter.inputs[0], "http") || strings.HasPrefix(cutter.inputs[1], "http") {
		t.Fatalf("expected remote attempt then local cut, got %v", cutter.inputs)
	}
}

func TestExtractStopsChainOnResourceError(t *testing.T) {
	executor := newTestExecutor(t)
	req, size := rangeEligible(t, executor)
	req.SourceLocation = "https://cdn.example.com/episode.mp4"

	cutter := &fakeCutter{fail: func(input string) error {
		return services.Wrap(services.ErrResource, "extraction", "range", "memory ceiling", nil)
	}}
	executor.ffmpeg = cutter

	_, _, err := executor.Extract(context.Background(), req, size)
	if !services.IsResource(err) {
		t.Fatalf("expected resource error to surface, got %v", err)
	}
	if len(cutter.inputs) != 1 {
		t.Fatalf("resource pressure must stop the strategy chain, got %d attempts", len(cutter.inputs))
	}
}
