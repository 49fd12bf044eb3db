package resourceguard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/services"
	"clipforge/internal/testsupport"
)

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return New(cfg, nil)
}

func TestRegisterJobRejectsDuplicates(t *testing.T) {
	guard := newTestGuard(t)

	if err := guard.RegisterJob("fp-1", "https://src/a.mp3"); err != nil {
		t.Fatalf("RegisterJob failed: %v", err)
	}
	if err := guard.RegisterJob("fp-1", "https://src/a.mp3"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	guard.UnregisterJob("fp-1")
	if err := guard.RegisterJob("fp-1", "https://src/a.mp3"); err != nil {
		t.Fatalf("re-register after unregister failed: %v", err)
	}
	if jobs := guard.ActiveJobs(); len(jobs) != 1 || jobs[0].Fingerprint != "fp-1" {
		t.Fatalf("unexpected active jobs: %#v", jobs)
	}
}

func TestCheckMemoryCeiling(t *testing.T) {
	guard := newTestGuard(t)
	guard.resident = func() (int64, error) { return 100, nil }
	guard.cfg.Resources.MemoryCeilingBytes = 200

	if err := guard.CheckMemory(); err != nil {
		t.Fatalf("expected memory under ceiling to pass: %v", err)
	}

	guard.resident = func() (int64, error) { return 300, nil }
	err := guard.CheckMemory()
	if err == nil {
		t.Fatal("expected memory ceiling breach")
	}
	if !services.IsResource(err) {
		t.Fatalf("expected resource classification, got %v", err)
	}
}

func TestCheckMemoryUnavailableSampler(t *testing.T) {
	guard := newTestGuard(t)
	guard.resident = func() (int64, error) { return 0, errors.New("no procfs") }
	if err := guard.CheckMemory(); err != nil {
		t.Fatalf("unavailable sampler must not block work: %v", err)
	}
}

func TestSweepRemovesOnlyStaleUnownedFiles(t *testing.T) {
	guard := newTestGuard(t)
	base := guard.cfg.Paths.StagingDir

	stale := filepath.Join(base, "stale.mp4")
	fresh := filepath.Join(base, "fresh.mp4")
	owned := filepath.Join(base, "owned.mp4")
	for _, path := range []string{stale, fresh, owned} {
		testsupport.WriteFile(t, path, 16)
	}

	start := time.Now()
	guard.now = func() time.Time { return start }
	guard.RegisterTempFile("fp-gone", stale)
	guard.RegisterTempFile("fp-owner", owned)
	if err := guard.RegisterJob("fp-owner", "https://src/episode.mp3"); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	guard.now = func() time.Time { return start.Add(2 * time.Hour) }
	guard.RegisterTempFile("fp-new", fresh)

	if removed := guard.Sweep(); removed != 1 {
		t.Fatalf("expected 1 file swept, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale file should be deleted")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh file must survive the sweep")
	}
	if _, err := os.Stat(owned); err != nil {
		t.Fatal("file registered by an active job must survive the sweep")
	}
}

func TestSweepSkipsLongRunningJobFiles(t *testing.T) {
	guard := newTestGuard(t)
	base := guard.cfg.Paths.StagingDir

	audio := filepath.Join(base, "aaaa1111-audio.m4a")
	testsupport.WriteFile(t, audio, 64)

	start := time.Now()
	guard.now = func() time.Time { return start }
	// Jobs register with their source URL; staged files carry the
	// fingerprint so the sweeper can connect the two.
	if err := guard.RegisterJob("fp-long", "https://cdn.example.com/show/episode.mp3"); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}
	guard.RegisterTempFile("fp-long", audio)

	guard.now = func() time.Time { return start.Add(2 * time.Hour) }
	if removed := guard.Sweep(); removed != 0 {
		t.Fatalf("sweep removed %d files belonging to a running job", removed)
	}
	if _, err := os.Stat(audio); err != nil {
		t.Fatal("in-use audio file must survive while its job is registered")
	}

	guard.UnregisterJob("fp-long")
	if removed := guard.Sweep(); removed != 1 {
		t.Fatalf("expected orphaned file swept after job exit, got %d", removed)
	}
}

func TestReleaseTempFileDeletes(t *testing.T) {
	guard := newTestGuard(t)
	path := filepath.Join(guard.cfg.Paths.StagingDir, "download.bin")
	testsupport.WriteFile(t, path, 128)

	guard.RegisterTempFile("fp-dl", path)
	guard.ReleaseTempFile(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("released temp file should be deleted")
	}
	// Releasing twice must be harmless.
	guard.ReleaseTempFile(path)
}

func TestAdmitFullDownloadUnderNormalConditions(t *testing.T) {
	guard := newTestGuard(t)
	guard.resident = func() (int64, error) { return 1, nil }
	guard.cfg.Extraction.MinDiskHeadroomBytes = 1

	if err := guard.AdmitFullDownload(); err != nil {
		t.Fatalf("expected admission, got %v", err)
	}
}

func TestAdmitFullDownloadRefusesOverCeiling(t *testing.T) {
	guard := newTestGuard(t)
	guard.resident = func() (int64, error) { return 500, nil }
	guard.cfg.Resources.MemoryCeilingBytes = 100

	if err := guard.AdmitFullDownload(); !services.IsResource(err) {
		t.Fatalf("expected resource refusal, got %v", err)
	}
}
