package resourceguard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// ActiveJob records an in-flight background task.
type ActiveJob struct {
	Fingerprint string
	SourceRef   string
	StartedAt   time.Time
}

// tempEntry records a staged file and the job fingerprint that created it.
type tempEntry struct {
	owner        string
	registeredAt time.Time
}

// Guard is the process-wide registry of active jobs and temporary files,
// plus the memory/disk admission policy.
type Guard struct {
	cfg    *config.Config
	logger *slog.Logger

	mu        sync.RWMutex
	jobs      map[string]ActiveJob
	tempFiles map[string]tempEntry

	now      func() time.Time
	resident func() (int64, error)
}

// New constructs a Guard from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Guard {
	return &Guard{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "resourceguard"),
		jobs:      make(map[string]ActiveJob),
		tempFiles: make(map[string]tempEntry),
		now:       time.Now,
		resident:  residentBytes,
	}
}

// RegisterJob records a background task as active. Registration is owned by
// the task itself; double registration indicates a dedup failure upstream.
func (g *Guard) RegisterJob(fingerprint, sourceRef string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.jobs[fingerprint]; exists {
		return fmt.Errorf("job %s already registered", fingerprint)
	}
	g.jobs[fingerprint] = ActiveJob{
		Fingerprint: fingerprint,
		SourceRef:   sourceRef,
		StartedAt:   g.now(),
	}
	return nil
}

// UnregisterJob removes a task from the active registry. Safe to call from a
// deferred exit path even when registration failed.
func (g *Guard) UnregisterJob(fingerprint string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.jobs, fingerprint)
}

// ActiveJobs returns a snapshot of the in-flight registry.
func (g *Guard) ActiveJobs() []ActiveJob {
	g.mu.RLock()
	defer g.mu.RUnlock()
	jobs := make([]ActiveJob, 0, len(g.jobs))
	for _, job := range g.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// RegisterTempFile records a path pending cleanup, attributed to the job
// fingerprint that created it. Files of a still-registered job never sweep,
// however long the job runs.
func (g *Guard) RegisterTempFile(owner, path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tempFiles[path] = tempEntry{owner: owner, registeredAt: g.now()}
}

// ReleaseTempFile removes the path from the registry and deletes the file.
// Called by the owning task once the file is no longer needed.
func (g *Guard) ReleaseTempFile(path string) {
	g.mu.Lock()
	delete(g.tempFiles, path)
	g.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		g.logger.Warn("remove temp file", logging.String("path", path), logging.Error(err))
	}
}

// CheckMemory returns a resource error when resident memory exceeds the
// configured ceiling. Sampled periodically and before large allocations.
func (g *Guard) CheckMemory() error {
	resident, err := g.resident()
	if err != nil {
		g.logger.Debug("resident memory unavailable", logging.Error(err))
		return nil
	}
	ceiling := g.cfg.Resources.MemoryCeilingBytes
	if ceiling > 0 && resident > ceiling {
		return services.Wrap(services.ErrResource, "resourceguard", "memory",
			fmt.Sprintf("resident %d bytes exceeds ceiling %d", resident, ceiling), nil)
	}
	return nil
}

// AdmitFullDownload gates a new full-source download on memory headroom and
// free disk space in the staging directory.
func (g *Guard) AdmitFullDownload() error {
	if err := g.CheckMemory(); err != nil {
		return err
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(g.cfg.Paths.StagingDir, &stat); err != nil {
		// Staging dir may not exist yet on first use; admission defers to
		// the download itself in that case.
		return nil
	}
	free := int64(stat.Bavail) * int64(stat.Bsize)
	if min := g.cfg.Extraction.MinDiskHeadroomBytes; min > 0 && free < min {
		return services.Wrap(services.ErrResource, "resourceguard", "disk",
			fmt.Sprintf("%d bytes free in staging, need %d", free, min), nil)
	}
	return nil
}

// Sweep deletes registered temp files older than the configured age. Files
// registered by a still-active job are left alone regardless of age.
func (g *Guard) Sweep() int {
	maxAge := time.Duration(g.cfg.Resources.TempFileMaxAgeSeconds) * time.Second
	cutoff := g.now().Add(-maxAge)

	g.mu.Lock()
	stale := make([]string, 0)
	for path, entry := range g.tempFiles {
		if entry.registeredAt.Before(cutoff) && !g.ownerActiveLocked(entry.owner) {
			stale = append(stale, path)
			delete(g.tempFiles, path)
		}
	}
	g.mu.Unlock()

	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			g.logger.Warn("sweep temp file", logging.String("path", path), logging.Error(err))
			continue
		}
		g.logger.Info("swept orphaned temp file", logging.String("path", path))
	}
	return len(stale)
}

func (g *Guard) ownerActiveLocked(owner string) bool {
	if owner == "" {
		return false
	}
	_, active := g.jobs[owner]
	return active
}

// RunSweeper periodically samples memory and sweeps stale temp files until
// the context is canceled.
func (g *Guard) RunSweeper(ctx context.Context) {
	interval := time.Duration(g.cfg.Resources.SweepIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.CheckMemory(); err != nil {
				g.logger.Warn("memory ceiling exceeded", logging.Error(err))
				g.Sweep()
				continue
			}
			g.Sweep()
		}
	}
}
