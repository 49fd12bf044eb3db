package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"clipforge/internal/clipsynth"
	"clipforge/internal/config"
	"clipforge/internal/derivedcache"
	"clipforge/internal/editor"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/resourceguard"
)

// Daemon coordinates the synthesis and edit pipelines behind one HTTP
// surface and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobstore.Store
	guard  *resourceguard.Guard
	clips  *clipsynth.Orchestrator
	edits  *editor.Orchestrator
	cache  *derivedcache.Cache

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobsDBPath   string
	LockFilePath string
	ActiveJobs   int
	Counts       map[jobstore.Status]int
	CachedKeys   int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobstore.Store, guard *resourceguard.Guard, clips *clipsynth.Orchestrator, edits *editor.Orchestrator, cache *derivedcache.Cache, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || guard == nil || clips == nil || edits == nil || cache == nil {
		return nil, errors.New("daemon requires config, store, guard, orchestrators, and cache")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "clipforged.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		guard:    guard,
		clips:    clips,
		edits:    edits,
		cache:    cache,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, d.logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, launches the temp-file sweeper, and
// brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipforge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.guard.RunSweeper(runCtx)

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			cancel()
			d.cancel = nil
			_ = d.lock.Unlock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("clipforge daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API, stops background work, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("clipforge daemon stopped")
}

// Close stops the daemon and closes the job store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API listen address once started, for tests and logs.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status reports runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobsDBPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		ActiveJobs:   len(d.guard.ActiveJobs()),
		CachedKeys:   d.cache.Len(),
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.Counts = counts
	}
	return status
}
