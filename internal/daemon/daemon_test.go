package daemon

import (
	"context"
	"testing"

	"clipforge/internal/api"
	"clipforge/internal/clipsynth"
	"clipforge/internal/config"
	"clipforge/internal/derivedcache"
	"clipforge/internal/editor"
	"clipforge/internal/extraction"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffmpeg"
	"clipforge/internal/render"
	"clipforge/internal/resourceguard"
	"clipforge/internal/storage"
	"clipforge/internal/testsupport"
)

func newTestDaemon(t *testing.T) (*Daemon, *jobstore.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	guard := resourceguard.New(cfg, logging.NewNop())
	runner := ffmpeg.New(cfg.FFmpegBinary())
	objects := storage.NewFSClient(cfg.Paths.StorageDir, cfg.Storage.BaseURL)
	engine := render.NewEngine(cfg, guard, runner, logging.NewNop())
	cache := derivedcache.New(cfg, store, logging.NewNop())
	executor := extraction.NewExecutor(cfg, guard, runner, logging.NewNop())
	clips := clipsynth.New(cfg, store, guard, engine, runner, objects, logging.NewNop())
	edits := editor.New(cfg, store, guard, executor, objects, cache, logging.NewNop())

	d, err := New(cfg, store, guard, clips, edits, cache, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store, cfg
}

func startDaemon(t *testing.T, d *Daemon) *api.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	return api.NewClient(d.Addr())
}

func TestDaemonStatusEndpoint(t *testing.T) {
	d, _, _ := newTestDaemon(t)
	client := startDaemon(t, d)

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("client.Status: %v", err)
	}
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if status.JobsDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("status should carry paths: %+v", status)
	}
}

func TestDaemonSingleInstanceLock(t *testing.T) {
	d, store, cfg := newTestDaemon(t)
	startDaemon(t, d)

	guard := resourceguard.New(cfg, logging.NewNop())
	cache := derivedcache.New(cfg, store, logging.NewNop())
	runner := ffmpeg.New(cfg.FFmpegBinary())
	objects := storage.NewFSClient(cfg.Paths.StorageDir, cfg.Storage.BaseURL)
	engine := render.NewEngine(cfg, guard, runner, logging.NewNop())
	executor := extraction.NewExecutor(cfg, guard, runner, logging.NewNop())
	clips := clipsynth.New(cfg, store, guard, engine, runner, objects, logging.NewNop())
	edits := editor.New(cfg, store, guard, executor, objects, cache, logging.NewNop())

	second, err := New(cfg, store, guard, clips, edits, cache, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance must fail to acquire the lock")
	}
}

func TestJobLookupContract(t *testing.T) {
	d, store, _ := newTestDaemon(t)
	client := startDaemon(t, d)
	ctx := context.Background()

	// Unknown fingerprints are a normal polling answer.
	unknown, err := client.Job(ctx, "no-such-fingerprint")
	if err != nil {
		t.Fatalf("client.Job: %v", err)
	}
	if unknown.Status != api.JobNotFound {
		t.Fatalf("expected not_found, got %q", unknown.Status)
	}

	// Queued items read as processing.
	testsupport.NewWorkItem(t, store, "fp-queued", jobstore.KindVideoEdit)
	queued, err := client.Job(ctx, "fp-queued")
	if err != nil {
		t.Fatalf("client.Job: %v", err)
	}
	if queued.Status != api.JobProcessing {
		t.Fatalf("queued items must report processing, got %q", queued.Status)
	}

	// Completed items carry the asset reference.
	testsupport.NewWorkItem(t, store, "fp-done", jobstore.KindVideoEdit)
	if err := store.MarkProcessing(ctx, "fp-done"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	result := jobstore.Result{
		Kind: jobstore.KindVideoEdit,
		Edit: &jobstore.EditResult{ParentKey: "videos/a", OutputURL: "https://media.example.com/a.mp4"},
	}
	if err := store.MarkCompleted(ctx, "fp-done", "a.mp4", result); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	done, err := client.Job(ctx, "fp-done")
	if err != nil {
		t.Fatalf("client.Job: %v", err)
	}
	if done.Status != api.JobCompleted || done.Asset == nil || done.Asset.URL == "" {
		t.Fatalf("completed lookup must carry the asset, got %+v", done)
	}

	// Failed items preserve the error message.
	testsupport.NewWorkItem(t, store, "fp-bad", jobstore.KindVideoEdit)
	if err := store.MarkProcessing(ctx, "fp-bad"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := store.MarkFailed(ctx, "fp-bad", "probe failed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	failed, err := client.Job(ctx, "fp-bad")
	if err != nil {
		t.Fatalf("client.Job: %v", err)
	}
	if failed.Status != api.JobFailed || failed.Error != "probe failed" {
		t.Fatalf("failed lookup must carry the message, got %+v", failed)
	}
}

func TestJobsListFiltersByStatus(t *testing.T) {
	d, store, _ := newTestDaemon(t)
	client := startDaemon(t, d)
	ctx := context.Background()

	testsupport.NewWorkItem(t, store, "fp-1", jobstore.KindClipSynthesis)
	testsupport.NewWorkItem(t, store, "fp-2", jobstore.KindVideoEdit)
	if err := store.MarkProcessing(ctx, "fp-2"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	all, err := client.Jobs(ctx)
	if err != nil {
		t.Fatalf("client.Jobs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}

	processing, err := client.Jobs(ctx, "processing")
	if err != nil {
		t.Fatalf("client.Jobs: %v", err)
	}
	if len(processing) != 1 || processing[0].Fingerprint != "fp-2" {
		t.Fatalf("unexpected filter result: %+v", processing)
	}

	if _, err := client.Jobs(ctx, "bogus"); err == nil {
		t.Fatal("unknown status filters must be rejected")
	}
}

func TestEditEndpointRejectsBadRequests(t *testing.T) {
	d, store, _ := newTestDaemon(t)
	client := startDaemon(t, d)
	ctx := context.Background()

	// Duration over the cap fails validation synchronously.
	_, err := client.Edit(ctx, api.EditRequest{
		SourceLocation: "https://storage.example.com/videos/a.mp4",
		StartTime:      5,
		EndTime:        610,
	})
	if err == nil {
		t.Fatal("expected rejection for oversized duration")
	}

	// Untrusted domains are rejected before any probe.
	_, err = client.Edit(ctx, api.EditRequest{
		SourceLocation: "https://elsewhere.example.org/videos/a.mp4",
		StartTime:      0,
		EndTime:        30,
	})
	if err == nil {
		t.Fatal("expected rejection for untrusted domain")
	}

	items, listErr := store.List(ctx)
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(items) != 0 {
		t.Fatalf("rejected requests must not create work items, got %d", len(items))
	}
}

func TestChildrenEndpoint(t *testing.T) {
	d, store, _ := newTestDaemon(t)
	client := startDaemon(t, d)
	ctx := context.Background()

	testsupport.NewWorkItem(t, store, "fp-child", jobstore.KindVideoEdit)
	if err := store.MarkProcessing(ctx, "fp-child"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	result := jobstore.Result{
		Kind: jobstore.KindVideoEdit,
		Edit: &jobstore.EditResult{
			ParentKey: "videos/episode-12",
			OutputURL: "https://media.example.com/child.mp4",
			StartTime: 10,
			EndTime:   40,
		},
	}
	if err := store.MarkCompleted(ctx, "fp-child", "child.mp4", result); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	response, err := client.Children(ctx, "https://storage.example.com/videos/episode-12.mp4")
	if err != nil {
		t.Fatalf("client.Children: %v", err)
	}
	if len(response.Children) != 1 || response.Children[0].OutputURL != "https://media.example.com/child.mp4" {
		t.Fatalf("unexpected children: %+v", response)
	}
}
