package derivedcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/testsupport"
)

func seedCompletedEdit(t *testing.T, store *jobstore.Store, fingerprint, parentKey string) {
	t.Helper()
	ctx := context.Background()
	testsupport.NewWorkItem(t, store, fingerprint, jobstore.KindVideoEdit)
	if err := store.MarkProcessing(ctx, fingerprint); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	result := jobstore.Result{
		Kind: jobstore.KindVideoEdit,
		Edit: &jobstore.EditResult{
			ParentKey: parentKey,
			OutputURL: "https://media.example.com/" + fingerprint + ".mp4",
			StartTime: 10,
			EndTime:   40,
		},
	}
	if err := store.MarkCompleted(ctx, fingerprint, fingerprint+".mp4", result); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
}

func TestGetChildrenBlockingMiss(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedCompletedEdit(t, store, "edit-1", "videos/episode-1")
	seedCompletedEdit(t, store, "edit-2", "videos/episode-1")
	seedCompletedEdit(t, store, "other", "videos/episode-2")

	cache := New(cfg, store, logging.NewNop())
	children := cache.GetChildren(context.Background(), "videos/episode-1")
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	for _, child := range children {
		if child.OutputURL == "" || child.Fingerprint == "other" {
			t.Fatalf("unexpected child %+v", child)
		}
	}
}

func TestGetChildrenNonBlockingMissReturnsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Cache.BlockOnMiss = false
	store := testsupport.MustOpenStore(t, cfg)
	seedCompletedEdit(t, store, "edit-1", "videos/episode-1")

	cache := New(cfg, store, logging.NewNop())
	if children := cache.GetChildren(context.Background(), "videos/episode-1"); children != nil {
		t.Fatalf("non-blocking miss should return nothing, got %+v", children)
	}

	// The kicked-off refresh eventually populates the entry.
	deadline := time.Now().Add(2 * time.Second)
	for cache.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("background refresh never populated the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedCompletedEdit(t, store, "edit-1", "videos/episode-1")
	seedCompletedEdit(t, store, "edit-2", "videos/episode-1")

	cache := New(cfg, store, logging.NewNop())
	first, err := cache.refresh(context.Background(), "videos/episode-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	second, err := cache.refresh(context.Background(), "videos/episode-1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(first.Children) != len(second.Children) {
		t.Fatalf("child counts differ: %d vs %d", len(first.Children), len(second.Children))
	}
	for i := range first.Children {
		if first.Children[i] != second.Children[i] {
			t.Fatalf("child %d differs between refreshes: %+v vs %+v", i, first.Children[i], second.Children[i])
		}
	}
}

func TestExpiredEntryServedStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedCompletedEdit(t, store, "edit-1", "videos/episode-1")

	cache := New(cfg, store, logging.NewNop())
	if children := cache.GetChildren(context.Background(), "videos/episode-1"); len(children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(children))
	}

	// Jump past the TTL: the entry is expired but must still serve.
	cache.now = func() time.Time {
		return time.Now().Add(time.Duration(cfg.Cache.TTLSeconds+1) * time.Second)
	}
	if children := cache.GetChildren(context.Background(), "videos/episode-1"); len(children) != 1 {
		t.Fatalf("expired entry must be served stale, got %d children", len(children))
	}
}

func TestInvalidateForcesRefetchOfNewChildren(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	seedCompletedEdit(t, store, "edit-1", "videos/episode-1")

	cache := New(cfg, store, logging.NewNop())
	if children := cache.GetChildren(context.Background(), "videos/episode-1"); len(children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(children))
	}

	seedCompletedEdit(t, store, "edit-2", "videos/episode-1")
	// Fresh entry still serves the old list until invalidated.
	if children := cache.GetChildren(context.Background(), "videos/episode-1"); len(children) != 1 {
		t.Fatalf("fresh entry should serve cached list, got %d children", len(children))
	}

	cache.Invalidate("videos/episode-1")
	if children := cache.GetChildren(context.Background(), "videos/episode-1"); len(children) != 2 {
		t.Fatalf("expected refetch to see both children, got %d", len(children))
	}
}

func TestChildrenSortedByRecency(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	for i := 0; i < 3; i++ {
		seedCompletedEdit(t, store, fmt.Sprintf("edit-%d", i), "videos/episode-1")
	}

	cache := New(cfg, store, logging.NewNop())
	children := cache.GetChildren(context.Background(), "videos/episode-1")
	for i := 1; i < len(children); i++ {
		if children[i].CreatedAt.After(children[i-1].CreatedAt) {
			t.Fatalf("children not sorted newest first: %+v", children)
		}
	}
}
