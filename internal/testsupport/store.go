package testsupport

import (
	"context"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/jobstore"
)

// MustOpenStore opens a jobstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewWorkItem creates a queued work item for tests using the provided store.
func NewWorkItem(t testing.TB, store *jobstore.Store, fingerprint string, kind jobstore.Kind) *jobstore.WorkItem {
	t.Helper()

	item, created, err := store.CreateIfAbsent(context.Background(), fingerprint, kind)
	if err != nil {
		t.Fatalf("store.CreateIfAbsent: %v", err)
	}
	if !created {
		t.Fatalf("work item %s already existed", fingerprint)
	}
	return item
}
