package derivedcache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"clipforge/internal/config"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
)

// Child is one completed edit derived from a parent asset.
type Child struct {
	Fingerprint  string
	OutputURL    string
	StartTime    int64
	EndTime      int64
	UseSubtitles bool
	CreatedAt    time.Time
}

// Entry is the cached child list for one parent key.
type Entry struct {
	ParentKey string
	Children  []Child
	FetchedAt time.Time
	ExpiresAt time.Time
}

func (e *Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache serves derived-asset lookups with stale-while-revalidate semantics.
type Cache struct {
	cfg    *config.Config
	store  *jobstore.Store
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*Entry

	group singleflight.Group

	now func() time.Time
}

// New constructs a cache over the job store.
func New(cfg *config.Config, store *jobstore.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		cfg:     cfg,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "derivedcache"),
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// GetChildren returns the known children of a parent asset.
//
// A fresh entry is returned as-is. An expired entry is returned stale while
// one background refresh per key runs; concurrent callers share that
// refresh. On a miss the behavior follows the configured policy: block on a
// refresh, or return nothing while one is kicked off. Refresh failures are
// logged and leave the stale or absent entry untouched; they never reach
// the caller.
func (c *Cache) GetChildren(ctx context.Context, parentKey string) []Child {
	c.mu.RLock()
	entry, ok := c.entries[parentKey]
	c.mu.RUnlock()

	if ok {
		if entry.expired(c.now()) {
			c.refreshAsync(parentKey)
		}
		return entry.Children
	}

	if !c.cfg.Cache.BlockOnMiss {
		c.refreshAsync(parentKey)
		return nil
	}

	refreshed, err, _ := c.group.Do(parentKey, func() (any, error) {
		return c.refresh(ctx, parentKey)
	})
	if err != nil {
		c.logger.Warn("derived-asset refresh failed",
			logging.String("parent_key", parentKey),
			logging.Error(err))
		return nil
	}
	return refreshed.(*Entry).Children
}

// Invalidate drops the entry for a key so the next lookup refetches. Meant
// for callers that just created a new child under the key.
func (c *Cache) Invalidate(parentKey string) {
	c.mu.Lock()
	delete(c.entries, parentKey)
	c.mu.Unlock()
}

// Len reports the number of cached parent keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// refreshAsync starts one coalesced background refresh for the key. The
// singleflight group guarantees at most one in-flight refresh per key.
func (c *Cache) refreshAsync(parentKey string) {
	go func() {
		_, err, _ := c.group.Do(parentKey, func() (any, error) {
			return c.refresh(context.Background(), parentKey)
		})
		if err != nil {
			c.logger.Warn("derived-asset refresh failed",
				logging.String("parent_key", parentKey),
				logging.Error(err))
		}
	}()
}

// refresh rebuilds the entry for a key from the job store.
func (c *Cache) refresh(ctx context.Context, parentKey string) (*Entry, error) {
	items, err := c.store.CompletedEditsByParent(ctx, parentKey)
	if err != nil {
		return nil, err
	}

	children := make([]Child, 0, len(items))
	for _, item := range items {
		edit := item.Result.Edit
		if edit == nil {
			continue
		}
		children = append(children, Child{
			Fingerprint:  item.Fingerprint,
			OutputURL:    edit.OutputURL,
			StartTime:    edit.StartTime,
			EndTime:      edit.EndTime,
			UseSubtitles: edit.UseSubtitles,
			CreatedAt:    item.CreatedAt,
		})
	}
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].CreatedAt.After(children[j].CreatedAt)
	})

	fetched := c.now()
	entry := &Entry{
		ParentKey: parentKey,
		Children:  children,
		FetchedAt: fetched,
		ExpiresAt: fetched.Add(time.Duration(c.cfg.Cache.TTLSeconds) * time.Second),
	}

	c.mu.Lock()
	c.entries[parentKey] = entry
	c.mu.Unlock()
	return entry, nil
}
