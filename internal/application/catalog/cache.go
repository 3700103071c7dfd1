package catalog

import (
	"context"
	"log/slog"
	"sync"
)

// Loader reads the published catalog in relevance order.
type Loader func(ctx context.Context) ([]Entry, error)

// Cache is a process-local read-through cache of the published catalog.
// Writers that move a course into or out of published call Invalidate.
type Cache struct {
	mu      sync.Mutex
	load    Loader
	entries []Entry
	valid   bool
}

// NewCache creates an empty cache backed by load.
func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// Entries returns the cached catalog, loading it on first use or after Invalidate.
// A failed load leaves the cache empty so the next call retries.
// The returned slice is shared; callers must not modify it.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid {
		return c.entries, nil
	}
	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	c.valid = true
	slog.Debug("catalog_cache_loaded", "courses", len(entries))
	return entries, nil
}

// Invalidate drops the cached catalog.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.valid = false
	c.mu.Unlock()
	slog.Debug("catalog_cache_invalidated")
}
