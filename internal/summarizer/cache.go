package summarizer

import (
	"sync"
	"time"

	"github.com/repolens/repolens/internal/manifest"
)

// Cache is a mutex-guarded summary cache keyed by content hash. It is
// seeded from the previous manifest's persisted cache and snapshotted
// back into the new one after a run.
type Cache struct {
	mu      sync.Mutex
	entries manifest.SummaryCache
}

// NewCache seeds a cache from a previous run; prev may be nil.
func NewCache(prev manifest.SummaryCache) *Cache {
	entries := make(manifest.SummaryCache, len(prev))
	for k, v := range prev {
		entries[k] = v
	}
	return &Cache{entries: entries}
}

// ModuleKey is the cache key for a module-level summary.
func ModuleKey(contentHash string) string {
	return contentHash
}

// SymbolKey is the cache key for a symbol-level summary. The content
// hash prefix invalidates all of a file's symbol summaries when the
// file changes.
func SymbolKey(contentHash, symbolID string) string {
	return contentHash + ":" + symbolID
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry.Summary, ok
}

func (c *Cache) Put(key, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = manifest.SummaryCacheEntry{
		Summary:     summary,
		GeneratedAt: time.Now().UTC(),
	}
}

// Snapshot returns a copy safe to persist while the cache stays in use.
func (c *Cache) Snapshot() manifest.SummaryCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(manifest.SummaryCache, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
