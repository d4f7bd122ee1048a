package fixcache

import "sync"

// MemoryCache is the per-process layer in front of DiskCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Digest][]Record
}

// NewMemoryCache creates a MemoryCache with the given capacity hint.
func NewMemoryCache(capHint int) *MemoryCache {
	return &MemoryCache{entries: make(map[Digest][]Record, capHint)}
}

// Get returns the records stored under key.
func (c *MemoryCache) Get(key Digest) ([]Record, bool) {
	c.mu.RLock()
	recs, ok := c.entries[key]
	c.mu.RUnlock()
	return recs, ok
}

// Put stores records under key. Callers must not modify recs afterwards.
func (c *MemoryCache) Put(key Digest, recs []Record) {
	c.mu.Lock()
	c.entries[key] = recs
	c.mu.Unlock()
}

// Len returns the number of cached documents.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
