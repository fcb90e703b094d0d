package bm25

import "sync"

// Cache holds one lexical index per project. The map itself is guarded; the
// indexes inside deliberately are not (see package doc).
type Cache struct {
	mu      sync.Mutex
	indexes map[string]*Index
}

// NewCache creates an empty per-project index cache.
func NewCache() *Cache {
	return &Cache{indexes: make(map[string]*Index)}
}

// Get returns the index for a project, creating it on first use.
func (c *Cache) Get(projectID string) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.indexes[projectID]
	if !ok {
		idx = New()
		c.indexes[projectID] = idx
	}
	return idx
}

// MarkDirty flags a project's index for rebuild. Called on every ingestion.
func (c *Cache) MarkDirty(projectID string) {
	c.Get(projectID).MarkDirty()
}

// Drop removes a project's index entirely (project deleted).
func (c *Cache) Drop(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.indexes, projectID)
}
