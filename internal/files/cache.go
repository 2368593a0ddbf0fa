package files

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type cacheKey struct {
	folder string
	name   string
}

// Cache memoises Read results of an underlying Store. An entry is keyed by
// folder and name and dropped whenever that file is written through the
// cache. Listings and reads by id are not cached.
//
// Concurrent misses on the same file share one underlying read. A read that
// overlaps a write or an invalidation of its file is returned to its callers
// but not cached.
type Cache struct {
	next  Store
	group singleflight.Group

	mu      sync.RWMutex
	entries map[cacheKey][]byte
	gens    map[cacheKey]uint64
	epoch   uint64
}

// Compile-time interface check.
var _ Store = (*Cache)(nil)

// NewCache wraps next.
func NewCache(next Store) *Cache {
	return &Cache{
		next:    next,
		entries: make(map[cacheKey][]byte),
		gens:    make(map[cacheKey]uint64),
	}
}

func (k cacheKey) String() string {
	return k.folder + "\x00" + k.name
}

// List delegates to the underlying store.
func (c *Cache) List(ctx context.Context, folder string) ([]File, error) {
	return c.next.List(ctx, folder)
}

// Read serves folder/name from the cache, loading it on a miss. Missing
// files are not cached.
func (c *Cache) Read(ctx context.Context, folder, name string) ([]byte, error) {
	key := cacheKey{folder, name}

	c.mu.RLock()
	content, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return content, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		gen, epoch := c.gens[key], c.epoch
		c.mu.RUnlock()

		content, err := c.next.Read(ctx, folder, name)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen && c.epoch == epoch {
			c.entries[key] = content
		}
		c.mu.Unlock()
		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Write stores through and invalidates the entry.
func (c *Cache) Write(ctx context.Context, folder, name, mimeType string, content []byte) (File, error) {
	f, err := c.next.Write(ctx, folder, name, mimeType, content)
	c.Invalidate(folder, name)
	return f, err
}

// ReadByID delegates to the underlying store.
func (c *Cache) ReadByID(ctx context.Context, id string) ([]byte, error) {
	return c.next.ReadByID(ctx, id)
}

// Invalidate drops the entry for folder/name. Reads of that file already in
// flight will not repopulate it.
func (c *Cache) Invalidate(folder, name string) {
	key := cacheKey{folder, name}
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.group.Forget(key.String())
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[cacheKey][]byte)
	c.epoch++
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
