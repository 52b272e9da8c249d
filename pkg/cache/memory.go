package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// sweepInterval is how often Set purges expired entries.
const sweepInterval = time.Minute

// MemoryCache keeps entries in process memory. The server falls back to it
// when no Redis address is configured.
//
// Expired entries are dropped when read, by [MemoryCache.Cleanup], and by
// the first Set after sweepInterval has passed since the last purge.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	closed    bool
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get retrieves a value; expired entries are evicted and reported as a miss.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.Data), true, nil
}

// Set stores a copy of data.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	now := c.now()
	if now.Sub(c.lastSweep) >= sweepInterval {
		c.purge(now)
	}
	e := cacheEntry{Data: slices.Clone(data)}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Cleanup removes every expired entry.
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.purge(c.now())
	return nil
}

// purge drops entries expired at now. Callers hold c.mu.
func (c *MemoryCache) purge(now time.Time) {
	for k, e := range c.entries {
		if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
			delete(c.entries, k)
		}
	}
	c.lastSweep = now
}

// Delete removes a value.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops every entry; later calls to Get and Set fail with ErrClosed.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.closed = true
	return nil
}

var (
	_ Cache   = (*MemoryCache)(nil)
	_ Cleaner = (*MemoryCache)(nil)
)
