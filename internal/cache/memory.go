package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache for single-node deployments
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	opts    options
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache(opts ...Option) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		opts:    buildOptions(opts),
	}
}

func (c *MemoryCache) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	k := c.opts.key(sessionID, key)

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if c.opts.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, k)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (c *MemoryCache) Set(ctx context.Context, sessionID, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.opts.key(sessionID, key)] = memoryEntry{
		value:     stored,
		expiresAt: c.opts.now().Add(c.opts.ttl),
	}
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, sessionID, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.opts.key(sessionID, key))
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
