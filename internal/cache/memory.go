package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tracefind/trace-search/internal/pkg/errors"
	"github.com/tracefind/trace-search/internal/result"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process response cache for single-instance
// deployments and tests. Responses are stored serialized so callers
// never share state with the cache, matching the redis backend.
// Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Put(_ context.Context, resp *result.RankedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return errors.CacheError("failed to marshal response", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[resp.QueryID] = memoryEntry{
		data:      data,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, queryID string) (*result.RankedResponse, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[queryID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, queryID)
		c.mu.Unlock()
		return nil, false, nil
	}

	var resp result.RankedResponse
	if err := json.Unmarshal(entry.data, &resp); err != nil {
		return nil, false, errors.CacheError("failed to unmarshal cached response", err)
	}
	return &resp, true, nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }
