// Package cache provides the get-or-compute result cache shared by the
// convergence agent and parameter sweeps. It guarantees at most one
// computation per distinct key: repeat requests hit the stored value, and
// concurrent requests for an in-flight key are coalesced onto the single
// running computation instead of duplicating work.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc produces the scalar metric for a key. A returned error is
// propagated to every coalesced caller and nothing is stored, so a failed
// trial can never poison the cache with a partial entry.
type ComputeFunc func(ctx context.Context) (float64, error)

// Cache is an injectable, thread-safe metric cache. The zero value is not
// usable; construct with New.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]float64
	group    singleflight.Group
	computes int
}

func New() *Cache {
	return &Cache{entries: make(map[string]float64)}
}

// GetOrCompute returns the cached value for key, computing it at most once.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn ComputeFunc) (float64, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a previous caller may have stored
		// the value between our read and Do.
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := fn(ctx)
		if err != nil {
			return 0.0, err
		}

		c.mu.Lock()
		c.entries[key] = v
		c.computes++
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

// Lookup reports a stored value without computing.
func (c *Cache) Lookup(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a value directly. Used when warming from a persisted file.
func (c *Cache) Put(key string, v float64) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Computes returns how many times a compute function actually ran.
func (c *Cache) Computes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.computes
}
