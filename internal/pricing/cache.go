package pricing

import (
	"sync"
	"time"
)

// cacheKey identifies an observation by barcode and store. A struct key
// avoids the collision risk of concatenated string keys.
type cacheKey struct {
	Barcode string
	StoreID string
}

// Cache is the in-memory, per-process price observation cache. Entries are
// valid for the configured TTL from their capture timestamp; stale entries
// are ignored on read rather than evicted, so the map grows for the process
// lifetime. Failed lookups are never cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]PriceObservation
	ttl     time.Duration
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[cacheKey]PriceObservation),
		ttl:     ttl,
	}
}

// Get returns the non-expired observation for a barcode at a store.
// An expired or absent entry is a miss.
func (c *Cache) Get(barcode, storeID string) (PriceObservation, bool) {
	c.mu.RLock()
	obs, ok := c.entries[cacheKey{Barcode: barcode, StoreID: storeID}]
	c.mu.RUnlock()

	if !ok || time.Since(obs.CapturedAt) >= c.ttl {
		return PriceObservation{}, false
	}
	return obs, true
}

// Put stores an observation, replacing any previous entry for its key.
func (c *Cache) Put(obs PriceObservation) {
	c.mu.Lock()
	c.entries[cacheKey{Barcode: obs.Barcode, StoreID: obs.StoreID}] = obs
	c.mu.Unlock()
}

// Len returns the number of entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
