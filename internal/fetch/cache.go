package fetch

import (
	"sync"
	"time"
)

// Cache is a single-slot TTL cache for fetched snapshots. The whole
// spreadsheet is one unit of work, so there is exactly one slot. The
// clock is injectable for tests.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	snap     Snapshot
	storedAt time.Time
	valid    bool
}

// NewCache creates a cache with the given TTL. A nil now falls back to
// time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now}
}

// GetOrFetch returns the cached snapshot when it is still fresh,
// otherwise calls produce and stores its result. Errors are never
// cached. The lock is not held across produce: two concurrent misses
// may both fetch, which is fine for an idempotent read.
func (c *Cache) GetOrFetch(produce func() (Snapshot, error)) (Snapshot, error) {
	c.mu.Lock()
	if c.valid && c.now().Sub(c.storedAt) < c.ttl {
		snap := c.snap
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	snap, err := produce()
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	c.snap = snap
	c.storedAt = c.now()
	c.valid = true
	c.mu.Unlock()
	return snap, nil
}

// Invalidate drops the slot so the next call fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Age reports how old the cached snapshot is. ok is false when the slot
// is empty or expired.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return 0, false
	}
	age := c.now().Sub(c.storedAt)
	if age >= c.ttl {
		return 0, false
	}
	return age, true
}
