package booking

import (
	"fmt"
	"sync"
	"time"
)

// MonthCache stores recently computed month projections so repeated calendar
// requests do not re-scan the reservation range while nothing has changed.
// Every reservation write invalidates the whole cache.
type MonthCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]monthCacheEntry
}

type monthCacheEntry struct {
	days      []MonthDay
	expiresAt time.Time
}

// NewMonthCache constructs a cache with the given TTL and size bound. Zero
// or negative values fall back to 30 seconds and 128 entries.
func NewMonthCache(ttl time.Duration, maxEntries int, now func() time.Time) *MonthCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &MonthCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]monthCacheEntry),
	}
}

// Get returns the cached projection for the key when present and fresh.
func (c *MonthCache) Get(key string) ([]MonthDay, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneMonthDays(entry.days), true
}

// Store records a projection under the key.
func (c *MonthCache) Store(key string, days []MonthDay) {
	if c == nil {
		return
	}
	cloned := cloneMonthDays(days)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = monthCacheEntry{days: cloned, expiresAt: expiry}
}

// Invalidate drops every cached projection.
func (c *MonthCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]monthCacheEntry)
	c.mu.Unlock()
}

func (c *MonthCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MonthCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneMonthDays(days []MonthDay) []MonthDay {
	if len(days) == 0 {
		return nil
	}
	out := make([]MonthDay, len(days))
	copy(out, days)
	return out
}

func monthCacheKey(resourceID string, year int, month time.Month) string {
	return fmt.Sprintf("%s|%04d-%02d", resourceID, year, int(month))
}
