package booking

import (
	"fmt"
	"testing"
	"time"
)

func TestMonthCacheStoreAndGet(t *testing.T) {
	current := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	cache := NewMonthCache(30*time.Second, 8, func() time.Time { return current })

	key := monthCacheKey("resource-1", 2024, time.January)
	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.Store(key, []MonthDay{{Day: 1, HasBookings: true, BookedCount: 2}})

	days, ok := cache.Get(key)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if len(days) != 1 || days[0].BookedCount != 2 {
		t.Fatalf("unexpected cached days: %+v", days)
	}

	// The cache hands out copies; mutating the result must not leak back.
	days[0].BookedCount = 99
	again, _ := cache.Get(key)
	if again[0].BookedCount != 2 {
		t.Fatalf("cache entry mutated through returned slice: %+v", again)
	}
}

func TestMonthCacheExpiry(t *testing.T) {
	current := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	cache := NewMonthCache(30*time.Second, 8, func() time.Time { return current })

	key := monthCacheKey("resource-1", 2024, time.January)
	cache.Store(key, []MonthDay{{Day: 1}})

	current = current.Add(29 * time.Second)
	if _, ok := cache.Get(key); !ok {
		t.Fatal("entry expired early")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get(key); ok {
		t.Fatal("entry outlived its TTL")
	}
}

func TestMonthCacheInvalidate(t *testing.T) {
	cache := NewMonthCache(time.Minute, 8, nil)

	key := monthCacheKey("resource-1", 2024, time.January)
	cache.Store(key, []MonthDay{{Day: 1}})
	cache.Invalidate()

	if _, ok := cache.Get(key); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestMonthCacheBoundsEntries(t *testing.T) {
	cache := NewMonthCache(time.Minute, 3, nil)

	for i := 0; i < 10; i++ {
		cache.Store(monthCacheKey(fmt.Sprintf("resource-%d", i), 2024, time.January), []MonthDay{{Day: 1}})
	}

	cache.mu.RLock()
	size := len(cache.entries)
	cache.mu.RUnlock()
	if size > 3 {
		t.Fatalf("cache exceeded bound: %d entries", size)
	}
}

func TestMonthCacheKeySeparatesResourcesAndMonths(t *testing.T) {
	a := monthCacheKey("resource-1", 2024, time.January)
	b := monthCacheKey("resource-2", 2024, time.January)
	c := monthCacheKey("resource-1", 2024, time.February)
	if a == b || a == c {
		t.Fatalf("cache keys collide: %q %q %q", a, b, c)
	}
}
