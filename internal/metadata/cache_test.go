package metadata

import (
	"fmt"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCache(size int) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(size, CacheTTL)
	c.clock = clock
	return c, clock
}

func TestMemoryCache_Miss(t *testing.T) {
	c, _ := newTestCache(CacheSize)
	if _, ok := c.Get("https://example.com"); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestMemoryCache_HitWithinTTL(t *testing.T) {
	c, clock := newTestCache(CacheSize)
	md := &Metadata{Title: "Milk"}
	c.Put("https://shop.example/milk", md)

	clock.Advance(29 * time.Minute)
	got, ok := c.Get("https://shop.example/milk")
	if !ok {
		t.Fatal("expected hit within TTL")
	}
	if got != md {
		t.Error("expected the identical cached value")
	}
}

func TestMemoryCache_ExpiredIsMissButKept(t *testing.T) {
	c, clock := newTestCache(CacheSize)
	c.Put("https://shop.example/milk", &Metadata{Title: "Milk"})

	clock.Advance(31 * time.Minute)
	if _, ok := c.Get("https://shop.example/milk"); ok {
		t.Fatal("expected miss after TTL")
	}
	if c.Len() != 1 {
		t.Errorf("expired entry should not be purged, len = %d", c.Len())
	}
}

func TestMemoryCache_OverwriteRefreshesTimestamp(t *testing.T) {
	c, clock := newTestCache(CacheSize)
	c.Put("k", &Metadata{Title: "old"})
	clock.Advance(25 * time.Minute)
	c.Put("k", &Metadata{Title: "new"})
	clock.Advance(25 * time.Minute)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after overwrite")
	}
	if got.Title != "new" {
		t.Errorf("title = %q, want %q", got.Title, "new")
	}
}

func TestMemoryCache_EvictsOldestInserted(t *testing.T) {
	c, _ := newTestCache(CacheSize)
	for i := 0; i < CacheSize; i++ {
		c.Put(fmt.Sprintf("https://example.com/%d", i), &Metadata{Title: fmt.Sprint(i)})
	}

	// Reading the oldest entry must not protect it from eviction.
	if _, ok := c.Get("https://example.com/0"); !ok {
		t.Fatal("expected entry 0 before eviction")
	}

	c.Put("https://example.com/new", &Metadata{Title: "new"})

	if c.Len() != CacheSize {
		t.Fatalf("len = %d, want %d", c.Len(), CacheSize)
	}
	if _, ok := c.Get("https://example.com/0"); ok {
		t.Error("expected oldest inserted entry to be evicted")
	}
	for _, key := range []string{"https://example.com/1", "https://example.com/99", "https://example.com/new"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to remain cached", key)
		}
	}
}

func TestMemoryCache_OverwriteKeepsInsertionPosition(t *testing.T) {
	c, _ := newTestCache(3)
	c.Put("a", &Metadata{})
	c.Put("b", &Metadata{})
	c.Put("c", &Metadata{})
	c.Put("a", &Metadata{Title: "again"})
	c.Put("d", &Metadata{})

	if _, ok := c.Get("a"); ok {
		t.Error("overwritten key should still be the oldest insertion")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
}
