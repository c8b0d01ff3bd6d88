package metadata

import (
	"container/list"
	"sync"
	"time"
)

// Cache stores fetched metadata by normalized URL.
type Cache interface {
	Get(key string) (*Metadata, bool)
	Put(key string, md *Metadata)
}

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type cacheEntry struct {
	key       string
	value     *Metadata
	fetchedAt time.Time
}

// MemoryCache is a process-local cache with a fixed capacity. When full, the
// oldest inserted key is evicted regardless of how often it was read.
// Expired entries read as misses but stay in place until evicted or
// overwritten.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	size    int
	entries map[string]*list.Element
	order   *list.List // front = oldest insertion
	clock   Clock
}

// NewMemoryCache creates a MemoryCache holding at most size entries, each
// fresh for ttl.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = CacheSize
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &MemoryCache{
		ttl:     ttl,
		size:    size,
		entries: make(map[string]*list.Element, size),
		order:   list.New(),
		clock:   realClock{},
	}
}

// Get returns the cached value for key if it is younger than the TTL.
func (c *MemoryCache) Get(key string) (*Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if c.clock.Now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Put inserts or overwrites key. Overwriting keeps the key's original
// insertion position.
func (c *MemoryCache) Put(key string, md *Metadata) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.value = md
		e.fetchedAt = now
		return
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, value: md, fetchedAt: now})

	if c.order.Len() > c.size {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
