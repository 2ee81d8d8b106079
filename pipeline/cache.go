package pipeline

import (
	"container/list"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache memoizes pipeline results per request key with a TTL and LRU
// eviction. It sits at the boundary to the presentation layer: correctness
// never depends on it and Clear drops every entry without affecting computed
// results.
type Cache struct {
	capacity int
	ttl      time.Duration
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	lru      *list.List
}

type cacheEntry struct {
	key     string
	result  any
	stored  time.Time
	element *list.Element
}

// NewCache creates a cache with the given capacity and entry lifetime.
func NewCache(capacity int, ttl time.Duration) *Cache {
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
		lru:      list.New(),
	}
}

// Key builds a deterministic cache key from request parameters.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", sum)
}

// Get returns the cached result for key, expiring stale entries.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.stored) > c.ttl {
		c.removeLocked(key)
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.result, true
}

// Put stores a result, evicting the least recently used entry when full.
func (c *Cache) Put(key string, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.result = result
		entry.stored = time.Now()
		c.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{key: key, result: result, stored: time.Now()}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.removeLocked(oldest.Value.(*cacheEntry).key)
		}
	}
}

// Clear invalidates every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.lru = list.New()
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(key string) {
	if entry, ok := c.entries[key]; ok {
		c.lru.Remove(entry.element)
		delete(c.entries, key)
	}
}
