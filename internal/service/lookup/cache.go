package lookup

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/study-helper/internal/domain"
)

const (
	DefaultCacheSize = 100
	DefaultCacheTTL  = 5 * time.Minute
)

// CacheEntry is a cached definition and the time it was stored.
type CacheEntry struct {
	Definition domain.Definition
	InsertedAt time.Time
}

// Cache maps normalized words to definitions. Entries expire after the TTL
// and the oldest insertion is evicted first when the cache is full.
type Cache struct {
	mu    sync.Mutex
	lru   *lru.Cache[string, CacheEntry]
	ttl   time.Duration
	clock clockwork.Clock
}

// NewCache creates a cache holding at most size entries.
func NewCache(size int, ttl time.Duration, clock clockwork.Clock) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	l, err := lru.New[string, CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("lookup: new cache: %w", err)
	}
	return &Cache{lru: l, ttl: ttl, clock: clock}, nil
}

// Get returns the live entry for word. An expired entry is removed and
// reported absent. Reads do not affect eviction order.
func (c *Cache) Get(word string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Peek(word)
	if !ok {
		return CacheEntry{}, false
	}
	if c.clock.Since(e.InsertedAt) > c.ttl {
		c.lru.Remove(word)
		return CacheEntry{}, false
	}
	e.Definition = e.Definition.Clone()
	return e, true
}

// Put stores def under word. Overwriting a key counts as a fresh
// insertion; an overflow evicts exactly the oldest entry.
func (c *Cache) Put(word string, def domain.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(word, CacheEntry{Definition: def.Clone(), InsertedAt: c.clock.Now()})
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
