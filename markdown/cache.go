package markdown

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached render stays valid.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	src    string
	result Result
	stored time.Time
}

// Cache memoizes render results by a rolling hash of the source. Entries
// keep their source, so a hash collision is a miss rather than a wrong hit.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint32]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache returns an empty Cache. A ttl <= 0 uses DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{entries: make(map[uint32]cacheEntry), ttl: ttl, now: time.Now}
}

// Hash is the cache key of src: h = h*31 + r over its runes.
func Hash(src string) uint32 {
	var h uint32
	for _, r := range src {
		h = h*31 + uint32(r)
	}
	return h
}

// Get returns a copy of the cached result for src.
func (c *Cache) Get(src string) (Result, bool) {
	key := Hash(src)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.src != src {
		return Result{}, false
	}
	if c.now().Sub(e.stored) >= c.ttl {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.stored.Equal(e.stored) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Result{}, false
	}
	return cloneResult(e.result), true
}

// Put stores res for src, replacing whatever shared its hash.
func (c *Cache) Put(src string, res Result) {
	c.mu.Lock()
	c.entries[Hash(src)] = cacheEntry{src: src, result: cloneResult(res), stored: c.now()}
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[uint32]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneResult(r Result) Result {
	r.Fragment = CloneTree(r.Fragment)
	r.TOCEntries = append([]Heading(nil), r.TOCEntries...)
	r.Headings = append([]Heading(nil), r.Headings...)
	r.SEO.Headings = append([]Heading(nil), r.SEO.Headings...)
	return r
}
