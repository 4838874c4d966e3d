package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	val T
	exp time.Time
}

// Cache is an in-memory TTL cache. Expiry is checked on read.
type Cache[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	ttl time.Duration
	now func() time.Time
}

// New returns a cache whose entries live for ttl unless Set is given another
// lifetime.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{m: make(map[string]entry[T]), ttl: ttl, now: time.Now}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.exp) {
		c.mu.Lock()
		if cur, ok := c.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.val, true
}

// Set stores v under key. A ttl <= 0 uses the cache default.
func (c *Cache[T]) Set(key string, v T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.m[key] = entry[T]{val: v, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache[T]) Remove(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// RemoveByPrefix drops every key starting with prefix and returns how many
// entries were removed.
func (c *Cache[T]) RemoveByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Len counts stored entries, expired ones included until they are read.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
