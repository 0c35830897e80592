package sheet

import (
	"container/list"
	"sync"
)

// LRUCache is a thread-safe LRU cache of compiled programs.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	cache    map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key     string
	program *Program
}

// NewLRUCache creates a new LRU cache with the given capacity (minimum 1).
func NewLRUCache(capacity int) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a program from cache. Returns nil if not found.
// Programs are immutable, so the cached pointer is shared.
func (c *LRUCache) Get(key string) *Program {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[key]
	if !exists {
		return nil
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program
}

// Put adds a program to the cache, evicting the least recently used if full.
func (c *LRUCache) Put(key string, program *Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[key]; exists {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).program = program
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.cache, oldest.Value.(*cacheEntry).key)
			c.order.Remove(oldest)
		}
	}

	elem := c.order.PushFront(&cacheEntry{key: key, program: program})
	c.cache[key] = elem
}

// Len returns the number of cached programs.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

