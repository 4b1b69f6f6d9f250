// Package memo provides typed, concurrency-safe memoization caches keyed by
// exact input. Two policies exist: unbounded (a map behind an RWMutex) and a
// bounded LRU. A miss only costs recomputation, so both give identical results.
//
// Concurrent callers racing on the same key compute independently; the first
// stored value wins and every caller receives it (insert-or-get).
package memo

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes the result of a deterministic computation per key.
type Cache[K comparable, V any] interface {
	// Get returns the cached value for key, computing and storing it on a miss.
	Get(key K, compute func(K) V) V
	// Len returns the number of cached entries.
	Len() int
}

// New returns an LRU cache bounded to size entries, or an unbounded cache
// when size <= 0.
func New[K comparable, V any](size int) Cache[K, V] {
	if size <= 0 {
		return NewUnbounded[K, V]()
	}
	return NewLRU[K, V](size)
}

// Unbounded keeps every entry for the lifetime of the cache.
type Unbounded[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewUnbounded returns an empty unbounded cache.
func NewUnbounded[K comparable, V any]() *Unbounded[K, V] {
	return &Unbounded[K, V]{entries: make(map[K]V)}
}

func (c *Unbounded[K, V]) Get(key K, compute func(K) V) V {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v
	}

	v = compute(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[key]; ok {
		return prev
	}
	c.entries[key] = v
	return v
}

func (c *Unbounded[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LRU evicts the least recently used entry once size is reached.
type LRU[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// NewLRU returns an LRU cache holding at most size entries.
func NewLRU[K comparable, V any](size int) *LRU[K, V] {
	// lru.New only fails for size <= 0.
	c, _ := lru.New[K, V](size)
	return &LRU[K, V]{cache: c}
}

func (c *LRU[K, V]) Get(key K, compute func(K) V) V {
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := compute(key)
	if prev, ok, _ := c.cache.PeekOrAdd(key, v); ok {
		return prev
	}
	return v
}

func (c *LRU[K, V]) Len() int {
	return c.cache.Len()
}
