// Package clientcache memoizes expensive-to-build clients (tokenizer
// encodings, SDK handles) keyed by string, with singleflight so concurrent
// callers share one construction.
package clientcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a type-safe lazy client registry
type Cache[T any] struct {
	cache   sync.Map
	sfGroup singleflight.Group
}

// NewCache creates an empty client cache
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{}
}

// GetOrCreate returns the cached client for key, building it with factory on
// first use. Under concurrent load the factory runs at most once per key.
func (c *Cache[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	if cached, ok := c.cache.Load(key); ok {
		return cached.(T), nil
	}

	v, err, _ := c.sfGroup.Do(key, func() (any, error) {
		// re-check after winning the singleflight slot
		if cached, ok := c.cache.Load(key); ok {
			return cached.(T), nil
		}

		client, err := factory()
		if err != nil {
			var zero T
			return zero, err
		}
		c.cache.Store(key, client)
		return client, nil
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Delete evicts one client
func (c *Cache[T]) Delete(key string) {
	c.cache.Delete(key)
}

// Clear evicts every client
func (c *Cache[T]) Clear() {
	c.cache.Range(func(key, value any) bool {
		c.cache.Delete(key)
		return true
	})
}
