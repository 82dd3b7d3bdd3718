// Package cache implements the dual-tier response cache: an exact tier keyed
// by prompt digest and a semantic tier matched by embedding similarity.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by stores when a key does not exist or has expired
var ErrNotFound = errors.New("cache: key not found")

// Store is the key-value backend the cache engine runs on. Implementations
// must treat a zero TTL as "no expiry".
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	ListAppend(ctx context.Context, key string, value string) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ListTrim(ctx context.Context, key string, start, stop int64) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	FlushAll(ctx context.Context) error
	Close() error
}

// Keys builds the cache key layout, optionally scoped by a namespace so
// multiple accounts can share one backend without overlap.
type Keys struct {
	namespace string
}

// NewKeys creates a key builder with an optional namespace prefix
func NewKeys(namespace string) Keys {
	return Keys{namespace: namespace}
}

func (k Keys) prefix() string {
	if k.namespace == "" {
		return "cache:"
	}
	return fmt.Sprintf("cache:%s:", k.namespace)
}

// Exact returns the key for an exact-tier entry
func (k Keys) Exact(digest string) string {
	return k.prefix() + "exact:" + digest
}

// SemanticList returns the per-model candidate list key
func (k Keys) SemanticList(model string) string {
	return k.prefix() + "semantic:" + model + ":entries"
}

// Embedding returns the key holding a candidate's stored vector
func (k Keys) Embedding(cacheID string) string {
	return k.prefix() + "embedding:" + cacheID
}

// Response returns the key holding a candidate's cached response
func (k Keys) Response(cacheID string) string {
	return k.prefix() + "response:" + cacheID
}

// Prefix returns the namespace-scoped prefix covering every key this
// builder produces
func (k Keys) Prefix() string {
	return k.prefix()
}

// Namespaced reports whether this key layout is scoped to a namespace
func (k Keys) Namespaced() bool {
	return k.namespace != ""
}
