package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memItem struct {
	value     string
	expiresAt time.Time
}

func (it memItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

type memList struct {
	values    []string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for single-node deployments and tests.
// Scalar values live in an LRU so the store stays bounded; lists are kept in
// a plain map since the engine caps them itself.
type MemoryStore struct {
	mu    sync.Mutex
	items *lru.Cache[string, memItem]
	lists map[string]*memList
}

// NewMemoryStore creates a memory-backed store holding at most capacity
// scalar entries
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = 1000
	}
	items, err := lru.New[string, memItem](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		items: items,
		lists: make(map[string]*memList),
	}, nil
}

// Get retrieves a value, returning ErrNotFound for missing or expired keys
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	if item.expired(time.Now()) {
		s.items.Remove(key)
		return "", ErrNotFound
	}
	return item.value, nil
}

// Set stores a value with the given TTL (zero means no expiry)
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	s.items.Add(key, item)
	return nil
}

// Delete removes the given keys from both scalar and list storage
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.items.Remove(key)
		delete(s.lists, key)
	}
	return nil
}

func (s *MemoryStore) liveList(key string) *memList {
	l, ok := s.lists[key]
	if !ok {
		return nil
	}
	if !l.expiresAt.IsZero() && time.Now().After(l.expiresAt) {
		delete(s.lists, key)
		return nil
	}
	return l
}

// ListAppend pushes a value onto the tail of a list
func (s *MemoryStore) ListAppend(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.liveList(key)
	if l == nil {
		l = &memList{}
		s.lists[key] = l
	}
	l.values = append(l.values, value)
	return nil
}

// ListRange returns the list slice between start and stop inclusive,
// following Redis index semantics where -1 means the last element
func (s *MemoryStore) ListRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.liveList(key)
	if l == nil {
		return nil, nil
	}
	lo, hi, ok := resolveRange(int64(len(l.values)), start, stop)
	if !ok {
		return nil, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, l.values[lo:hi+1])
	return out, nil
}

// ListTrim trims the list to the slice between start and stop inclusive
func (s *MemoryStore) ListTrim(_ context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.liveList(key)
	if l == nil {
		return nil
	}
	lo, hi, ok := resolveRange(int64(len(l.values)), start, stop)
	if !ok {
		delete(s.lists, key)
		return nil
	}
	l.values = append([]string(nil), l.values[lo:hi+1]...)
	return nil
}

// Expire sets a TTL on an existing key
func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(ttl)
	if item, ok := s.items.Get(key); ok {
		item.expiresAt = deadline
		s.items.Add(key, item)
	}
	if l := s.liveList(key); l != nil {
		l.expiresAt = deadline
	}
	return nil
}

// DeleteByPrefix removes every key that starts with the given prefix
func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, key := range s.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.items.Remove(key)
			deleted++
		}
	}
	for key := range s.lists {
		if strings.HasPrefix(key, prefix) {
			delete(s.lists, key)
			deleted++
		}
	}
	return deleted, nil
}

// FlushAll clears everything
func (s *MemoryStore) FlushAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Purge()
	s.lists = make(map[string]*memList)
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

// resolveRange converts Redis-style start/stop (negatives count from the
// end) into concrete slice bounds. ok is false when the range is empty.
func resolveRange(length, start, stop int64) (lo, hi int64, ok bool) {
	if length == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}
