package cache

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"
)

const defaultMemoryTTL = 24 * time.Hour

// MemoryCache is the in-process cache used when Redis is disabled, and the
// L1 layer of LayeredCache. Capacity is bounded; when full, the least
// recently read entry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int
	janitor *time.Ticker
}

type memoryEntry struct {
	value    interface{}
	expireAt time.Time
	readAt   time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize bounds the number of entries.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(mc *MemoryCache) {
		if n > 0 {
			mc.maxSize = n
		}
	}
}

// NewMemoryCache creates an in-memory cache. A janitor goroutine sweeps
// expired entries periodically; Close stops it.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: 1000,
		janitor: time.NewTicker(5 * time.Minute),
	}
	for _, opt := range opts {
		opt(mc)
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if len(mc.entries) >= mc.maxSize {
		mc.evictOldest()
	}
	mc.entries[key] = &memoryEntry{value: value, expireAt: now.Add(ttl), readAt: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	e, ok := mc.entries[key]
	if !ok || e.expired(now) {
		if ok {
			delete(mc.entries, key)
		}
		return ErrCacheMiss
	}
	if !assign(dest, e.value) {
		// Stored value does not fit the caller's type; treat as a miss.
		return ErrCacheMiss
	}
	e.readAt = now
	return nil
}

func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if prefix == pattern {
		delete(mc.entries, pattern)
		return nil
	}
	for k := range mc.entries {
		if strings.HasPrefix(k, prefix) {
			delete(mc.entries, k)
		}
	}
	return nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if e, ok := mc.entries[key]; ok && !e.expired(now) {
		return false, nil
	}
	mc.entries[key] = &memoryEntry{value: "locked", expireAt: now.Add(ttl), readAt: now}
	return true, nil
}

func (mc *MemoryCache) Unlock(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.entries, key)
	return nil
}

// Close stops the janitor.
func (mc *MemoryCache) Close() error {
	mc.janitor.Stop()
	return nil
}

// evictOldest drops the least recently read entry. Caller holds mc.mu.
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range mc.entries {
		if oldestKey == "" || e.readAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.readAt
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for range mc.janitor.C {
		now := time.Now()
		mc.mu.Lock()
		for k, e := range mc.entries {
			if e.expired(now) {
				delete(mc.entries, k)
			}
		}
		mc.mu.Unlock()
	}
}

// assign copies value into the pointer dest when the types line up.
func assign(dest, value interface{}) bool {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return false
	}
	vv := reflect.ValueOf(value)
	if !vv.IsValid() || !vv.Type().AssignableTo(dv.Elem().Type()) {
		return false
	}
	dv.Elem().Set(vv)
	return true
}

var _ Service = (*MemoryCache)(nil)
