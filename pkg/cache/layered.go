package cache

import (
	"context"
	"reflect"
	"time"
)

// LayeredCache fronts Redis with a small in-process cache. Reads try memory
// first and backfill it on a Redis hit; writes and invalidations go through
// to both layers. Locks live in Redis only so they hold across instances.
type LayeredCache struct {
	mem *MemoryCache
	rdb *RedisCache
}

// NewLayeredCache builds the two-level cache around an existing Redis
// connection.
func NewLayeredCache(rdb *RedisCache, memOpts ...MemoryOption) *LayeredCache {
	return &LayeredCache{mem: NewMemoryCache(memOpts...), rdb: rdb}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.rdb.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, ttl)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.rdb.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, indirect(dest), 0)
	return nil
}

func (lc *LayeredCache) DeleteByPattern(ctx context.Context, pattern string) error {
	_ = lc.mem.DeleteByPattern(ctx, pattern)
	return lc.rdb.DeleteByPattern(ctx, pattern)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.rdb.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.rdb.Unlock(ctx, key)
}

// Close closes both layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.rdb.Close()
}

// indirect unwraps one level of pointer so the decoded value, not the
// caller's pointer, lands in the L1 cache.
func indirect(v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}

var _ Service = (*LayeredCache)(nil)
