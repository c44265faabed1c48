// Package cache provides the caching layer shared by the market-data
// provider (read-through history responses) and the retrain worker
// (invalidation and TTL locks).
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is the cache surface the application depends on. Get/Set serve
// provider history responses; DeleteByPattern drops a symbol's cached
// history before a retrain so the refit sees current data; TryLock/Unlock
// keep concurrent retrains of one symbol from stacking up.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error

	// DeleteByPattern removes every key matching pattern. Patterns use a
	// trailing "*" wildcard, as produced by KeyPattern.
	DeleteByPattern(ctx context.Context, pattern string) error

	// TryLock acquires key as a lock for at most ttl. It returns false
	// without error when another holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Key joins a prefix and parts into a colon-separated cache key.
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

// KeyPattern builds the wildcard pattern matching every key produced by Key
// with the same leading parts.
func KeyPattern(prefix string, parts ...interface{}) string {
	return Key(prefix, parts...) + ":*"
}
