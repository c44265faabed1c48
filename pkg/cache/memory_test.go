package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheSetGetTyped(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	type snapshot struct {
		Symbol string
		Price  float64
	}
	want := snapshot{Symbol: "AAPL", Price: 187.5}
	if err := mc.Set(ctx, Key("quote", "AAPL"), want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got snapshot
	if err := mc.Get(ctx, Key("quote", "AAPL"), &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestMemoryCacheMissAfterExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	var v string
	if err := mc.Get(ctx, "k", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	for _, k := range []string{
		Key("history", "AAPL", 1, 2),
		Key("history", "AAPL", 3, 4),
		Key("history", "MSFT", 1, 2),
	} {
		if err := mc.Set(ctx, k, "bars", time.Minute); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	if err := mc.DeleteByPattern(ctx, KeyPattern("history", "AAPL")); err != nil {
		t.Fatalf("delete by pattern: %v", err)
	}

	var v string
	if err := mc.Get(ctx, Key("history", "AAPL", 1, 2), &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("AAPL entry should be gone, got %v", err)
	}
	if err := mc.Get(ctx, Key("history", "MSFT", 1, 2), &v); err != nil {
		t.Fatalf("MSFT entry should survive: %v", err)
	}
}

func TestMemoryCacheLockExcludesSecondHolder(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()
	key := Key("lock", "retrain", "AAPL")

	ok, err := mc.TryLock(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	ok, err = mc.TryLock(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("second lock: %v", err)
	}
	if ok {
		t.Fatalf("second holder should not acquire a held lock")
	}

	if err := mc.Unlock(ctx, key); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ok, err = mc.TryLock(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("relock after unlock: ok=%v err=%v", ok, err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyRead(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if err := mc.Set(ctx, "b", "2", time.Minute); err != nil {
		t.Fatalf("set b: %v", err)
	}

	// Touch "a" so "b" becomes the eviction candidate.
	var v string
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("get a: %v", err)
	}

	if err := mc.Set(ctx, "c", "3", time.Minute); err != nil {
		t.Fatalf("set c: %v", err)
	}
	if err := mc.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b should have been evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &v); err != nil {
		t.Fatalf("a should survive: %v", err)
	}
}

func TestKeyHelpers(t *testing.T) {
	if got := Key("history", "AAPL", 10, 20); got != "history:AAPL:10:20" {
		t.Fatalf("Key = %q", got)
	}
	if got := KeyPattern("history", "AAPL"); got != "history:AAPL:*" {
		t.Fatalf("KeyPattern = %q", got)
	}
}
