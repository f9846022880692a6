package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unavailableStore returns a store whose health check has already failed,
// so every operation must be served by the in-process fallback.
func unavailableStore() *Store {
	s := NewStore("", false, nil)
	s.Connect(context.Background())
	return s
}

func TestRoundTripOnFallback(t *testing.T) {
	c := New[string](unavailableStore(), Namespace{Prefix: "cache:tool:", TTL: time.Minute, MaxEntries: 10}, nil)
	ctx := context.Background()

	c.Set(ctx, "k1", "v1")
	got := c.Get(ctx, "k1")

	require.True(t, got.Found)
	assert.Equal(t, "v1", got.Value)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestMissOnFallback(t *testing.T) {
	c := New[int](unavailableStore(), NamespaceRetrieval, nil)

	got := c.Get(context.Background(), "absent")

	assert.False(t, got.Found)
	stats := c.GetStats()
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestFallbacksCounterIncrementsOnEveryCallWhenStoreDown(t *testing.T) {
	c := New[string](unavailableStore(), NamespaceToolResult, nil)
	ctx := context.Background()

	c.Set(ctx, "a", "1")
	c.Get(ctx, "a")
	c.Get(ctx, "b")

	stats := c.GetStats()
	assert.Equal(t, uint64(3), stats.Fallbacks, "every degraded operation counts")
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestFIFOEvictionDropsExactlyTheOldest(t *testing.T) {
	c := New[int](unavailableStore(), Namespace{Prefix: "cache:tool:", TTL: time.Hour, MaxEntries: 3}, nil)
	ctx := context.Background()

	c.Set(ctx, "first", 1)
	c.Set(ctx, "second", 2)
	c.Set(ctx, "third", 3)

	// Touch the oldest; FIFO must ignore recency.
	c.Get(ctx, "first")

	c.Set(ctx, "fourth", 4)

	assert.False(t, c.Get(ctx, "first").Found, "oldest entry must be evicted")
	assert.True(t, c.Get(ctx, "second").Found)
	assert.True(t, c.Get(ctx, "third").Found)
	assert.True(t, c.Get(ctx, "fourth").Found)
}

func TestReSetKeepsInsertionSlot(t *testing.T) {
	c := New[int](unavailableStore(), Namespace{Prefix: "cache:tool:", TTL: time.Hour, MaxEntries: 2}, nil)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "a", 2) // re-set replaces the value, keeps the slot
	c.Set(ctx, "b", 3)

	got := c.Get(ctx, "a")
	require.True(t, got.Found)
	assert.Equal(t, 2, got.Value)

	// "a" is still the oldest, so the next insert evicts it.
	c.Set(ctx, "c", 4)
	assert.False(t, c.Get(ctx, "a").Found)
	assert.True(t, c.Get(ctx, "b").Found)
	assert.True(t, c.Get(ctx, "c").Found)
}

func TestTTLCheckedAtReadTime(t *testing.T) {
	c := New[string](unavailableStore(), Namespace{Prefix: "cache:summary:", TTL: time.Second, MaxEntries: 10}, nil)
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	c.mu.Lock()
	entry := c.fallback["k"]
	entry.StoredAt = time.Now().Add(-2 * time.Second).Unix()
	c.fallback["k"] = entry
	c.mu.Unlock()

	got := c.Get(ctx, "k")
	assert.False(t, got.Found, "expired entries are dropped on read")
}

func TestClearResetsCounters(t *testing.T) {
	c := New[string](unavailableStore(), NamespaceSummary, nil)
	ctx := context.Background()

	c.Set(ctx, "k", "v")
	c.Get(ctx, "k")
	c.Clear()

	assert.Equal(t, Stats{}, c.GetStats())
	assert.False(t, c.Get(ctx, "k").Found)
}

// TestRoundTripOnStore exercises the Redis-backed path. Skipped unless a
// test instance is reachable.
func TestRoundTripOnStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}

	s := NewStore(redisURL, true, nil)
	ctx := context.Background()
	require.True(t, s.Available(ctx), "redis must be reachable for this test")

	c := New[string](s, Namespace{Prefix: fmt.Sprintf("cache:test:%d:", time.Now().UnixNano()), TTL: time.Minute, MaxEntries: 10}, nil)

	c.Set(ctx, "k1", "v1")
	got := c.Get(ctx, "k1")

	require.True(t, got.Found)
	assert.Equal(t, "v1", got.Value)
	assert.Equal(t, SourceStore, got.Source)
	assert.Equal(t, uint64(0), c.GetStats().Fallbacks)
}
