package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"diligence-ai-be/internal/pkg/logger"
)

// Source identifies which backend actually served a cache operation.
type Source string

const (
	SourceStore    Source = "store"
	SourceFallback Source = "fallback"
)

// Namespace fixes the key prefix, TTL and fallback capacity of one domain
// cache. Isolation between namespaces is purely lexical.
type Namespace struct {
	Prefix     string
	TTL        time.Duration
	MaxEntries int
}

// The three configured namespaces. They differ only in TTL, capacity and
// key-derivation; the machinery is identical.
var (
	NamespaceToolResult = Namespace{Prefix: "cache:tool:", TTL: 15 * time.Minute, MaxEntries: 500}
	NamespaceRetrieval  = Namespace{Prefix: "cache:retrieval:", TTL: 5 * time.Minute, MaxEntries: 200}
	NamespaceSummary    = Namespace{Prefix: "cache:summary:", TTL: 30 * time.Minute, MaxEntries: 100}
)

// Entry is the stored representation of a cached value.
type Entry[T any] struct {
	Value    T      `json:"value"`
	StoredAt int64  `json:"stored_at"`
	Source   Source `json:"source"`
}

// Lookup is the result of a Get: the value when found plus the backend that
// served it.
type Lookup[T any] struct {
	Value  T
	Found  bool
	Source Source
}

// Stats are process-lifetime cumulative counters, reset only by Clear.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Fallbacks uint64 `json:"fallbacks"`
}

// DomainCache wraps the shared Store with a namespace, TTL, counters and a
// bounded in-process fallback map. Runtime failures of individual store
// operations never reach the caller: the single operation degrades to the
// fallback map and the fallbacks counter moves.
//
// The fallback map evicts FIFO, not LRU. TTLs here are minutes, so recency
// tracking buys nothing; insertion order is enough and tests pin it.
type DomainCache[T any] struct {
	store  *Store
	ns     Namespace
	logger logger.ILogger

	mu       sync.Mutex
	fallback map[string]Entry[T]
	order    []string // insertion order, oldest first
	stats    Stats
}

func New[T any](store *Store, ns Namespace, log logger.ILogger) *DomainCache[T] {
	return &DomainCache[T]{
		store:    store,
		ns:       ns,
		logger:   log,
		fallback: make(map[string]Entry[T]),
	}
}

// Get looks a key up, checking TTL at read time (no active eviction).
func (c *DomainCache[T]) Get(ctx context.Context, key string) Lookup[T] {
	fullKey := c.ns.Prefix + key

	if c.store.Available(ctx) {
		raw, err := c.store.Get(ctx, fullKey)
		switch err {
		case nil:
			var entry Entry[T]
			if err := json.Unmarshal([]byte(raw), &entry); err == nil {
				c.count(func(s *Stats) { s.Hits++ })
				return Lookup[T]{Value: entry.Value, Found: true, Source: SourceStore}
			}
			// Corrupt payload reads as a miss.
			c.count(func(s *Stats) { s.Misses++ })
			return Lookup[T]{}
		case ErrNotFound:
			c.count(func(s *Stats) { s.Misses++ })
			return Lookup[T]{}
		default:
			// Runtime store failure: degrade this one operation, silently.
			c.count(func(s *Stats) { s.Fallbacks++ })
			return c.fallbackGet(key)
		}
	}

	c.count(func(s *Stats) { s.Fallbacks++ })
	return c.fallbackGet(key)
}

// Set writes a value under the namespace TTL.
func (c *DomainCache[T]) Set(ctx context.Context, key string, value T) {
	fullKey := c.ns.Prefix + key
	entry := Entry[T]{Value: value, StoredAt: time.Now().Unix(), Source: SourceStore}

	if c.store.Available(ctx) {
		data, err := json.Marshal(entry)
		if err == nil {
			if err := c.store.Set(ctx, fullKey, string(data), c.ns.TTL); err == nil {
				return
			}
		}
		c.count(func(s *Stats) { s.Fallbacks++ })
		c.fallbackSet(key, value)
		return
	}

	c.count(func(s *Stats) { s.Fallbacks++ })
	c.fallbackSet(key, value)
}

// Delete removes a key from both backends.
func (c *DomainCache[T]) Delete(ctx context.Context, key string) {
	if c.store.Available(ctx) {
		_ = c.store.Delete(ctx, c.ns.Prefix+key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.fallback[key]; ok {
		delete(c.fallback, key)
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// GetStats returns the cumulative counters.
func (c *DomainCache[T]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Clear drops the fallback map and resets the counters. The shared store is
// left alone; its keys age out via TTL.
func (c *DomainCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = make(map[string]Entry[T])
	c.order = nil
	c.stats = Stats{}
}

func (c *DomainCache[T]) count(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

func (c *DomainCache[T]) fallbackGet(key string) Lookup[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.fallback[key]
	if !ok {
		c.stats.Misses++
		return Lookup[T]{}
	}
	if c.ns.TTL > 0 && time.Now().Unix()-entry.StoredAt > int64(c.ns.TTL.Seconds()) {
		// Expired; dropped lazily at read time.
		delete(c.fallback, key)
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		c.stats.Misses++
		return Lookup[T]{}
	}
	c.stats.Hits++
	return Lookup[T]{Value: entry.Value, Found: true, Source: SourceFallback}
}

func (c *DomainCache[T]) fallbackSet(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.fallback[key]; !exists {
		if c.ns.MaxEntries > 0 && len(c.order) >= c.ns.MaxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.fallback, oldest)
		}
		c.order = append(c.order, key)
	}
	c.fallback[key] = Entry[T]{Value: value, StoredAt: time.Now().Unix(), Source: SourceFallback}
}
