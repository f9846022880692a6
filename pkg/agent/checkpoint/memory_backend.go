package checkpoint

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps checkpoint lineages in process memory. It is the
// permanent substitute when the durable backend is unreachable, so entries
// live long enough to span a working session.
type MemoryBackend struct {
	cache *cache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	// Conversations idle for a day are dropped; purge sweep every hour.
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &MemoryBackend{cache: c}
}

func (m *MemoryBackend) Setup(ctx context.Context) error {
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, threadKey string) (*Checkpoint, error) {
	if x, found := m.cache.Get(threadKey); found {
		return x.(*Checkpoint).Clone(), nil
	}
	return nil, nil
}

func (m *MemoryBackend) Put(ctx context.Context, threadKey string, cp *Checkpoint) error {
	snapshot := cp.Clone()
	snapshot.ThreadKey = threadKey
	if prev, found := m.cache.Get(threadKey); found {
		snapshot.Seq = prev.(*Checkpoint).Seq + 1
	} else {
		snapshot.Seq = 1
	}
	snapshot.UpdatedAt = time.Now()
	m.cache.Set(threadKey, snapshot, cache.DefaultExpiration)
	return nil
}
