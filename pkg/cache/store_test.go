package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestConnectDisabledByConfig(t *testing.T) {
	s := NewStore("redis://localhost:6379", false, nil)

	s.Connect(context.Background())

	assert.False(t, s.IsAvailable())
	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestConnectWithoutURL(t *testing.T) {
	s := NewStore("", true, nil)

	assert.False(t, s.Available(context.Background()))
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v", time.Minute), ErrUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrUnavailable)
}

func TestConnectIsMemoizedAcrossConcurrentCallers(t *testing.T) {
	s := NewStore("redis://localhost:6379", true, nil)

	var attempts atomic.Int32
	s.dial = func(ctx context.Context) (*redis.Client, error) {
		attempts.Add(1)
		time.Sleep(20 * time.Millisecond) // widen the race window
		return nil, fmt.Errorf("connection refused")
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Connect(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), attempts.Load(), "concurrent first callers must share one connection attempt")
	assert.False(t, s.IsAvailable())
}

func TestFailedProbeLeavesCleanUnavailableState(t *testing.T) {
	s := NewStore("redis://localhost:6379", true, nil)
	s.dial = func(ctx context.Context) (*redis.Client, error) {
		return nil, fmt.Errorf("dial tcp: connection refused")
	}

	s.Connect(context.Background())

	assert.False(t, s.IsAvailable())
	assert.Nil(t, s.client)
	// A later call must not re-probe.
	assert.False(t, s.Available(context.Background()))
	assert.NoError(t, s.Close())
}
