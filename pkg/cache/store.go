package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"diligence-ai-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("cache: key not found")

// ErrUnavailable is returned when the backing store is not connected.
var ErrUnavailable = errors.New("cache: store unavailable")

const healthProbeTimeout = 3 * time.Second

// Store is a lazily-initialized, health-checked connection to the Redis
// cache backend. Connect is memoized: concurrent first callers share one
// in-flight connection attempt. The health probe runs once per process; its
// outcome is final, so IsAvailable never blocks after the first call.
type Store struct {
	url     string
	enabled bool
	logger  logger.ILogger

	connectOnce sync.Once
	client      *redis.Client
	available   atomic.Bool
	checked     atomic.Bool

	// dial is swappable in tests to count physical connection attempts.
	dial func(ctx context.Context) (*redis.Client, error)
}

func NewStore(redisURL string, enabled bool, log logger.ILogger) *Store {
	s := &Store{
		url:     redisURL,
		enabled: enabled,
		logger:  log,
	}
	s.dial = s.dialRedis
	return s
}

func (s *Store) dialRedis(ctx context.Context) (*redis.Client, error) {
	opt, err := redis.ParseURL(s.url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	if err := client.Ping(probeCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Connect establishes the connection and runs the single health probe.
// Idempotent: every caller after (or during) the first shares its outcome.
// A failed probe leaves the store in a clean "unavailable" state; dependents
// switch to their fallbacks instead of retrying the backend.
func (s *Store) Connect(ctx context.Context) {
	s.connectOnce.Do(func() {
		defer s.checked.Store(true)

		if !s.enabled || s.url == "" {
			if s.logger != nil {
				s.logger.Info("CacheStore", "Cache disabled by configuration, using in-process fallback", nil)
			}
			return
		}

		client, err := s.dial(ctx)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("CacheStore", "Cache backend unreachable, degrading to in-process fallback", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		s.client = client
		s.available.Store(true)
		if s.logger != nil {
			s.logger.Info("CacheStore", "Cache backend connected", nil)
		}
	})
}

// IsAvailable is synchronous and non-blocking once health is known. Callers
// that may be first should use Available(ctx) instead.
func (s *Store) IsAvailable() bool {
	return s.available.Load()
}

// Available triggers the lazy connect when needed, then reports health.
func (s *Store) Available(ctx context.Context) bool {
	if !s.checked.Load() {
		s.Connect(ctx)
	}
	return s.available.Load()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if !s.available.Load() {
		return "", ErrUnavailable
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !s.available.Load() {
		return ErrUnavailable
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.available.Load() {
		return ErrUnavailable
	}
	return s.client.Del(ctx, key).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	if !s.available.Load() {
		return ErrUnavailable
	}
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
