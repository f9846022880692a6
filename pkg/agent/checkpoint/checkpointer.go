package checkpoint

import (
	"context"
	"sync"

	"diligence-ai-be/internal/pkg/logger"
)

// Mode is the checkpointer's terminal lifecycle state.
type Mode string

const (
	ModeUninitialized Mode = "uninitialized"
	ModeDurable       Mode = "durable-ready"
	ModeMemory        Mode = "memory-fallback"
)

// Checkpointer stores per-thread conversation state. Initialization is lazy
// and memoized: N simultaneous first calls produce exactly one backend
// setup attempt. If the durable backend's Setup fails, the process runs on
// the in-memory substitute for its whole lifetime. The downgrade is
// one-way, there is no re-probe. Flapping between backends mid-conversation
// would be worse than staying degraded.
type Checkpointer struct {
	durable Backend
	logger  logger.ILogger

	mu       sync.Mutex
	initOnce *sync.Once
	backend  Backend
	mode     Mode
}

func NewCheckpointer(durable Backend, log logger.ILogger) *Checkpointer {
	return &Checkpointer{
		durable:  durable,
		logger:   log,
		initOnce: new(sync.Once),
		mode:     ModeUninitialized,
	}
}

// ensure runs the memoized initialization. Concurrent callers block on the
// same sync.Once; exactly one performs the physical setup.
func (c *Checkpointer) ensure(ctx context.Context) Backend {
	c.mu.Lock()
	once := c.initOnce
	c.mu.Unlock()

	once.Do(func() {
		backend, mode := c.initialize(ctx)
		c.mu.Lock()
		c.backend = backend
		c.mode = mode
		c.mu.Unlock()
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

func (c *Checkpointer) initialize(ctx context.Context) (Backend, Mode) {
	if c.durable == nil {
		if c.logger != nil {
			c.logger.Info("Checkpointer", "No durable backend configured, conversation state is in-memory", nil)
		}
		return NewMemoryBackend(), ModeMemory
	}

	if err := c.durable.Setup(ctx); err != nil {
		// Logged once; per-turn callers never see this failure.
		if c.logger != nil {
			c.logger.Warn("Checkpointer", "Durable checkpoint backend setup failed, downgrading to in-memory for process lifetime", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return NewMemoryBackend(), ModeMemory
	}

	return c.durable, ModeDurable
}

// Get loads the latest checkpoint for a thread, nil when the thread is new.
func (c *Checkpointer) Get(ctx context.Context, id ThreadID) (*Checkpoint, error) {
	return c.ensure(ctx).Get(ctx, id.String())
}

// Put appends a snapshot to the thread's lineage. Safe to retry: the backend
// assigns the sequence number at append time.
func (c *Checkpointer) Put(ctx context.Context, id ThreadID, cp *Checkpoint) error {
	return c.ensure(ctx).Put(ctx, id.String(), cp)
}

// Mode reports the lifecycle state, for observability and tests.
func (c *Checkpointer) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Reset clears the memoized instance and flags. Test isolation only; never
// called on a serving process.
func (c *Checkpointer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initOnce = new(sync.Once)
	c.backend = nil
	c.mode = ModeUninitialized
}
