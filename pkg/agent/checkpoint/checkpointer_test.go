package checkpoint

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"diligence-ai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend counts physical setup attempts and can be told to fail.
type stubBackend struct {
	setupCalls atomic.Int32
	setupErr   error
	mem        *MemoryBackend
}

func newStubBackend(setupErr error) *stubBackend {
	return &stubBackend{setupErr: setupErr, mem: NewMemoryBackend()}
}

func (s *stubBackend) Setup(ctx context.Context) error {
	s.setupCalls.Add(1)
	time.Sleep(10 * time.Millisecond) // widen the race window
	return s.setupErr
}

func (s *stubBackend) Get(ctx context.Context, threadKey string) (*Checkpoint, error) {
	return s.mem.Get(ctx, threadKey)
}

func (s *stubBackend) Put(ctx context.Context, threadKey string, cp *Checkpoint) error {
	return s.mem.Put(ctx, threadKey, cp)
}

func TestConcurrentInitRunsSetupOnce(t *testing.T) {
	backend := newStubBackend(nil)
	c := NewCheckpointer(backend, nil)
	id := Mint("chat", "deal-1", "user-1")

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(context.Background(), id)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), backend.setupCalls.Load(), "simultaneous first calls must share one setup attempt")
	assert.Equal(t, ModeDurable, c.Mode())
}

func TestSetupFailureDowngradesPermanently(t *testing.T) {
	backend := newStubBackend(fmt.Errorf("relation does not exist"))
	c := NewCheckpointer(backend, nil)
	id := Mint("chat", "deal-1", "user-1")
	ctx := context.Background()

	cp := &Checkpoint{Messages: []llm.Message{{Role: "user", Content: "hello"}}}
	require.NoError(t, c.Put(ctx, id, cp))
	assert.Equal(t, ModeMemory, c.Mode())

	// The downgrade is one-way: later calls never re-probe the backend.
	_, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.setupCalls.Load())
	assert.Equal(t, ModeMemory, c.Mode())
}

func TestPutAppendsLineage(t *testing.T) {
	c := NewCheckpointer(newStubBackend(nil), nil)
	id := Mint("questions", "deal-7", "user-2")
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, id, &Checkpoint{Messages: []llm.Message{{Role: "user", Content: "turn 1"}}}))
	require.NoError(t, c.Put(ctx, id, &Checkpoint{Messages: []llm.Message{
		{Role: "user", Content: "turn 1"},
		{Role: "assistant", Content: "answer 1"},
	}}))

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Seq, "puts append, never overwrite")
	assert.Len(t, got.Messages, 2)
}

func TestGetReturnsNilForNewThread(t *testing.T) {
	c := NewCheckpointer(nil, nil)

	got, err := c.Get(context.Background(), Mint("chat", "deal-1", "user-1"))

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, ModeMemory, c.Mode())
}

func TestResetClearsMemoizedState(t *testing.T) {
	backend := newStubBackend(nil)
	c := NewCheckpointer(backend, nil)
	ctx := context.Background()
	id := Mint("chat", "deal-1", "user-1")

	_, _ = c.Get(ctx, id)
	require.Equal(t, int32(1), backend.setupCalls.Load())

	c.Reset()
	assert.Equal(t, ModeUninitialized, c.Mode())

	_, _ = c.Get(ctx, id)
	assert.Equal(t, int32(2), backend.setupCalls.Load(), "reset must allow re-initialization")
}

func TestMemoryBackendClonesSnapshots(t *testing.T) {
	mem := NewMemoryBackend()
	ctx := context.Background()

	cp := &Checkpoint{Messages: []llm.Message{{Role: "user", Content: "original"}}}
	require.NoError(t, mem.Put(ctx, "k", cp))

	cp.Messages[0].Content = "mutated"

	got, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Messages[0].Content, "stored snapshot must not alias caller memory")
}
