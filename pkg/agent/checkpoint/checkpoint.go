package checkpoint

import (
	"context"
	"time"

	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/store"
)

// ToolRecord captures one specialist execution folded into a turn.
type ToolRecord struct {
	Tool    string                 `json:"tool"`
	Input   map[string]interface{} `json:"input"`
	Output  string                 `json:"output"`
	Sources []store.Source         `json:"sources,omitempty"`
	At      time.Time              `json:"at"`
}

// Checkpoint is the durable snapshot of one thread's running state. A thread
// has one checkpoint lineage, appended to on every successful turn; resuming
// loads the latest snapshot and continues the append.
type Checkpoint struct {
	ThreadKey   string        `json:"thread_key"`
	Seq         int           `json:"seq"`
	Messages    []llm.Message `json:"messages"`
	ToolResults []ToolRecord  `json:"tool_results,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Clone returns a deep-enough copy: slices are duplicated so an appended
// snapshot can't be mutated through the original.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Messages = append([]llm.Message(nil), c.Messages...)
	cp.ToolResults = append([]ToolRecord(nil), c.ToolResults...)
	return &cp
}

// Backend is a storage target for checkpoint lineages, keyed by the
// formatted ThreadID (the partition key).
type Backend interface {
	// Setup prepares the backend (schema migration, connectivity probe).
	Setup(ctx context.Context) error
	// Get loads the latest checkpoint of a lineage, nil when none exists.
	Get(ctx context.Context, threadKey string) (*Checkpoint, error)
	// Put appends a snapshot to the lineage.
	Put(ctx context.Context, threadKey string, cp *Checkpoint) error
}
