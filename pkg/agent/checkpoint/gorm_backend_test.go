package checkpoint

import (
	"context"
	"testing"

	"diligence-ai-be/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A deferred handle opens without a reachable server; the first durable
// operation then fails and the checkpointer runs on memory for good. This is
// the path a fresh deployment without a database takes: the process boots,
// conversations just lose durability.
func TestUnreachableDatabaseDowngradesToMemory(t *testing.T) {
	db, err := database.NewDeferredGormDB("host=127.0.0.1 port=1 user=agent password=agent dbname=agent sslmode=disable")
	require.NoError(t, err)

	c := NewCheckpointer(NewGormBackend(db), nil)
	id := New("chat", "deal-7", "user-1", "conv-1")

	require.NoError(t, c.Put(context.Background(), id, &Checkpoint{}))
	assert.Equal(t, ModeMemory, c.Mode())

	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got)
}
