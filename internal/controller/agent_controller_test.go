package controller

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"diligence-ai-be/pkg/agent/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenPipeWriter accepts a fixed number of writes, then fails the way a
// closed client connection does.
type brokenPipeWriter struct {
	allowed int
	writes  int
	buf     strings.Builder
}

func (b *brokenPipeWriter) Write(p []byte) (int, error) {
	b.writes++
	if b.writes > b.allowed {
		return 0, errors.New("broken pipe")
	}
	return b.buf.Write(p)
}

func TestForwardFramesEventsAsSSE(t *testing.T) {
	sink := &brokenPipeWriter{allowed: 100}
	sse := &sseWriter{w: bufio.NewWriter(sink)}

	sse.forward(stream.Token("conv-1", "hello", "supervisor"))

	out := sink.buf.String()
	require.True(t, strings.HasPrefix(out, "data: "))
	require.True(t, strings.HasSuffix(out, "\n\n"))
	assert.Contains(t, out, `"type":"token"`)
	assert.Contains(t, out, `"conversationId":"conv-1"`)
	assert.Contains(t, out, `"content":"hello"`)
}

func TestDisconnectedClientStopsForwardingWithoutAbortingTurn(t *testing.T) {
	sink := &brokenPipeWriter{allowed: 1}
	sse := &sseWriter{w: bufio.NewWriter(sink)}

	sse.forward(stream.Token("conv-1", "a", "supervisor"))
	require.False(t, sse.gone)
	writesBeforeFailure := sink.writes

	sse.forward(stream.Token("conv-1", "b", "supervisor"))
	require.True(t, sse.gone)

	// The turn keeps emitting after the client is gone; those events are
	// swallowed without touching the dead connection again.
	sse.forward(stream.Done("conv-1", "msg-1", "answer", nil))
	sse.forward(stream.Token("conv-1", "c", "supervisor"))

	assert.Equal(t, writesBeforeFailure+1, sink.writes)
	assert.NotContains(t, sink.buf.String(), `"done"`)
}
