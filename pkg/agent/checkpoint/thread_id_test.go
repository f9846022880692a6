package checkpoint

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadIDRoundTrip(t *testing.T) {
	conv := uuid.NewString()
	id := New("checklist", "deal-42", "user-abc-123", conv)

	parsed, err := Parse(id.String())

	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Equal(t, "checklist", parsed.WorkflowMode)
	assert.Equal(t, "deal-42", parsed.ScopeID)
	assert.Equal(t, "user-abc-123", parsed.UserID)
	assert.Equal(t, conv, parsed.ConversationID)
}

func TestThreadIDHyphensDoNotSplit(t *testing.T) {
	// Hyphenated component values (UUIDs) must survive the round trip.
	id := Mint("chat", "scope-with-hyphens", "a1b2-c3d4")

	parsed, err := Parse(id.String())

	require.NoError(t, err)
	assert.Equal(t, "scope-with-hyphens", parsed.ScopeID)
	assert.Equal(t, "a1b2-c3d4", parsed.UserID)
}

func TestParseRejectsWrongFieldCount(t *testing.T) {
	_, err := Parse("chat:deal-1:" + uuid.NewString())
	assert.Error(t, err)

	_, err = Parse("chat:deal-1:user:extra:" + uuid.NewString())
	assert.Error(t, err)
}

func TestParseRejectsEmptyComponent(t *testing.T) {
	_, err := Parse("chat::user:" + uuid.NewString())
	assert.Error(t, err)
}

func TestParseRejectsNonUUIDConversation(t *testing.T) {
	_, err := Parse("chat:deal-1:user:not-a-uuid")
	assert.Error(t, err)
}

func TestValidateRejectsSeparatorInComponent(t *testing.T) {
	id := New("chat", "deal:1", "user", uuid.NewString())
	assert.Error(t, id.Validate())
}

func TestMintAssignsFreshConversation(t *testing.T) {
	a := Mint("chat", "deal-1", "user")
	b := Mint("chat", "deal-1", "user")

	assert.NotEqual(t, a.ConversationID, b.ConversationID)
	require.NoError(t, a.Validate())
}
