package checkpoint

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ThreadID is the composite key identifying one conversation thread:
// {workflowMode}:{scopeId}:{userId}:{conversationId}. The colon delimiter
// never appears inside component values (UUIDs use hyphens), so the string
// form is unambiguously splittable.
type ThreadID struct {
	WorkflowMode   string
	ScopeID        string
	UserID         string
	ConversationID string
}

const threadIDSeparator = ":"

// Mint creates a ThreadID for a brand-new conversation.
func Mint(workflowMode, scopeID, userID string) ThreadID {
	return ThreadID{
		WorkflowMode:   workflowMode,
		ScopeID:        scopeID,
		UserID:         userID,
		ConversationID: uuid.NewString(),
	}
}

// New builds a ThreadID for an existing conversation.
func New(workflowMode, scopeID, userID, conversationID string) ThreadID {
	return ThreadID{
		WorkflowMode:   workflowMode,
		ScopeID:        scopeID,
		UserID:         userID,
		ConversationID: conversationID,
	}
}

func (t ThreadID) String() string {
	return strings.Join([]string{t.WorkflowMode, t.ScopeID, t.UserID, t.ConversationID}, threadIDSeparator)
}

// Validate checks the structural invariants: four non-empty colon-free
// components, conversation id a UUID.
func (t ThreadID) Validate() error {
	for name, v := range map[string]string{
		"workflow mode":   t.WorkflowMode,
		"scope id":        t.ScopeID,
		"user id":         t.UserID,
		"conversation id": t.ConversationID,
	} {
		if v == "" {
			return fmt.Errorf("thread id: %s is empty", name)
		}
		if strings.Contains(v, threadIDSeparator) {
			return fmt.Errorf("thread id: %s contains the separator", name)
		}
	}
	if _, err := uuid.Parse(t.ConversationID); err != nil {
		return fmt.Errorf("thread id: conversation id is not a UUID: %w", err)
	}
	return nil
}

// Parse splits a formatted thread id back into its components.
func Parse(s string) (ThreadID, error) {
	parts := strings.Split(s, threadIDSeparator)
	if len(parts) != 4 {
		return ThreadID{}, fmt.Errorf("thread id: expected 4 colon-delimited fields, got %d", len(parts))
	}
	t := ThreadID{
		WorkflowMode:   parts[0],
		ScopeID:        parts[1],
		UserID:         parts[2],
		ConversationID: parts[3],
	}
	if err := t.Validate(); err != nil {
		return ThreadID{}, err
	}
	return t, nil
}
