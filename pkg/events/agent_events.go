package events

import "time"

const (
	TypeAgentTurnCompleted  = "AGENT_TURN_COMPLETED"
	TypeFindingIngestQueued = "FINDING_INGEST_QUEUED"
	TypeConversationDeleted = "CONVERSATION_DELETED"
)

// NewAgentTurnCompleted is emitted after a turn's terminal event so other
// surfaces (websocket notifier, analytics) can react without being in the
// streaming path.
func NewAgentTurnCompleted(conversationID, userID, messageID string, failed bool) Event {
	return BaseEvent{
		Type: TypeAgentTurnCompleted,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         userID,
			"message_id":      messageID,
			"failed":          failed,
		},
		OccurredAt: time.Now(),
	}
}

func NewFindingIngestQueued(findingID, scopeID string) Event {
	return BaseEvent{
		Type: TypeFindingIngestQueued,
		Data: map[string]interface{}{
			"finding_id": findingID,
			"scope_id":   scopeID,
		},
		OccurredAt: time.Now(),
	}
}

func NewConversationDeleted(conversationID, userID string) Event {
	return BaseEvent{
		Type: TypeConversationDeleted,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         userID,
		},
		OccurredAt: time.Now(),
	}
}
