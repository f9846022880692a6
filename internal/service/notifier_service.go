package service

import (
	"context"
	"time"

	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/internal/websocket"
	"diligence-ai-be/pkg/events"
	pkgNats "diligence-ai-be/pkg/nats"

	"github.com/google/uuid"
)

type INotifierService interface {
	Start() error
}

// notifierService bridges the NATS event bus to the websocket hub: when a
// turn completes anywhere in the cluster, every device of that user gets a
// push notification.
type notifierService struct {
	subscriber *pkgNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotifierService(subscriber *pkgNats.Subscriber, hub *websocket.Hub, log logger.ILogger) INotifierService {
	return &notifierService{
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
}

func (n *notifierService) Start() error {
	if n.subscriber == nil {
		n.logger.Warn("Notifier", "NATS unavailable, turn notifications disabled", nil)
		return nil
	}
	return n.subscriber.Subscribe("events."+events.TypeAgentTurnCompleted, "agent-turn-notifier", n.handleTurnCompleted)
}

func (n *notifierService) handleTurnCompleted(ctx context.Context, evt events.Event) error {
	payload := evt.Payload()

	userRaw, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(userRaw)
	if err != nil {
		// Not retriable; drop it.
		n.logger.Warn("Notifier", "turn event without valid user id", map[string]interface{}{
			"payload": payload,
		})
		return nil
	}

	conversationId, _ := payload["conversation_id"].(string)
	messageId, _ := payload["message_id"].(string)
	failed, _ := payload["failed"].(bool)

	n.hub.Send(userId, websocket.Notification{
		Type:           "turn_completed",
		ConversationID: conversationId,
		MessageID:      messageId,
		Failed:         failed,
		At:             time.Now(),
	})
	return nil
}
