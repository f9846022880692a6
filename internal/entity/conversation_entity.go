package entity

import (
	"time"

	"github.com/google/uuid"

	"diligence-ai-be/pkg/store"
)

type Conversation struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	ScopeId      string
	WorkflowMode string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}

type ConversationMessage struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	Sources        []store.Source
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
