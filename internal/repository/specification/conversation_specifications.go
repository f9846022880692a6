package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByScopeID struct {
	ScopeID string
}

func (s ByScopeID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scope_id = ?", s.ScopeID)
}

type ByWorkflowMode struct {
	WorkflowMode string
}

func (s ByWorkflowMode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("workflow_mode = ?", s.WorkflowMode)
}
