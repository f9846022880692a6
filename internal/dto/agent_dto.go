package dto

import (
	"time"

	"github.com/google/uuid"

	"diligence-ai-be/pkg/store"
)

type CreateConversationRequest struct {
	ScopeId      string `json:"scope_id" validate:"required"`
	WorkflowMode string `json:"workflow_mode" validate:"required,oneof=chat checklist questions presentation"`
	Title        string `json:"title"`
}

type CreateConversationResponse struct {
	Id       uuid.UUID `json:"id"`
	ThreadId string    `json:"thread_id"`
}

type ConversationSummary struct {
	Id           uuid.UUID  `json:"id"`
	ScopeId      string     `json:"scope_id"`
	WorkflowMode string     `json:"workflow_mode"`
	Title        string     `json:"title"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type ConversationMessageResponse struct {
	Id        uuid.UUID      `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Sources   []store.Source `json:"sources,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type GetHistoryResponse struct {
	ConversationId uuid.UUID                      `json:"conversation_id"`
	Messages       []*ConversationMessageResponse `json:"messages"`
}

type StreamTurnRequest struct {
	Message string `json:"message" validate:"required"`
}

type CacheStatsResponse struct {
	ToolResult CacheNamespaceStats `json:"tool_result"`
	Retrieval  CacheNamespaceStats `json:"retrieval"`
	Summary    CacheNamespaceStats `json:"summary"`
}

type CacheNamespaceStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Fallbacks uint64 `json:"fallbacks"`
}
