package dto

import "github.com/google/uuid"

type IngestFindingRequest struct {
	ScopeId   string `json:"scope_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=document graph analysis"`
	Reference string `json:"reference"`
	Content   string `json:"content" validate:"required"`
}

type IngestFindingResponse struct {
	FindingId uuid.UUID `json:"finding_id"`
	Queued    bool      `json:"queued"`
}

// PublishEmbedFindingMessage is the ingestion queue payload.
type PublishEmbedFindingMessage struct {
	FindingId uuid.UUID `json:"finding_id"`
	ScopeId   string    `json:"scope_id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Reference string    `json:"reference"`
	Content   string    `json:"content"`
}
