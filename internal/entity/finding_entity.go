package entity

import (
	"time"

	"github.com/google/uuid"
)

// FindingEmbedding is one embedded due-diligence finding: a chunk of an
// analyzed document with its vector representation for semantic retrieval.
type FindingEmbedding struct {
	Id             uuid.UUID
	ScopeId        string
	Title          string
	Kind           string
	Reference      string
	Content        string
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
