package contract

import (
	"context"

	"diligence-ai-be/internal/entity"
	"diligence-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredFinding pairs a finding with its cosine similarity to a query vector.
type ScoredFinding struct {
	Finding    *entity.FindingEmbedding
	Similarity float64
}

type FindingEmbeddingRepository interface {
	Create(ctx context.Context, finding *entity.FindingEmbedding) error
	CreateBulk(ctx context.Context, findings []*entity.FindingEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByScopeId(ctx context.Context, scopeId string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FindingEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int, scopeId string) ([]*entity.FindingEmbedding, error)
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, scopeId string, threshold float64) ([]*ScoredFinding, error)
}
