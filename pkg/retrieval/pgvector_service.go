package retrieval

import (
	"context"
	"fmt"

	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/internal/repository/contract"
	"diligence-ai-be/pkg/cache"
	"diligence-ai-be/pkg/embedding"
	"diligence-ai-be/pkg/store"
)

const similarityThreshold = 0.35

// PgVectorService retrieves finding passages by embedding the query and
// running a cosine similarity search over the scope's finding embeddings.
// Results are cached under the retrieval namespace; repeated phrasings of
// the same question hit the cache via key normalization.
type PgVectorService struct {
	findings contract.FindingEmbeddingRepository
	embedder embedding.Provider
	cache    *cache.DomainCache[[]store.Passage]
	logger   logger.ILogger
}

func NewPgVectorService(
	findings contract.FindingEmbeddingRepository,
	embedder embedding.Provider,
	retrievalCache *cache.DomainCache[[]store.Passage],
	log logger.ILogger,
) *PgVectorService {
	return &PgVectorService{
		findings: findings,
		embedder: embedder,
		cache:    retrievalCache,
		logger:   log,
	}
}

func (s *PgVectorService) Search(ctx context.Context, scopeID, query string, limit int) ([]store.Passage, error) {
	key := cache.NormalizeQueryKey(scopeID, query)
	if hit := s.cache.Get(ctx, key); hit.Found {
		return hit.Value, nil
	}

	resp, err := s.embedder.Generate(query, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := s.findings.SearchSimilarWithScore(ctx, resp.Embedding.Values, limit, scopeID, similarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	passages := make([]store.Passage, 0, len(scored))
	for _, sf := range scored {
		passages = append(passages, store.Passage{
			ID:         sf.Finding.Id.String(),
			DocumentID: sf.Finding.Reference,
			Title:      sf.Finding.Title,
			Content:    sf.Finding.Content,
			Score:      float32(sf.Similarity),
			Metadata: map[string]interface{}{
				"kind": sf.Finding.Kind,
			},
		})
	}

	s.logger.Debug("Retrieval", "similarity search completed", map[string]interface{}{
		"scope_id": scopeID,
		"results":  len(passages),
	})

	s.cache.Set(ctx, key, passages)
	return passages, nil
}
