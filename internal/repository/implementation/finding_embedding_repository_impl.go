package implementation

import (
	"context"

	"diligence-ai-be/internal/entity"
	"diligence-ai-be/internal/mapper"
	"diligence-ai-be/internal/model"
	"diligence-ai-be/internal/repository/contract"
	"diligence-ai-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type FindingEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FindingMapper
}

func NewFindingEmbeddingRepository(db *gorm.DB) contract.FindingEmbeddingRepository {
	return &FindingEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewFindingMapper(),
	}
}

func (r *FindingEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FindingEmbeddingRepositoryImpl) Create(ctx context.Context, finding *entity.FindingEmbedding) error {
	m := r.mapper.ToModel(finding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*finding = *r.mapper.ToEntity(m)
	return nil
}

func (r *FindingEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, findings []*entity.FindingEmbedding) error {
	if len(findings) == 0 {
		return nil
	}
	models := make([]*model.FindingEmbedding, len(findings))
	for i, f := range findings {
		models[i] = r.mapper.ToModel(f)
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

func (r *FindingEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.FindingEmbedding{}, id).Error
}

func (r *FindingEmbeddingRepositoryImpl) DeleteAllByScopeId(ctx context.Context, scopeId string) error {
	return r.db.WithContext(ctx).Where("scope_id = ?", scopeId).Delete(&model.FindingEmbedding{}).Error
}

func (r *FindingEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FindingEmbedding, error) {
	var models []*model.FindingEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *FindingEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FindingEmbedding{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FindingEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, scopeId string) ([]*entity.FindingEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}
	var models []*model.FindingEmbedding

	// Cosine distance ordering; scope filter keeps deals isolated from
	// each other.
	err := r.db.WithContext(ctx).
		Where("scope_id = ?", scopeId).
		Where("deleted_at IS NULL").
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error

	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

// SearchSimilarWithScore returns findings with similarity scores, filtered by threshold
func (r *FindingEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, scopeId string, threshold float64) ([]*contract.ScoredFinding, error) {
	if limit <= 0 {
		limit = 5
	}

	// pgvector's <=> operator yields cosine distance; similarity is
	// 1 - distance.
	type result struct {
		model.FindingEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("finding_embeddings").
		Select("finding_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("scope_id = ?", scopeId).
		Where("deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredFinding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredFinding{
			Finding:    r.mapper.ToEntity(&res.FindingEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
