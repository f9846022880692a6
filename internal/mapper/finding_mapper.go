package mapper

import (
	"time"

	"diligence-ai-be/internal/entity"
	"diligence-ai-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type FindingMapper struct{}

func NewFindingMapper() *FindingMapper {
	return &FindingMapper{}
}

func (m *FindingMapper) ToEntity(e *model.FindingEmbedding) *entity.FindingEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.FindingEmbedding{
		Id:             e.Id,
		ScopeId:        e.ScopeId,
		Title:          e.Title,
		Kind:           e.Kind,
		Reference:      e.Reference,
		Content:        e.Content,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      e.DeletedAt.Valid,
	}
}

func (m *FindingMapper) ToModel(e *entity.FindingEmbedding) *model.FindingEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.FindingEmbedding{
		Id:             e.Id,
		ScopeId:        e.ScopeId,
		Title:          e.Title,
		Kind:           e.Kind,
		Reference:      e.Reference,
		Content:        e.Content,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *FindingMapper) ToEntities(embeddings []*model.FindingEmbedding) []*entity.FindingEmbedding {
	entities := make([]*entity.FindingEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
