package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type FindingEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScopeId        string          `gorm:"type:text;not null;index"`
	Title          string          `gorm:"type:text;not null"`
	Kind           string          `gorm:"type:text;not null"` // document | graph | analysis
	Reference      string          `gorm:"type:text"`
	Content        string          `gorm:"type:text;not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1536)"` // text-embedding-3-small dimensionality
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (FindingEmbedding) TableName() string {
	return "finding_embeddings"
}
