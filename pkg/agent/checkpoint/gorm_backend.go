package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type checkpointRow struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadKey string         `gorm:"type:text;not null;index:idx_agent_checkpoints_thread_seq,priority:1"`
	Seq       int            `gorm:"not null;index:idx_agent_checkpoints_thread_seq,priority:2"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (checkpointRow) TableName() string {
	return "agent_checkpoints"
}

// GormBackend persists checkpoint lineages in Postgres. Rows are append-only:
// a Put inserts the next sequence number, never rewrites history.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

var _ Backend = &GormBackend{}

func (g *GormBackend) Setup(ctx context.Context) error {
	if g.db == nil {
		return fmt.Errorf("checkpoint backend: no database connection")
	}
	if err := g.db.WithContext(ctx).AutoMigrate(&checkpointRow{}); err != nil {
		return fmt.Errorf("migrate agent_checkpoints: %w", err)
	}
	return nil
}

func (g *GormBackend) Get(ctx context.Context, threadKey string) (*Checkpoint, error) {
	var row checkpointRow
	err := g.db.WithContext(ctx).
		Where("thread_key = ?", threadKey).
		Order("seq DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := json.Unmarshal(row.Payload, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint payload: %w", err)
	}
	cp.ThreadKey = threadKey
	cp.Seq = row.Seq
	return &cp, nil
}

func (g *GormBackend) Put(ctx context.Context, threadKey string, cp *Checkpoint) error {
	snapshot := cp.Clone()
	snapshot.ThreadKey = threadKey
	snapshot.UpdatedAt = time.Now()

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&checkpointRow{}).
			Where("thread_key = ?", threadKey).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		snapshot.Seq = maxSeq + 1

		payload, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("encode checkpoint payload: %w", err)
		}

		return tx.Create(&checkpointRow{
			Id:        uuid.New(),
			ThreadKey: threadKey,
			Seq:       snapshot.Seq,
			Payload:   payload,
		}).Error
	})
}
