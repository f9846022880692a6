package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"diligence-ai-be/internal/dto"
	"diligence-ai-be/internal/entity"
	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/internal/repository/unitofwork"
	"diligence-ai-be/pkg/embedding"
	"diligence-ai-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedFindingMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "failed to unmarshal ingest message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed messages would retry forever
		return
	}

	cs.logger.Info("Consumer", "processing finding embedding", map[string]interface{}{
		"finding_id": payload.FindingId.String(),
		"scope_id":   payload.ScopeId,
	})

	// ChunkSize 1500 chars with 200 overlap keeps each chunk well inside
	// the embedding model's context window.
	chunks := utils.SplitText(payload.Content, 1500, 200)

	var newEmbeddings []*entity.FindingEmbedding
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, embedding.TaskDocument)
		if err != nil {
			cs.logger.Error("Consumer", "failed to generate embedding", map[string]interface{}{
				"finding_id": payload.FindingId.String(),
				"chunk":      i,
				"error":      err.Error(),
			})
			msg.Nack()
			return
		}

		title := payload.Title
		if len(chunks) > 1 {
			title = fmt.Sprintf("%s (part %d)", payload.Title, i+1)
		}
		newEmbeddings = append(newEmbeddings, &entity.FindingEmbedding{
			Id:             uuid.New(),
			ScopeId:        payload.ScopeId,
			Title:          title,
			Kind:           payload.Kind,
			Reference:      payload.Reference,
			Content:        chunk,
			EmbeddingValue: res.Embedding.Values,
			CreatedAt:      time.Now(),
		})
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("Consumer", "failed to begin transaction", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.FindingEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
		cs.logger.Error("Consumer", "failed to store embeddings", map[string]interface{}{
			"finding_id": payload.FindingId.String(),
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("Consumer", "failed to commit transaction", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("Consumer", "finding embedded", map[string]interface{}{
		"finding_id": payload.FindingId.String(),
		"chunks":     len(newEmbeddings),
	})
	msg.Ack()
}
