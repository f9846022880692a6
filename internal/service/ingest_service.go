package service

import (
	"context"
	"encoding/json"

	"diligence-ai-be/internal/dto"
	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/pkg/events"
	pkgNats "diligence-ai-be/pkg/nats"

	"github.com/google/uuid"
)

type IIngestService interface {
	IngestFinding(ctx context.Context, req *dto.IngestFindingRequest) (*dto.IngestFindingResponse, error)
}

// ingestService accepts findings and queues them for asynchronous chunking
// and embedding; the consumer picks jobs off the embed topic.
type ingestService struct {
	publisherService IPublisherService
	natsPub          *pkgNats.Publisher
	logger           logger.ILogger
}

func NewIngestService(
	publisherService IPublisherService,
	natsPub *pkgNats.Publisher,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		publisherService: publisherService,
		natsPub:          natsPub,
		logger:           log,
	}
}

func (s *ingestService) IngestFinding(ctx context.Context, req *dto.IngestFindingRequest) (*dto.IngestFindingResponse, error) {
	findingId := uuid.New()

	payload := dto.PublishEmbedFindingMessage{
		FindingId: findingId,
		ScopeId:   req.ScopeId,
		Title:     req.Title,
		Kind:      req.Kind,
		Reference: req.Reference,
		Content:   req.Content,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		return nil, err
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewFindingIngestQueued(findingId.String(), req.ScopeId)); err != nil {
			s.logger.Warn("IngestService", "failed to publish ingest event", map[string]interface{}{
				"finding_id": findingId.String(),
				"error":      err.Error(),
			})
		}
	}

	s.logger.Info("IngestService", "finding queued for embedding", map[string]interface{}{
		"finding_id": findingId.String(),
		"scope_id":   req.ScopeId,
		"kind":       req.Kind,
	})

	return &dto.IngestFindingResponse{
		FindingId: findingId,
		Queued:    true,
	}, nil
}
