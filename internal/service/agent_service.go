package service

import (
	"context"
	"fmt"
	"strings"

	"diligence-ai-be/internal/constant"
	"diligence-ai-be/internal/dto"
	"diligence-ai-be/internal/entity"
	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/internal/repository/specification"
	"diligence-ai-be/internal/repository/unitofwork"
	"diligence-ai-be/pkg/agent/checkpoint"
	"diligence-ai-be/pkg/agent/orchestrator"
	"diligence-ai-be/pkg/agent/router"
	"diligence-ai-be/pkg/agent/specialist"
	"diligence-ai-be/pkg/agent/stream"
	"diligence-ai-be/pkg/cache"
	"diligence-ai-be/pkg/events"
	"diligence-ai-be/pkg/llm"
	pkgNats "diligence-ai-be/pkg/nats"
	"diligence-ai-be/pkg/store"

	"github.com/google/uuid"
)

type IAgentService interface {
	CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error)
	ListConversations(ctx context.Context, userId uuid.UUID, scopeId string) ([]*dto.ConversationSummary, error)
	GetHistory(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*dto.GetHistoryResponse, error)
	DeleteConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error
	StreamTurn(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID, message string, send func(stream.Event)) error
	SummarizeConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (string, error)
	CacheStats() *dto.CacheStatsResponse
}

// AgentCaches groups the domain caches so their counters can be reported
// together.
type AgentCaches struct {
	ToolResult *cache.DomainCache[specialist.Result]
	Retrieval  *cache.DomainCache[[]store.Passage]
	Summary    *cache.DomainCache[string]
}

type agentService struct {
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *orchestrator.Orchestrator
	modelRouter  *router.Router
	providers    orchestrator.ProviderFactory
	caches       *AgentCaches
	natsPub      *pkgNats.Publisher
	logger       logger.ILogger
}

func NewAgentService(
	uowFactory unitofwork.RepositoryFactory,
	orch *orchestrator.Orchestrator,
	modelRouter *router.Router,
	providers orchestrator.ProviderFactory,
	caches *AgentCaches,
	natsPub *pkgNats.Publisher,
	log logger.ILogger,
) IAgentService {
	return &agentService{
		uowFactory:   uowFactory,
		orchestrator: orch,
		modelRouter:  modelRouter,
		providers:    providers,
		caches:       caches,
		natsPub:      natsPub,
		logger:       log,
	}
}

func (s *agentService) CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	title := req.Title
	if title == "" {
		title = "New conversation"
	}

	conversation := &entity.Conversation{
		Id:           uuid.New(),
		UserId:       userId,
		ScopeId:      req.ScopeId,
		WorkflowMode: req.WorkflowMode,
		Title:        title,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}

	threadId := checkpoint.New(req.WorkflowMode, req.ScopeId, userId.String(), conversation.Id.String())

	return &dto.CreateConversationResponse{
		Id:       conversation.Id,
		ThreadId: threadId.String(),
	}, nil
}

func (s *agentService) ListConversations(ctx context.Context, userId uuid.UUID, scopeId string) ([]*dto.ConversationSummary, error) {
	specs := []specification.Specification{
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if scopeId != "" {
		specs = append(specs, specification.ByScopeID{ScopeID: scopeId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversations, err := uow.ConversationRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		result = append(result, &dto.ConversationSummary{
			Id:           c.Id,
			ScopeId:      c.ScopeId,
			WorkflowMode: c.WorkflowMode,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return result, nil
}

// ownedConversation loads a conversation and enforces ownership.
func (s *agentService) ownedConversation(ctx context.Context, uow unitofwork.UnitOfWork, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found")
	}
	return conversation, nil
}

func (s *agentService) GetHistory(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*dto.GetHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.ownedConversation(ctx, uow, userId, conversationId); err != nil {
		return nil, err
	}

	messages, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := &dto.GetHistoryResponse{
		ConversationId: conversationId,
		Messages:       make([]*dto.ConversationMessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		result.Messages = append(result.Messages, &dto.ConversationMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			Sources:   m.Sources,
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}

func (s *agentService) DeleteConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.ownedConversation(ctx, uow, userId, conversationId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ConversationMessageRepository().DeleteAllByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.publishEvent(ctx, events.NewConversationDeleted(conversationId.String(), userId.String()))
	return nil
}

func (s *agentService) StreamTurn(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID, userMessage string, send func(stream.Event)) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := s.ownedConversation(ctx, uow, userId, conversationId)
	if err != nil {
		return err
	}

	threadId := checkpoint.New(conversation.WorkflowMode, conversation.ScopeId, userId.String(), conversationId.String())

	if err := uow.ConversationMessageRepository().Create(ctx, &entity.ConversationMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           constant.MessageRoleUser,
		Content:        userMessage,
	}); err != nil {
		return err
	}

	var terminal *stream.Event
	runErr := s.orchestrator.RunTurn(ctx, threadId, userMessage, func(ev stream.Event) {
		if ev.IsTerminal() {
			copied := ev
			terminal = &copied
		}
		send(ev)
	})

	failed := terminal == nil || terminal.Type == stream.EventError
	messageId := ""
	if terminal != nil && terminal.Type == stream.EventDone {
		messageId = terminal.MessageID
		msg := &entity.ConversationMessage{
			Id:             uuid.New(),
			ConversationId: conversationId,
			Role:           constant.MessageRoleAssistant,
			Content:        terminal.Content,
			Sources:        terminal.Sources,
		}
		if id, parseErr := uuid.Parse(terminal.MessageID); parseErr == nil {
			msg.Id = id
		}
		// The answer already streamed; persistence failure is logged, not
		// surfaced.
		if err := uow.ConversationMessageRepository().Create(ctx, msg); err != nil {
			s.logger.Error("AgentService", "failed to persist assistant message", map[string]interface{}{
				"conversation_id": conversationId.String(),
				"error":           err.Error(),
			})
		}
	}

	s.publishEvent(ctx, events.NewAgentTurnCompleted(conversationId.String(), userId.String(), messageId, failed))
	return runErr
}

const summarySystemPrompt = "Summarize this due-diligence conversation in 3 sentences or fewer for a deal-team digest. Mention the topics covered and any conclusions reached."

func (s *agentService) SummarizeConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := s.ownedConversation(ctx, uow, userId, conversationId)
	if err != nil {
		return "", err
	}

	messages, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("conversation has no messages to summarize")
	}

	// Keyed by scope + title + length so the cache invalidates as the
	// conversation grows.
	key := cache.NormalizeQueryKey(conversation.ScopeId, fmt.Sprintf("%s summary %d", conversation.Title, len(messages)))
	if hit := s.caches.Summary.Get(ctx, key); hit.Found {
		return hit.Value, nil
	}

	cfg, err := s.modelRouter.Resolve(router.TierSimple)
	if err != nil {
		return "", err
	}
	provider, err := s.providers(cfg)
	if err != nil {
		return "", err
	}

	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	history := []llm.Message{
		{Role: constant.MessageRoleSystem, Content: summarySystemPrompt},
		{Role: constant.MessageRoleUser, Content: transcript.String()},
	}
	summary, err := provider.Chat(ctx, history, llm.WithModel(cfg.ModelID), llm.WithTemperature(0.3))
	if err != nil {
		return "", err
	}

	s.caches.Summary.Set(ctx, key, summary)
	return summary, nil
}

func (s *agentService) CacheStats() *dto.CacheStatsResponse {
	toNamespaceStats := func(st cache.Stats) dto.CacheNamespaceStats {
		return dto.CacheNamespaceStats{Hits: st.Hits, Misses: st.Misses, Fallbacks: st.Fallbacks}
	}
	return &dto.CacheStatsResponse{
		ToolResult: toNamespaceStats(s.caches.ToolResult.GetStats()),
		Retrieval:  toNamespaceStats(s.caches.Retrieval.GetStats()),
		Summary:    toNamespaceStats(s.caches.Summary.GetStats()),
	}
}

func (s *agentService) publishEvent(ctx context.Context, evt events.Event) {
	if s.natsPub == nil {
		return
	}
	if err := s.natsPub.Publish(ctx, evt); err != nil {
		s.logger.Warn("AgentService", "failed to publish event", map[string]interface{}{
			"event": evt.EventType(),
			"error": err.Error(),
		})
	}
}
