package unitofwork

import (
	"context"

	"diligence-ai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	ConversationMessageRepository() contract.ConversationMessageRepository
	FindingEmbeddingRepository() contract.FindingEmbeddingRepository
}
