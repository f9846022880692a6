package retrieval

import (
	"context"

	"diligence-ai-be/pkg/store"
)

// Service finds evidence passages relevant to a query inside one scope
// (a deal's data room). Implementations cache aggressively since the same
// questions recur across a diligence session.
type Service interface {
	Search(ctx context.Context, scopeID, query string, limit int) ([]store.Passage, error)
}
