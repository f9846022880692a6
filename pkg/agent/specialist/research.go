package specialist

import (
	"context"
	"fmt"
	"strings"

	"diligence-ai-be/pkg/retrieval"
	"diligence-ai-be/pkg/store"
)

// ResearchSpecialist answers document questions by searching the scope's
// embedded findings and quoting the most relevant passages.
type ResearchSpecialist struct {
	retriever retrieval.Service
}

func NewResearchSpecialist(retriever retrieval.Service) *ResearchSpecialist {
	return &ResearchSpecialist{retriever: retriever}
}

func (s *ResearchSpecialist) Name() string {
	return "document_research"
}

func (s *ResearchSpecialist) Description() string {
	return "Searches the deal's data room documents and returns the passages most relevant to a question. Use for any question answerable from uploaded documents."
}

func (s *ResearchSpecialist) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The question or topic to research in the data room",
			},
		},
		"required": []string{"query"},
	}
}

func (s *ResearchSpecialist) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, fmt.Errorf("document_research: query is required")
	}
	scopeID := stringArg(args, ArgScopeID)

	passages, err := s.retriever.Search(ctx, scopeID, query, 5)
	if err != nil {
		return nil, fmt.Errorf("document_research: %w", err)
	}

	if len(passages) == 0 {
		return &Result{
			Answer:     "No relevant passages were found in the data room for this question.",
			Confidence: 0.1,
		}, nil
	}

	var sb strings.Builder
	sources := make([]store.Source, 0, len(passages))
	var topScore float32
	for i, p := range passages {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, p.Title, p.Content)
		sources = append(sources, store.Source{
			ID:        p.ID,
			Title:     p.Title,
			Kind:      store.SourceKindDocument,
			Reference: p.DocumentID,
			Score:     p.Score,
		})
		if p.Score > topScore {
			topScore = p.Score
		}
	}

	return &Result{
		Answer:     sb.String(),
		Sources:    sources,
		Confidence: float64(topScore),
	}, nil
}
