package specialist

import (
	"context"
	"fmt"
	"strings"

	"diligence-ai-be/internal/repository/contract"
	"diligence-ai-be/internal/repository/specification"
	"diligence-ai-be/pkg/store"
)

// GraphSpecialist answers entity and relationship questions from the
// scope's graph findings (ownership chains, counterparties, org structure).
type GraphSpecialist struct {
	findings contract.FindingEmbeddingRepository
}

func NewGraphSpecialist(findings contract.FindingEmbeddingRepository) *GraphSpecialist {
	return &GraphSpecialist{findings: findings}
}

func (s *GraphSpecialist) Name() string {
	return "graph_lookup"
}

func (s *GraphSpecialist) Description() string {
	return "Looks up entities and their relationships in the deal's knowledge graph: ownership, subsidiaries, contracts between parties, key people. Use for who-owns-what and who-is-connected-to-whom questions."
}

func (s *GraphSpecialist) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entity": map[string]interface{}{
				"type":        "string",
				"description": "The entity name to look up relationships for",
			},
		},
		"required": []string{"entity"},
	}
}

func (s *GraphSpecialist) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	entity := stringArg(args, "entity")
	if entity == "" {
		return nil, fmt.Errorf("graph_lookup: entity is required")
	}
	scopeID := stringArg(args, ArgScopeID)

	rows, err := s.findings.FindAll(ctx,
		specification.ByScopeID{ScopeID: scopeID},
		specification.Filter("kind", store.SourceKindGraph),
	)
	if err != nil {
		return nil, fmt.Errorf("graph_lookup: %w", err)
	}

	needle := strings.ToLower(entity)
	var sb strings.Builder
	var sources []store.Source
	for _, f := range rows {
		if !strings.Contains(strings.ToLower(f.Content), needle) &&
			!strings.Contains(strings.ToLower(f.Title), needle) {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", f.Title, f.Content)
		sources = append(sources, store.Source{
			ID:        f.Id.String(),
			Title:     f.Title,
			Kind:      store.SourceKindGraph,
			Reference: f.Reference,
		})
	}

	if len(sources) == 0 {
		return &Result{
			Answer:     fmt.Sprintf("No graph relationships were found for %q in this deal.", entity),
			Confidence: 0.1,
		}, nil
	}

	return &Result{
		Answer:     sb.String(),
		Sources:    sources,
		Confidence: 0.9,
		Data: map[string]interface{}{
			"entity":  entity,
			"matches": len(sources),
		},
	}, nil
}
