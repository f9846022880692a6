package specialist

import (
	"context"
	"fmt"
	"strings"

	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/retrieval"
	"diligence-ai-be/pkg/store"
)

const riskSystemPrompt = `You are a due-diligence risk reviewer.
From the provided excerpts, identify material risks: legal exposure, customer
concentration, regulatory issues, pending litigation, covenant breaches.
Rank them by severity and cite the excerpt each risk comes from. Only report
risks the excerpts actually support.`

// RiskSpecialist surfaces and ranks material risks found in the scope's
// documents.
type RiskSpecialist struct {
	retriever retrieval.Service
	analyst   llm.LLMProvider
}

func NewRiskSpecialist(retriever retrieval.Service, analyst llm.LLMProvider) *RiskSpecialist {
	return &RiskSpecialist{retriever: retriever, analyst: analyst}
}

func (s *RiskSpecialist) Name() string {
	return "risk_review"
}

func (s *RiskSpecialist) Description() string {
	return "Reviews the deal's documents for material risks: litigation, regulatory exposure, customer concentration, covenant issues. Use when asked about risks, red flags, or concerns."
}

func (s *RiskSpecialist) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"focus": map[string]interface{}{
				"type":        "string",
				"description": "Optional risk area to focus on (e.g. legal, financial, operational)",
			},
		},
	}
}

func (s *RiskSpecialist) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	focus := stringArg(args, "focus")
	scopeID := stringArg(args, ArgScopeID)

	query := "risks litigation regulatory exposure liabilities concerns"
	if focus != "" {
		query = focus + " " + query
	}

	passages, err := s.retriever.Search(ctx, scopeID, query, 10)
	if err != nil {
		return nil, fmt.Errorf("risk_review: retrieve: %w", err)
	}
	if len(passages) == 0 {
		return &Result{
			Answer:     "No risk-related findings were located in the data room.",
			Confidence: 0.1,
		}, nil
	}

	var excerpts strings.Builder
	sources := make([]store.Source, 0, len(passages))
	for i, p := range passages {
		fmt.Fprintf(&excerpts, "Excerpt %d (%s):\n%s\n\n", i+1, p.Title, p.Content)
		sources = append(sources, store.Source{
			ID:        p.ID,
			Title:     p.Title,
			Kind:      store.SourceKindDocument,
			Reference: p.DocumentID,
			Score:     p.Score,
		})
	}

	prompt := "Identify and rank the material risks in these excerpts."
	if focus != "" {
		prompt = fmt.Sprintf("Focus on %s risks. %s", focus, prompt)
	}

	history := []llm.Message{
		{Role: "system", Content: riskSystemPrompt},
		{Role: "user", Content: prompt + "\n\n" + excerpts.String()},
	}

	answer, err := s.analyst.Chat(ctx, history, llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("risk_review: analyze: %w", err)
	}

	return &Result{
		Answer:     answer,
		Sources:    sources,
		Confidence: 0.75,
	}, nil
}
