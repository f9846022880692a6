package specialist

import (
	"context"
	"fmt"
	"strings"

	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/retrieval"
	"diligence-ai-be/pkg/store"
)

const financialSystemPrompt = `You are a financial analyst reviewing due-diligence materials.
Answer strictly from the provided excerpts. Quantify where the data allows it
(growth rates, margins, ratios). If the excerpts do not support an answer, say so.`

// FinancialSpecialist runs quantitative analysis over the scope's financial
// findings: it retrieves the relevant excerpts and has an analyst model
// compute the metrics the question asks for.
type FinancialSpecialist struct {
	retriever retrieval.Service
	analyst   llm.LLMProvider
}

func NewFinancialSpecialist(retriever retrieval.Service, analyst llm.LLMProvider) *FinancialSpecialist {
	return &FinancialSpecialist{retriever: retriever, analyst: analyst}
}

func (s *FinancialSpecialist) Name() string {
	return "financial_analysis"
}

func (s *FinancialSpecialist) Description() string {
	return "Performs quantitative financial analysis over the deal's financial statements and models: growth, margins, ratios, trend commentary. Use for numeric or valuation questions."
}

func (s *FinancialSpecialist) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "The financial question to analyze",
			},
		},
		"required": []string{"question"},
	}
}

func (s *FinancialSpecialist) Execute(ctx context.Context, args map[string]interface{}) (*Result, error) {
	question := stringArg(args, "question")
	if question == "" {
		return nil, fmt.Errorf("financial_analysis: question is required")
	}
	scopeID := stringArg(args, ArgScopeID)

	passages, err := s.retriever.Search(ctx, scopeID, question, 8)
	if err != nil {
		return nil, fmt.Errorf("financial_analysis: retrieve: %w", err)
	}
	if len(passages) == 0 {
		return &Result{
			Answer:     "No financial data relevant to this question was found in the data room.",
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
			Kind:      store.SourceKindAnalysis,
			Reference: p.DocumentID,
			Score:     p.Score,
		})
	}

	history := []llm.Message{
		{Role: "system", Content: financialSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\n%s", question, excerpts.String())},
	}

	answer, err := s.analyst.Chat(ctx, history, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("financial_analysis: analyze: %w", err)
	}

	return &Result{
		Answer:     answer,
		Sources:    sources,
		Confidence: 0.8,
	}, nil
}
