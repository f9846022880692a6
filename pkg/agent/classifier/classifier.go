package classifier

import (
	"strings"

	"diligence-ai-be/pkg/agent/router"
)

// Keyword groups that push a message up a tier. Analysis verbs demand
// reasoning over data; synthesis verbs demand long-form multi-document work.
var analysisKeywords = []string{
	"analyze", "analyse", "compare", "evaluate", "assess", "calculate",
	"trend", "growth", "margin", "ratio", "valuation", "forecast",
}

var synthesisKeywords = []string{
	"summarize", "summarise", "synthesize", "comprehensive", "across all",
	"memo", "report", "presentation", "checklist", "every document",
	"full picture", "deep dive",
}

// Classify maps a user message to a complexity tier.
//
// The heuristic is intentionally cheap: short factual lookups stay on the
// simple tier, analytic questions go to medium, and multi-document
// synthesis goes to complex. Workflow modes that always produce long-form
// output (checklists, presentations) are complex regardless of phrasing.
func Classify(message, workflowMode string) router.Tier {
	if workflowMode == "checklist" || workflowMode == "presentation" {
		return router.TierComplex
	}

	lower := strings.ToLower(strings.TrimSpace(message))
	words := len(strings.Fields(lower))

	for _, kw := range synthesisKeywords {
		if strings.Contains(lower, kw) {
			return router.TierComplex
		}
	}

	for _, kw := range analysisKeywords {
		if strings.Contains(lower, kw) {
			return router.TierMedium
		}
	}

	// Multi-part questions read like analysis even without trigger words.
	if strings.Count(lower, "?") > 1 || words > 40 {
		return router.TierMedium
	}

	return router.TierSimple
}
