package classifier

import (
	"testing"

	"diligence-ai-be/pkg/agent/router"

	"github.com/stretchr/testify/assert"
)

func TestShortLookupIsSimple(t *testing.T) {
	assert.Equal(t, router.TierSimple, Classify("What is the company's headcount?", "chat"))
}

func TestAnalyticQuestionIsMedium(t *testing.T) {
	assert.Equal(t, router.TierMedium, Classify("Compare gross margin over the last three years", "chat"))
}

func TestSynthesisRequestIsComplex(t *testing.T) {
	assert.Equal(t, router.TierComplex, Classify("Write a comprehensive memo on the deal", "chat"))
}

func TestLongFormModesAlwaysComplex(t *testing.T) {
	assert.Equal(t, router.TierComplex, Classify("customer contracts", "checklist"))
	assert.Equal(t, router.TierComplex, Classify("overview", "presentation"))
}

func TestMultiPartQuestionIsMedium(t *testing.T) {
	got := Classify("Who are the top customers? What share of revenue do they hold?", "chat")
	assert.Equal(t, router.TierMedium, got)
}
