package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQueryKeyCollidesOnWordOrder(t *testing.T) {
	a := NormalizeQueryKey("deal-1", "Q3 revenue growth drivers")
	b := NormalizeQueryKey("deal-1", "growth drivers revenue Q3")

	assert.Equal(t, a, b, "semantically equivalent queries must collide")
}

func TestNormalizeQueryKeyDropsShortTokens(t *testing.T) {
	key := NormalizeQueryKey("deal-1", "what is the EBITDA margin")

	// "what"/"margin"/"ebitda" survive; "is", "the" do not.
	assert.Equal(t, "deal-1:ebitda-margin-what", key)
}

func TestNormalizeQueryKeyScopesByID(t *testing.T) {
	a := NormalizeQueryKey("deal-1", "revenue growth")
	b := NormalizeQueryKey("deal-2", "revenue growth")

	assert.NotEqual(t, a, b, "different scopes must never collide")
}

func TestToolCallKeyIgnoresArgumentOrder(t *testing.T) {
	a := ToolCallKey("financial_analysis", map[string]interface{}{"metric": "revenue", "period": "Q3"})
	b := ToolCallKey("financial_analysis", map[string]interface{}{"period": "Q3", "metric": "revenue"})

	assert.Equal(t, a, b)
}

func TestToolCallKeySeparatesTools(t *testing.T) {
	args := map[string]interface{}{"query": "supplier contracts"}

	assert.NotEqual(t, ToolCallKey("document_research", args), ToolCallKey("risk_review", args))
}
