package router

import (
	"testing"

	"diligence-ai-be/pkg/agent/agenterr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allAvailable() map[string]bool {
	return map[string]bool{"openai": true, "anthropic": true, "ollama": true}
}

func TestResolveIsTotal(t *testing.T) {
	r := NewRouter(allAvailable(), nil, nil)

	for _, tier := range AllTiers() {
		cfg, err := r.Resolve(tier)
		require.NoError(t, err)
		assert.NotEmpty(t, cfg.Provider)
		assert.NotEmpty(t, cfg.ModelID)
		assert.Greater(t, cfg.MaxOutputTokens, 0)
		assert.True(t, r.available[cfg.Provider], "resolved provider must have a credential")
	}
}

func TestFallbackChainIsNeverReflexive(t *testing.T) {
	for _, tier := range AllTiers() {
		next := FallbackTier(tier)
		assert.NotEmpty(t, next)
		assert.NotEqual(t, tier, next, "no tier may be its own fallback")
	}
}

func TestComplexFallsBackCheaper(t *testing.T) {
	// The most capable tier must fall back to a cheaper model, not a harder one.
	assert.Equal(t, TierMedium, FallbackTier(TierComplex))
}

func TestResolveSubstitutesWhenCredentialMissing(t *testing.T) {
	// Simple tier runs on openai by default; with only anthropic configured
	// the router must substitute an anthropic-backed tier rather than fail.
	r := NewRouter(map[string]bool{"anthropic": true}, nil, nil)

	cfg, err := r.Resolve(TierSimple)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
}

func TestResolveFailsWithoutAnyProvider(t *testing.T) {
	r := NewRouter(map[string]bool{}, nil, nil)

	_, err := r.Resolve(TierSimple)
	require.Error(t, err)
	assert.True(t, agenterr.IsCode(err, agenterr.CodeConfiguration))
}

func TestModelOverrides(t *testing.T) {
	r := NewRouter(allAvailable(), map[Tier]string{TierMedium: "claude-haiku-test"}, nil)

	cfg, err := r.Resolve(TierMedium)
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-test", cfg.ModelID)
}

func TestResolveReturnsFreshConfig(t *testing.T) {
	r := NewRouter(allAvailable(), nil, nil)

	first, err := r.Resolve(TierSimple)
	require.NoError(t, err)
	first.Temperature = 99

	second, err := r.Resolve(TierSimple)
	require.NoError(t, err)
	assert.NotEqual(t, first.Temperature, second.Temperature, "mutating a resolved config must not leak into the router")
}
