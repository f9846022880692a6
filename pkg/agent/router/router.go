package router

import (
	"time"

	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/pkg/agent/agenterr"
)

// Tier is a discrete complexity bucket used to pick a model.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

func AllTiers() []Tier {
	return []Tier{TierSimple, TierMedium, TierComplex}
}

// ModelConfig fully specifies one model invocation. Configs are never
// mutated after construction; Resolve hands out copies.
type ModelConfig struct {
	Provider        string
	ModelID         string
	Temperature     float64
	MaxOutputTokens int
	RetryAttempts   int
	Timeout         time.Duration
}

// fallbackChain is a total, non-reflexive map: the most capable tier falls
// back to a cheaper model, not a harder one.
var fallbackChain = map[Tier]Tier{
	TierSimple:  TierMedium,
	TierMedium:  TierComplex,
	TierComplex: TierMedium,
}

// substitutionOrder lists the tiers tried when a tier's own provider has no
// credential: nearest tier first, cheaper side before the more expensive one.
var substitutionOrder = map[Tier][]Tier{
	TierSimple:  {TierMedium, TierComplex},
	TierMedium:  {TierSimple, TierComplex},
	TierComplex: {TierMedium, TierSimple},
}

func defaultConfigs() map[Tier]ModelConfig {
	return map[Tier]ModelConfig{
		TierSimple: {
			Provider:        "openai",
			ModelID:         "gpt-4o-mini",
			Temperature:     0.3,
			MaxOutputTokens: 1024,
			RetryAttempts:   2,
			Timeout:         30 * time.Second,
		},
		TierMedium: {
			Provider:        "anthropic",
			ModelID:         "claude-sonnet-4-20250514",
			Temperature:     0.5,
			MaxOutputTokens: 4096,
			RetryAttempts:   2,
			Timeout:         60 * time.Second,
		},
		TierComplex: {
			Provider:        "anthropic",
			ModelID:         "claude-opus-4-20250514",
			Temperature:     0.7,
			MaxOutputTokens: 8192,
			RetryAttempts:   1,
			Timeout:         120 * time.Second,
		},
	}
}

// Router maps complexity tiers to model configurations. It is pure over the
// availability snapshot taken at construction.
type Router struct {
	configs   map[Tier]ModelConfig
	available map[string]bool
	logger    logger.ILogger
}

// NewRouter builds a router from the provider availability map
// (provider name -> credential configured) and optional per-tier model id
// overrides.
func NewRouter(available map[string]bool, overrides map[Tier]string, log logger.ILogger) *Router {
	configs := defaultConfigs()
	for tier, modelID := range overrides {
		if modelID == "" {
			continue
		}
		cfg := configs[tier]
		cfg.ModelID = modelID
		configs[tier] = cfg
	}
	return &Router{
		configs:   configs,
		available: available,
		logger:    log,
	}
}

// Resolve returns the model config for a tier. If the tier's provider lacks
// a credential, the nearest available tier's config is substituted. The
// substitution is logged, never an error. Only when no provider anywhere
// has a credential does Resolve fail, with a configuration error.
func (r *Router) Resolve(tier Tier) (ModelConfig, error) {
	cfg, ok := r.configs[tier]
	if !ok {
		cfg = r.configs[TierMedium]
		tier = TierMedium
	}

	if r.available[cfg.Provider] {
		return cfg, nil
	}

	for _, candidate := range substitutionOrder[tier] {
		sub := r.configs[candidate]
		if r.available[sub.Provider] {
			if r.logger != nil {
				r.logger.Warn("ModelRouter", "Substituted model tier: provider credential missing", map[string]interface{}{
					"requested_tier": string(tier),
					"used_tier":      string(candidate),
					"provider":       sub.Provider,
					"model":          sub.ModelID,
				})
			}
			return sub, nil
		}
	}

	return ModelConfig{}, agenterr.Configuration("no model provider credential configured for any tier")
}

// FallbackFor returns the single next-hop config in the fallback chain.
// Callers wrap exactly one retry-with-fallback; there is no chain walk.
func (r *Router) FallbackFor(tier Tier) (ModelConfig, error) {
	return r.Resolve(fallbackChain[tier])
}

// FallbackTier exposes the next hop of the chain.
func FallbackTier(tier Tier) Tier {
	return fallbackChain[tier]
}
