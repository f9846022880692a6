package factory

import (
	"fmt"

	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/llm/anthropic"
	"diligence-ai-be/pkg/llm/ollama"
	"diligence-ai-be/pkg/llm/openai"
)

// Credentials carries the per-provider secrets/endpoints known at startup.
type Credentials struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaBaseURL   string
}

// NewLLMProvider constructs a provider client for the given provider name.
// The provider switch happens once here; everything downstream depends only
// on llm.LLMProvider.
func NewLLMProvider(providerType, modelName string, creds Credentials) (llm.LLMProvider, error) {
	switch providerType {
	case "anthropic":
		if creds.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewAnthropicProvider(creds.AnthropicAPIKey, modelName), nil
	case "openai":
		if creds.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(creds.OpenAIAPIKey, modelName), nil
	case "ollama":
		baseURL := creds.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
