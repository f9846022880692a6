package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Providers ProviderConfig
	Agent     AgentConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type DatabaseConfig struct {
	Connection string
}

type CacheConfig struct {
	Enabled  bool
	RedisURL string
}

// ProviderConfig holds per-provider model credentials. A provider with an
// empty credential is treated as unavailable; Ollama only needs a base URL.
type ProviderConfig struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaBaseURL   string
	OllamaEnabled   bool

	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string
}

// AgentConfig allows overriding the per-tier model ids from the environment.
type AgentConfig struct {
	SimpleModel   string
	MediumModel   string
	ComplexModel  string
	MaxToolRounds int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Cache: CacheConfig{
			Enabled:  getEnvAsBool("CACHE_ENABLED", true),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Providers: ProviderConfig{
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEnabled:     getEnvAsBool("OLLAMA_ENABLED", false),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Agent: AgentConfig{
			SimpleModel:   getEnv("AGENT_SIMPLE_MODEL", ""),
			MediumModel:   getEnv("AGENT_MEDIUM_MODEL", ""),
			ComplexModel:  getEnv("AGENT_COMPLEX_MODEL", ""),
			MaxToolRounds: getEnvAsInt("AGENT_MAX_TOOL_ROUNDS", 4),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
