package bootstrap

import (
	"context"
	"log"

	"diligence-ai-be/internal/config"
	"diligence-ai-be/internal/constant"
	"diligence-ai-be/internal/controller"
	"diligence-ai-be/internal/pkg/logger"
	"diligence-ai-be/internal/repository/implementation"
	"diligence-ai-be/internal/repository/unitofwork"
	"diligence-ai-be/internal/service"
	"diligence-ai-be/internal/websocket"
	"diligence-ai-be/pkg/agent/checkpoint"
	"diligence-ai-be/pkg/agent/orchestrator"
	"diligence-ai-be/pkg/agent/router"
	"diligence-ai-be/pkg/agent/specialist"
	"diligence-ai-be/pkg/cache"
	"diligence-ai-be/pkg/embedding"
	"diligence-ai-be/pkg/llm"
	"diligence-ai-be/pkg/llm/factory"
	"diligence-ai-be/pkg/retrieval"
	"diligence-ai-be/pkg/store"

	pktNats "diligence-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AgentController  controller.IAgentController
	IngestController controller.IIngestController
	WsController     controller.IWsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis (websocket cluster fan-out)
	opt, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.Cache.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Cache store + per-domain caches. The store degrades to its in-process
	// fallback when Redis is down, so construction never fails.
	cacheStore := cache.NewStore(cfg.Cache.RedisURL, cfg.Cache.Enabled, sysLogger)
	cacheStore.Connect(context.Background())

	caches := &service.AgentCaches{
		ToolResult: cache.New[specialist.Result](cacheStore, cache.NamespaceToolResult, sysLogger),
		Retrieval:  cache.New[[]store.Passage](cacheStore, cache.NamespaceRetrieval, sysLogger),
		Summary:    cache.New[string](cacheStore, cache.NamespaceSummary, sysLogger),
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notifier.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Embedding + ingest pipeline
	embeddingProvider := embedding.NewProvider(
		cfg.Providers.EmbeddingProvider,
		cfg.Providers.OpenAIAPIKey,
		cfg.Providers.OllamaBaseURL,
		cfg.Providers.EmbeddingModel,
	)
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Providers.EmbeddingProvider, cfg.Providers.EmbeddingModel)

	publisherService := service.NewPublisherService(constant.TopicEmbedFinding, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.TopicEmbedFinding,
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	// 5. Agent runtime
	creds := factory.Credentials{
		OpenAIAPIKey:    cfg.Providers.OpenAIAPIKey,
		AnthropicAPIKey: cfg.Providers.AnthropicAPIKey,
		OllamaBaseURL:   cfg.Providers.OllamaBaseURL,
	}
	providerFactory := func(mc router.ModelConfig) (llm.LLMProvider, error) {
		return factory.NewLLMProvider(mc.Provider, mc.ModelID, creds)
	}

	available := map[string]bool{
		"openai":    cfg.Providers.OpenAIAPIKey != "",
		"anthropic": cfg.Providers.AnthropicAPIKey != "",
		"ollama":    cfg.Providers.OllamaEnabled,
	}
	overrides := map[router.Tier]string{}
	if cfg.Agent.SimpleModel != "" {
		overrides[router.TierSimple] = cfg.Agent.SimpleModel
	}
	if cfg.Agent.MediumModel != "" {
		overrides[router.TierMedium] = cfg.Agent.MediumModel
	}
	if cfg.Agent.ComplexModel != "" {
		overrides[router.TierComplex] = cfg.Agent.ComplexModel
	}
	modelRouter := router.NewRouter(available, overrides, sysLogger)

	checkpointer := checkpoint.NewCheckpointer(checkpoint.NewGormBackend(db), sysLogger)

	// Specialists. The analytical ones share one medium-tier provider; when
	// no remote credential is configured they run against local Ollama.
	findingRepo := implementation.NewFindingEmbeddingRepository(db)
	retrievalService := retrieval.NewPgVectorService(findingRepo, embeddingProvider, caches.Retrieval, sysLogger)

	var analyst llm.LLMProvider
	if mc, err := modelRouter.Resolve(router.TierMedium); err == nil {
		analyst, err = providerFactory(mc)
		if err != nil {
			log.Printf("[WARN] Failed to build analyst provider: %v", err)
		}
	}
	if analyst == nil {
		analyst, _ = factory.NewLLMProvider("ollama", "llama3.1", creds)
	}

	catalog := specialist.NewCatalog(
		specialist.NewResearchSpecialist(retrievalService),
		specialist.NewFinancialSpecialist(retrievalService, analyst),
		specialist.NewGraphSpecialist(findingRepo),
		specialist.NewRiskSpecialist(retrievalService, analyst),
	)

	orch := orchestrator.NewOrchestrator(
		modelRouter,
		checkpointer,
		catalog,
		caches.ToolResult,
		providerFactory,
		cfg.Agent.MaxToolRounds,
		sysLogger,
	)

	// 6. Services
	agentService := service.NewAgentService(
		uowFactory,
		orch,
		modelRouter,
		providerFactory,
		caches,
		natsPub,
		sysLogger,
	)
	ingestService := service.NewIngestService(publisherService, natsPub, sysLogger)

	notifierService := service.NewNotifierService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go func() {
			if err := notifierService.Start(); err != nil {
				log.Printf("[WARN] Notifier failed to start: %v", err)
			}
		}()
	}

	// 7. Controllers
	return &Container{
		AgentController:  controller.NewAgentController(agentService),
		IngestController: controller.NewIngestController(ingestService),
		WsController:     controller.NewWsController(wsHub, wsLogger),
		ConsumerService:  consumerService,
		WebSocketHub:     wsHub,
	}
}
