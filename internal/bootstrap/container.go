package bootstrap

import (
	"log"
	"time"

	"ai-diagnostics-be/internal/config"
	"ai-diagnostics-be/internal/controller"
	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/internal/repository"
	"ai-diagnostics-be/internal/repository/memory"
	"ai-diagnostics-be/pkg/agent/extract"
	"ai-diagnostics-be/pkg/agent/format"
	"ai-diagnostics-be/pkg/agent/orchestrator"
	"ai-diagnostics-be/pkg/agent/telemetry"
	"ai-diagnostics-be/pkg/agent/tools"
	"ai-diagnostics-be/pkg/embedding"
	"ai-diagnostics-be/pkg/llm"
	pktNats "ai-diagnostics-be/pkg/nats"
	"ai-diagnostics-be/pkg/retrieval"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	TelemetryController controller.ITelemetryController

	// Exposed for graceful shutdown in main
	Logger  logger.ILogger
	NatsPub *pktNats.Publisher
}

// NewContainer wires the full pipeline. db may be nil, in which case the
// in-memory fixture store backs every tool source.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Completion and embedding providers
	var provider llm.Provider = llm.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.LLMModel)
	provider = orchestrator.NewRetryingProvider(provider, retryPolicy(cfg))
	embedder := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using completion model: %s", cfg.Ai.LLMModel)

	engine := retrieval.NewEngine(embedder, retrieval.Config{
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		TopK:                cfg.Retrieval.TopK,
	}, sysLogger)

	// Tool data sources
	var sources tools.Sources
	if db != nil {
		sources = tools.Sources{
			Parts:     repository.NewPartRepository(db),
			Corpus:    repository.NewManualCorpusRepository(db),
			Suppliers: repository.NewSupplierRepository(db),
			Guides:    repository.NewGuideRepository(db),
			Assets:    repository.NewAssetRepository(db),
			History:   repository.NewHistoryRepository(db),
		}
	} else {
		log.Println("[WARN] No database configured, using in-memory fixture store")
		sources = memory.Seeded().Sources()
	}

	executor := tools.NewExecutor(sources, engine, sysLogger)

	// Telemetry sink selection
	var sink telemetry.Sink
	switch cfg.Telemetry.Sink {
	case "redis":
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Invalid REDIS_URL, falling back to memory sink: %v", err)
			sink = telemetry.NewMemorySink(24 * time.Hour)
		} else {
			sink = telemetry.NewRedisSink(redis.NewClient(opts))
		}
	case "postgres":
		if db == nil {
			log.Println("[WARN] Postgres sink requested without a database, using memory sink")
			sink = telemetry.NewMemorySink(24 * time.Hour)
		} else {
			sink = repository.NewTelemetryRepository(db)
		}
	default:
		sink = telemetry.NewMemorySink(24 * time.Hour)
	}

	// Event bus
	var natsPub *pktNats.Publisher
	var publisher orchestrator.EventPublisher
	if cfg.Telemetry.PublishEvents {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
			publisher = pub
		}
	}

	o := orchestrator.New(
		extract.NewExtractor(provider, sysLogger),
		executor,
		format.NewFormatter(provider, sysLogger),
		sink,
		publisher,
		sysLogger,
	)

	return &Container{
		ChatController:      controller.NewChatController(o, sysLogger),
		TelemetryController: controller.NewTelemetryController(sink),
		Logger:              sysLogger,
		NatsPub:             natsPub,
	}
}

func retryPolicy(cfg *config.Config) orchestrator.RetryPolicy {
	policy := orchestrator.DefaultRetryPolicy()
	if cfg.Ai.MaxRetries > 0 {
		policy.MaxAttempts = uint(cfg.Ai.MaxRetries)
	}
	return policy
}
