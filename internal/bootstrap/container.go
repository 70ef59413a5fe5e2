package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ywqqqq/xuedong-ai/internal/config"
	"github.com/ywqqqq/xuedong-ai/internal/controller"
	"github.com/ywqqqq/xuedong-ai/internal/model"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/repository/memory"
	"github.com/ywqqqq/xuedong-ai/internal/repository/unitofwork"
	"github.com/ywqqqq/xuedong-ai/internal/service"
	"github.com/ywqqqq/xuedong-ai/internal/websocket"
	"github.com/ywqqqq/xuedong-ai/pkg/embedding"
	"github.com/ywqqqq/xuedong-ai/pkg/llm/factory"
	pktNats "github.com/ywqqqq/xuedong-ai/pkg/nats"
	"github.com/ywqqqq/xuedong-ai/pkg/prompt"
	"github.com/ywqqqq/xuedong-ai/pkg/retrieval"
	"github.com/ywqqqq/xuedong-ai/pkg/speech"
	"github.com/ywqqqq/xuedong-ai/pkg/speech/xfyun"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController
	FileController      controller.IFileController
	AdminController     controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	if err := db.AutoMigrate(
		&model.TutorSession{},
		&model.Message{},
		&model.TurnDocument{},
		&model.KnowledgePoint{},
		&model.SessionKnowledge{},
		&model.UserKnowledge{},
	); err != nil {
		log.Printf("[WARN] AutoMigrate failed: %v", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGemini, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmTimeout := time.Duration(cfg.Ai.LLMTimeoutSec) * time.Second
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:   cfg.Ai.LLMProvider,
		Model:      cfg.Ai.LLMModel,
		ArkBaseURL: cfg.Ai.ArkBaseURL,
		ArkAPIKey:  cfg.Ai.ArkAPIKey,
		OllamaURL:  cfg.Ai.OllamaBaseURL,
		Timeout:    llmTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Speech clients are optional. Without credentials, audio input and
	// TTS endpoints report unsupported.
	var recognizer speech.Recognizer
	var synthesizer speech.Synthesizer
	if cfg.Speech.XfyunAppID != "" {
		recognizer = xfyun.NewASRClient(cfg.Speech.XfyunAppID, cfg.Speech.XfyunAPIKey, cfg.Speech.XfyunAPISecret)
		synthesizer = xfyun.NewTTSClient(cfg.Speech.XfyunAppID, cfg.Speech.XfyunAPIKey, cfg.Speech.XfyunAPISecret)
		log.Printf("[INFO] Xfyun speech clients initialized")
	}

	// In-memory per-session state (locks, last follow-ups)
	stateRepo := memory.NewSessionStateRepository()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	retriever := retrieval.NewRetriever(embeddingProvider, sysLogger, retrieval.Config{
		TopK: cfg.Ai.RetrievalTopK,
	})
	promptBuilder := prompt.NewBuilder()

	chatService := service.NewChatService(
		uowFactory,
		stateRepo,
		llmProvider,
		embeddingProvider,
		retriever,
		promptBuilder,
		recognizer,
		pubSub,
		natsPub,
		sysLogger,
		llmTimeout,
	)
	knowledgeService := service.NewKnowledgeService(uowFactory, llmProvider, promptBuilder, sysLogger, llmTimeout)
	consumerService := service.NewConsumerService(pubSub, service.TopicTurnCompleted, uowFactory, sysLogger)
	fileService := service.NewFileService(cfg.App.UploadDir, cfg.App.BaseURL, synthesizer, sysLogger)

	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	// 5. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		FileController:      controller.NewFileController(fileService),
		AdminController:     controller.NewAdminController(sysLogger),

		ConsumerService:     consumerService,
		NotificationService: notifService,
		WebSocketHub:        wsHub,
	}
}
