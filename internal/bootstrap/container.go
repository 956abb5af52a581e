package bootstrap

import (
	"context"
	"log"
	"time"

	"wa-concierge-be/internal/config"
	"wa-concierge-be/internal/controller"
	"wa-concierge-be/internal/pkg/dedup"
	"wa-concierge-be/internal/pkg/logger"
	"wa-concierge-be/internal/pkg/mailer"
	"wa-concierge-be/internal/repository/unitofwork"
	"wa-concierge-be/internal/service"
	"wa-concierge-be/pkg/agent"
	"wa-concierge-be/pkg/intent"
	"wa-concierge-be/pkg/llm/factory"
	pktNats "wa-concierge-be/pkg/nats"
	"wa-concierge-be/pkg/venues"
	"wa-concierge-be/pkg/wa"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const inboundTopic = "wa.inbound"

type Container struct {
	// Controllers
	WebhookController controller.IWebhookController
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	SessionRegistry service.ISessionRegistry
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

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

	// 3. LLM and conversation collaborators
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	classifier := intent.NewClassifier(llmProvider)
	generator := agent.NewGenerator(llmProvider)
	extractor := agent.NewRequirementsExtractor(llmProvider)

	venueClient := venues.NewHTTPClient(cfg.Venue.BaseURL, cfg.Venue.TicketCacheTTL)
	waSender := wa.NewGatewayClient(cfg.WA.GatewayURL)
	deduper := dedup.NewRedisDeduper(rdb, 24*time.Hour)

	// 4. Services
	chatStore := service.NewChatStoreService(uowFactory, sysLogger)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	registry := service.NewSessionRegistry(chatStore, waSender, eventPublisher, sysLogger, cfg.Session)

	conversationService := service.NewConversationService(
		registry,
		chatStore,
		classifier,
		generator,
		extractor,
		venueClient,
		waSender,
		emailService,
		sysLogger,
		cfg.Venue,
	)

	publisherService := service.NewPublisherService(inboundTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		inboundTopic,
		conversationService,
	)

	// 5. Controllers
	return &Container{
		WebhookController: controller.NewWebhookController(publisherService, deduper, sysLogger, cfg.WA),
		SessionController: controller.NewSessionController(chatStore, registry),

		ConsumerService: consumerService,
		SessionRegistry: registry,
	}
}
