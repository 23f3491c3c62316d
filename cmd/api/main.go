package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptcoach-api/internal/config"
	"github.com/noah-isme/promptcoach-api/internal/database"
	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/handler"
	"github.com/noah-isme/promptcoach-api/internal/middleware"
	"github.com/noah-isme/promptcoach-api/internal/models"
	"github.com/noah-isme/promptcoach-api/internal/repository"
	"github.com/noah-isme/promptcoach-api/internal/router"
	"github.com/noah-isme/promptcoach-api/internal/service"
	"github.com/noah-isme/promptcoach-api/pkg/ai"
	"github.com/noah-isme/promptcoach-api/pkg/evaluator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.EvaluationRun{}, &models.UsageLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName), nats.MaxReconnects(-1))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, evaluation events will not be published to nats")
		} else {
			defer natsConn.Drain()
		}
	}

	providers := buildProviders(ctx, cfg, logger)

	var completer ai.StructuredCompleter
	if len(providers.Providers()) > 0 {
		completer = providers
	} else {
		logger.Warn().Msg("no llm provider key configured, evaluations use the local rubric only")
	}

	engine, err := evaluator.NewEngine(evaluator.Config{
		DefaultModel: cfg.AIDefaultModel,
		Temperature:  cfg.AITemperature,
		MaxTokens:    cfg.AIMaxTokens,
	}, completer, logger)
	if err != nil {
		log.Fatalf("failed to build evaluation engine: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := dto.RegisterValidators(validate); err != nil {
		log.Fatalf("failed to register validators: %v", err)
	}

	runRepo := repository.NewEvaluationRunRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	serviceCfg := service.EvaluationServiceConfig{DefaultPageSize: cfg.RecentRunsPageSize}
	if redisClient != nil {
		serviceCfg.Quota = service.NewRedisUsageQuota(redisClient, cfg.DailyTokenQuota)
	}
	if redisClient != nil || natsConn != nil {
		serviceCfg.Publisher = service.NewEvaluationPublisher(natsConn, cfg.NATSSubject, redisClient)
	}

	evaluationService := service.NewEvaluationService(engine, runRepo, usageRepo, validate, serviceCfg, logger)
	usageService := service.NewUsageService(usageRepo, cfg.DailyTokenQuota, logger)
	catalogService := service.NewModelCatalogService(providers, cfg.AIDefaultModel)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    256 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: handler.NewEvaluationHandler(evaluationService, logger),
		AccountHandler:    handler.NewAccountHandler(evaluationService, usageService, logger),
		ModelHandler:      handler.NewModelHandler(catalogService),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Bool("model_backed", engine.ModelBacked()).
		Msg("promptcoach api started")

	waitForShutdown(app)
}

// buildProviders registers a completer for every provider with a configured key.
func buildProviders(ctx context.Context, cfg config.Config, logger zerolog.Logger) *ai.Router {
	providers := ai.NewRouter(logger)

	if cfg.OpenAIAPIKey != "" {
		client, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			MaxTokens: cfg.AIMaxTokens,
			Timeout:   cfg.AITimeout,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("failed to create openai client: %v", err)
		}
		providers.Register(ai.ProviderOpenAI, client)
	}

	if cfg.AnthropicAPIKey != "" {
		client, err := ai.NewAnthropicCompleter(ai.AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			MaxTokens: cfg.AIMaxTokens,
			Timeout:   cfg.AITimeout,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("failed to create anthropic client: %v", err)
		}
		providers.Register(ai.ProviderAnthropic, client)
	}

	if cfg.GoogleAPIKey != "" {
		client, err := ai.NewGoogleCompleter(ctx, ai.GoogleConfig{
			APIKey:    cfg.GoogleAPIKey,
			MaxTokens: cfg.AIMaxTokens,
			Timeout:   cfg.AITimeout,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("failed to create google client: %v", err)
		}
		providers.Register(ai.ProviderGoogle, client)
	}

	return providers
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
