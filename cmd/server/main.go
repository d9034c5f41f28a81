package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/api"
	"github.com/jarvistext/jarvis-backend/internal/auth"
	"github.com/jarvistext/jarvis-backend/internal/carrier"
	"github.com/jarvistext/jarvis-backend/internal/config"
	"github.com/jarvistext/jarvis-backend/internal/database"
	"github.com/jarvistext/jarvis-backend/internal/llm"
	"github.com/jarvistext/jarvis-backend/internal/queue"
	"github.com/jarvistext/jarvis-backend/internal/ratelimit"
	"github.com/jarvistext/jarvis-backend/internal/repository/postgres"
	"github.com/jarvistext/jarvis-backend/internal/services"
	"github.com/jarvistext/jarvis-backend/internal/summon"
)

func main() {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Connect to database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db.DB)
	conversationRepo := postgres.NewConversationRepository(db.DB)
	messageRepo := postgres.NewMessageRepository(db.DB)
	statsRepo := postgres.NewStatsRepository(db.DB)

	// Counter store for the domain rate limiter
	counterStore, err := ratelimit.NewRedisCounterStore(cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer counterStore.Close()

	limiterConfig := ratelimit.Config{
		UserLimit:          cfg.Limits.UserPerDay,
		UserWindow:         24 * time.Hour,
		ConversationLimit:  cfg.Limits.ConversationPerHour,
		ConversationWindow: time.Hour,
		FailPolicy:         ratelimit.FailPolicy(cfg.Limits.FailPolicy),
	}
	limiter := ratelimit.NewLimiter(counterStore, limiterConfig, log)

	// External collaborators
	oracle, err := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize LLM client")
	}

	dispatcher, err := carrier.NewTelnyxDispatcher(cfg.Telnyx.APIKey, cfg.Telnyx.PhoneNumber, cfg.Telnyx.BaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize carrier dispatcher")
	}

	verifier, err := carrier.NewWebhookVerifier(cfg.Telnyx.PublicKey)
	if err != nil {
		log.WithError(err).Fatal("Failed to parse Telnyx public key")
	}
	if verifier == nil {
		log.Warn("TELNYX_PUBLIC_KEY not set, webhook signature verification disabled")
	}

	matcher, err := summon.NewMatcher(cfg.Bot.ActivationName)
	if err != nil {
		log.WithError(err).Fatal("Failed to compile activation matcher")
	}

	// Initialize services
	svc := services.NewServices(cfg, userRepo, conversationRepo, messageRepo, statsRepo, oracle, dispatcher, limiter, matcher, log)

	// Queue: webhook enqueues, workers run the pipeline
	queueClient, err := queue.NewClient(cfg.Redis.URL)
	if err != nil {
		log.WithError(err).Fatal("Failed to create queue client")
	}
	defer queueClient.Close()

	queueServer, err := queue.NewServer(cfg.Redis.URL, cfg.Queue.Concurrency, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create queue server")
	}
	queueServer.RegisterPipeline(svc.Pipeline, log)
	if err := queueServer.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start queue workers")
	}
	defer queueServer.Shutdown()

	// Admin auth
	jwtSecret := cfg.Admin.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production"
		log.Warn("Using default JWT secret. Set JARVIS_JWT_SECRET in production!")
	}
	jwtService := auth.NewJWTService(jwtSecret, "jarvis")

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Jarvis Backend",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	api.SetupRoutes(app, queueClient, verifier, statsRepo, jwtService, log)

	// Shut the HTTP listener down cleanly so the queue drain in the deferred
	// Shutdown actually runs.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("Jarvis backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
