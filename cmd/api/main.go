package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/cache"
	"github.com/tztgracious/Jobify/internal/config"
	"github.com/tztgracious/Jobify/internal/handlers"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/repositories"
	"github.com/tztgracious/Jobify/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.EnvFileLoaded {
		log.Info("No .env file found. Using environment and default values.")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Invalid configuration", zap.Error(err))
	}
	log.Info("✅ Config loaded successfully")

	ctx := context.Background()

	// Initialize database
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize database", zap.Error(err))
	}

	sessionRepo := repositories.NewSessionRepository(db)
	log.Info("✅ Repositories initialized successfully")

	// Stage locks
	var locks cache.StageLock = cache.NewMemoryStageLock()
	if cfg.Redis.URL != "" {
		redisLock, err := cache.NewRedisStageLock(cfg.Redis.URL)
		if err != nil {
			log.Fatal("❌ Failed to initialize Redis", zap.Error(err))
		}
		if err := redisLock.Ping(ctx); err != nil {
			log.Fatal("❌ Failed to reach Redis", zap.Error(err))
		}
		defer redisLock.Close()
		locks = redisLock
		log.Info("✅ Redis stage locks enabled")
	} else {
		log.Info("ℹ️ REDIS_URL not set, using in-process stage locks")
	}

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("❌ Failed to create upload directory", zap.Error(err))
	}

	generator, err := services.NewTextGenerator(ctx, cfg.AI, log)
	if err != nil {
		log.Fatal("❌ Failed to initialize AI provider", zap.Error(err))
	}
	log.Info("✅ AI provider initialized", zap.String(logger.FieldProvider, cfg.AI.Provider))

	var retriever services.ContextRetriever = services.NopRetriever{}
	if cfg.Qdrant.URL != "" {
		retriever, err = newGuideRetriever(ctx, cfg, log)
		if err != nil {
			log.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
		}
		log.Info("✅ Interview guide retrieval enabled")
	}

	documents := services.NewDocumentProcessor(
		services.NewPDFParserService(),
		generator,
		services.NewLanguageToolService(cfg.Grammar),
		log,
	)
	questions := services.NewQuestionGenerator(generator, retriever, log)
	pipeline := services.NewStagePipeline(sessionRepo, documents, questions, log)
	log.Info("✅ Services initialized successfully")

	// Initialize worker
	worker := services.NewWorker(sessionRepo, pipeline, locks, cfg.Worker, log)
	worker.Start(ctx)

	interviews := services.NewInterviewService(
		sessionRepo,
		worker,
		services.NewFeedbackSynthesizer(generator, log),
		storageService,
		log,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Jobify Interview API",
		// Feedback blocks for the whole review panel.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	handlers.RegisterRoutes(app.Group("/api/v1"),
		handlers.NewUploadHandler(interviews, storageService, log),
		handlers.NewResultHandler(interviews),
		handlers.NewInterviewHandler(interviews),
	)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Jobify Interview API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload-resume",
				"POST /api/v1/get-keywords",
				"POST /api/v1/get-grammar-results",
				"POST /api/v1/target-job",
				"POST /api/v1/get-all-questions",
				"POST /api/v1/submit-interview-answer",
				"POST /api/v1/submit-tech-answer",
				"POST /api/v1/feedback",
				"POST /api/v1/remove-resume",
				"GET /api/v1/status/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("❌ Failed to start server", zap.Error(err))
	}

	// In-flight stages finish before exit.
	worker.Stop()
	log.Info("👋 Server stopped")
}

func newGuideRetriever(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.ContextRetriever, error) {
	embedder, err := services.NewGeminiService(ctx, cfg.AI.Gemini, log)
	if err != nil {
		return nil, fmt.Errorf("guide retrieval needs Gemini embeddings: %w", err)
	}

	store, err := services.NewQdrantService(cfg.Qdrant, log)
	if err != nil {
		return nil, err
	}

	if err := store.InitCollection(ctx); err != nil {
		return nil, err
	}

	return services.NewGuideRetriever(embedder, store, 3, log), nil
}
