package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/medscribe-team/clinical-scribe/pkg/validator"

	"github.com/medscribe-team/clinical-scribe/internal/adapter/handler"
	"github.com/medscribe-team/clinical-scribe/internal/adapter/repository"
	"github.com/medscribe-team/clinical-scribe/internal/gateway"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/cache"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/database"
	"github.com/medscribe-team/clinical-scribe/internal/infrastructure/storage"
	conversationuse "github.com/medscribe-team/clinical-scribe/internal/usecase/conversation"
	noteuse "github.com/medscribe-team/clinical-scribe/internal/usecase/note"
	recordinguse "github.com/medscribe-team/clinical-scribe/internal/usecase/recording"
	uploaduse "github.com/medscribe-team/clinical-scribe/internal/usecase/upload"
	pkgai "github.com/medscribe-team/clinical-scribe/pkg/ai"
	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Running migrations (development only) ...")
		if err := database.AutoMigrate(db, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisStore, err := cache.NewRedisStore(cfg.GetRedisAddr(), &cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisStore.Close()

	// Initialize object storage
	log.Println("🪣 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	recordingRepo := repository.NewRecordingRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	// Initialize provider gateways
	log.Println("🤖 Initializing provider gateways...")
	deepgramClient := pkgai.NewDeepgramClient(&cfg.Deepgram)
	synthesisClient := pkgai.NewSynthesisClient(&cfg.OpenAI)
	transcriptionGateway := gateway.NewDeepgramGateway(deepgramClient, cfg.Deepgram.Timeout, logger)
	synthesisGateway := gateway.NewOpenAIGateway(synthesisClient, cfg.OpenAI.Timeout, logger)

	// Initialize services
	log.Println("✨ Initializing services...")
	pipeline := uploaduse.NewPipeline(transcriptionGateway, synthesisGateway, recordingRepo, noteRepo, logger)
	uploadService := uploaduse.NewUploadService(minioClient, pipeline, &cfg.Upload, logger)
	defer uploadService.Close()

	conversationService := conversationuse.NewConversationService(
		transcriptionGateway,
		synthesisGateway,
		noteRepo,
		&cfg.Conversation,
		logger,
	)
	defer conversationService.Close()

	noteService := noteuse.NewNoteService(noteRepo, redisStore, logger)
	recordingService := recordinguse.NewRecordingService(recordingRepo, minioClient, logger)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	uploadHandler := handler.NewUpload(uploadService, logger)
	conversationHandler := handler.NewConversation(conversationService, logger)
	noteHandler := handler.NewNote(noteService, logger)
	recordingHandler := handler.NewRecording(recordingService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, uploadHandler, conversationHandler, noteHandler, recordingHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
