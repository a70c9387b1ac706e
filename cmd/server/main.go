package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/polarais/haru-sub000/docs" // Swagger docs
	"github.com/polarais/haru-sub000/internal/assistant"
	"github.com/polarais/haru-sub000/internal/auth"
	"github.com/polarais/haru-sub000/internal/cache"
	"github.com/polarais/haru-sub000/internal/config"
	"github.com/polarais/haru-sub000/internal/handler"
	"github.com/polarais/haru-sub000/internal/logging"
	"github.com/polarais/haru-sub000/internal/repository"
	"github.com/polarais/haru-sub000/internal/service"
	"github.com/polarais/haru-sub000/internal/storage"
	"github.com/polarais/haru-sub000/pkg/database"
	fiberserver "github.com/polarais/haru-sub000/pkg/fiber"
	ginserver "github.com/polarais/haru-sub000/pkg/gin"
)

// @title Haru Journal API
// @version 1.0
// @description Personal journaling API: mood-tagged diary entries, photo attachments and AI reflections.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig("config.env")
	if err != nil {
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.AppEnv, cfg.LogLevel)

	// Update Swagger info based on config
	docs.SwaggerInfo.Host = cfg.SwaggerHost
	docs.SwaggerInfo.BasePath = cfg.SwaggerBasePath
	docs.SwaggerInfo.Schemes = cfg.SwaggerSchemes
	docs.SwaggerInfo.Title = cfg.AppName + " API"

	// Connect to database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.CloseDB()
	logger.Info().Msg("Database connection established")

	if err := database.MigrateDB(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Collaborators
	users := auth.ContextProvider{}

	photoStore, err := storage.NewS3PhotoStorage(context.Background(), storage.S3Config{
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize photo storage")
	}

	aiClient := assistant.NewClient(assistant.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
	}, &http.Client{Timeout: cfg.AITimeout}, logger)

	// Repository, service, handlers
	diaryRepo := repository.NewGormDiaryRepository(db, users)
	entryCache := cache.NewEntryCache(cfg.CacheTTLExpiration)
	journalSvc := service.NewJournalService(diaryRepo, users, photoStore, aiClient, entryCache, logger)

	healthHandler := handler.NewHealthHandler(db)
	entryHandler := handler.NewEntryHandler(journalSvc, healthHandler)

	// Graceful shutdown channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.ServerFramework {
	case "fiber":
		fiberApp := fiberserver.NewFiberServer(cfg, entryHandler)
		go func() {
			if err := fiberserver.StartFiberServer(fiberApp, cfg); err != nil {
				logger.Fatal().Err(err).Msg("Failed to start Fiber server")
			}
		}()
		<-quit
		logger.Info().Msg("Shutting down Fiber server...")
		if err := fiberApp.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("Error during Fiber server shutdown")
		}
	case "gin":
		ginEngine := ginserver.NewGinServer(cfg, entryHandler)
		httpServer, err := ginserver.StartGinServer(ginEngine, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to start GIN server")
		}
		<-quit
		shutdownTimeout := 5 * time.Second
		ginserver.ShutdownGinServer(httpServer, shutdownTimeout)
	}

	logger.Info().Msg("Server gracefully stopped.")
}
