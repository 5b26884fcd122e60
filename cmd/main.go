package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/gadgetguard/aegis/adapters/llm"
	storage "github.com/gadgetguard/aegis/adapters/mongo"
	"github.com/gadgetguard/aegis/domain/repositories"
	"github.com/gadgetguard/aegis/internal/api"
	"github.com/gadgetguard/aegis/internal/auth"
	"github.com/gadgetguard/aegis/internal/config"
	"github.com/gadgetguard/aegis/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env is optional; environment variables may be set by other means
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file loaded", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Connect to MongoDB and ensure indexes
	client, err := storage.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	deviceRepo := storage.NewDeviceRepository(client.Database)
	userRepo := storage.NewUserRepository(client.Database)
	if err := deviceRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure device indexes", zap.Error(err))
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure user indexes", zap.Error(err))
	}

	// Initialize the text-generation adapter
	var generator repositories.RecommendationGenerator
	if cfg.Gemini.APIKey != "" {
		generator, err = llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
			APIKey:         cfg.Gemini.APIKey,
			Model:          cfg.Gemini.Model,
			TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create Gemini generator", zap.Error(err))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock generator")
		generator = llm.NewMockGenerator("Keep the device clean and renew your protection plan before it lapses.")
	}

	// Initialize usecase services
	tokens := auth.NewManager([]byte(cfg.JWTSecret))
	userService := usecase.NewUserService(userRepo, tokens, logger)
	deviceService := usecase.NewDeviceService(deviceRepo, logger)
	planService := usecase.NewPlanService(deviceRepo, logger)
	recommendationService := usecase.NewRecommendationService(deviceRepo, generator, logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Initialize API routes
	userHandler := api.NewUserHandler(userService, tokens, logger)
	deviceHandler := api.NewDeviceHandler(deviceService, planService, recommendationService, logger)
	api.InitRoutes(e, userHandler, deviceHandler, tokens, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := client.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Server exited")
}
