package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lucerovega/mirada/server/adapters/audio"
	"github.com/lucerovega/mirada/server/adapters/modelstore"
	adaptermongo "github.com/lucerovega/mirada/server/adapters/mongo"
	"github.com/lucerovega/mirada/server/adapters/sentiment"
	"github.com/lucerovega/mirada/server/adapters/stt"
	"github.com/lucerovega/mirada/server/adapters/video"
	"github.com/lucerovega/mirada/server/config"
	"github.com/lucerovega/mirada/server/domain/repositories"
	"github.com/lucerovega/mirada/server/internal/api"
	"github.com/lucerovega/mirada/server/internal/fusion"
	"github.com/lucerovega/mirada/server/internal/segmentation"
	"github.com/lucerovega/mirada/server/internal/websocket"
	"github.com/lucerovega/mirada/server/usecase"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	loadTimeout := time.Duration(cfg.Video.LoadTimeoutSec) * time.Second
	store := modelstore.NewFileStore(cfg.Paths.Models, logger)
	videoPredictor := video.NewPredictor(store, cfg.Video.ModelName, cfg.Video.ScalerName, loadTimeout, logger)
	preparer := audio.NewPreparer(cfg.Audio.SampleRate, cfg.Audio.WindowSeconds, logger)
	audioPredictor := audio.NewEmotionPredictor(store, cfg.Video.AudioModelName, loadTimeout, logger)

	var transcriber repositories.Transcriber
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		transcriber = stt.NewGoogleTranscriber(logger)
	} else {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, using mock transcriber")
		transcriber = stt.NewMockTranscriber(logger)
	}

	var analyzer repositories.SentimentAnalyzer
	if gemini, err := sentiment.NewGeminiAnalyzer(logger); err == nil {
		analyzer = gemini
	} else {
		logger.Warn("Gemini unavailable, using lexicon sentiment", zap.Error(err))
		analyzer = sentiment.NewLexiconAnalyzer(logger)
	}

	mongoClient, err := adaptermongo.NewClient(logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	reportRepo := adaptermongo.NewReportRepository(mongoClient.Database)

	// Initialize WebSocket hub for dashboard progress streaming
	hub := websocket.NewHub(logger)
	go hub.Run()
	janitor := websocket.NewSnapshotJanitor(hub, 24*time.Hour, logger)
	janitor.Start()
	defer janitor.Stop()

	// Initialize usecase services
	analysisService := usecase.NewAnalysisService(
		videoPredictor,
		audioPredictor,
		preparer,
		transcriber,
		analyzer,
		reportRepo,
		hub,
		segmentation.New(cfg.Video.MinSegmentSec),
		fusion.Weights{Video: cfg.Fusion.VideoWeight, Audio: cfg.Fusion.AudioWeight},
		cfg.Video.DefaultFPS,
		time.Duration(cfg.Video.InferTimeoutSec)*time.Second,
		cfg.Video.TranscriptionLng,
		logger,
	)

	// Initialize API routes
	api.InitRoutes(e, hub, analysisService, reportRepo, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Service.Port
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("service", cfg.Service.Name), zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Supersede any in-flight analysis so its late results are dropped
	analysisService.Invalidate()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if err := mongoClient.Close(ctx); err != nil {
		logger.Error("Failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Info("Server exited")
}
