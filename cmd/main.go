package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	cartadapter "github.com/maisonverre/concierge/adapters/cart"
	catalogadapter "github.com/maisonverre/concierge/adapters/catalog"
	"github.com/maisonverre/concierge/adapters/llm"
	"github.com/maisonverre/concierge/adapters/stt"
	"github.com/maisonverre/concierge/adapters/tts"
	"github.com/maisonverre/concierge/domain/repositories"
	"github.com/maisonverre/concierge/internal/api"
	"github.com/maisonverre/concierge/internal/auth"
	"github.com/maisonverre/concierge/internal/config"
	"github.com/maisonverre/concierge/internal/orchestrator"
	"github.com/maisonverre/concierge/internal/realtime"
	"github.com/maisonverre/concierge/internal/ws"
)

func main() {
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	// Catalog store. Development falls back to an empty in-memory catalog
	// when MongoDB is unreachable.
	var catalog repositories.Catalog
	var mongoClient *catalogadapter.Client
	if client, err := catalogadapter.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger); err != nil {
		logger.Warn("MongoDB unavailable, using in-memory catalog", zap.Error(err))
		catalog = catalogadapter.NewMemoryCatalog(nil, nil)
	} else {
		mongoClient = client
		catalog = catalogadapter.NewMongoCatalog(client.Database)
	}

	// Fallback reasoning backend.
	var reasoner repositories.Reasoner
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiReasoner(cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini reasoner", zap.Error(err))
		}
		reasoner = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock reasoner")
		reasoner = llm.NewMockReasoner()
	}

	// Legacy dictation path.
	var transcriber repositories.Transcriber
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		transcriber = stt.NewGoogleTranscriber(logger)
	} else {
		logger.Warn("Google credentials not set, using mock transcriber")
		transcriber = stt.NewMockTranscriber(logger)
	}
	var synthesizer repositories.Synthesizer
	if cfg.ElevenLabsAPIKey != "" {
		eleven, err := tts.NewElevenLabs(tts.Config{APIKey: cfg.ElevenLabsAPIKey}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize ElevenLabs synthesizer", zap.Error(err))
		}
		synthesizer = eleven
	} else {
		logger.Warn("ELEVENLABS_API_KEY not set, using mock synthesizer")
		synthesizer = tts.NewMockSynthesizer(logger)
	}

	broker := realtime.NewCredentialBroker(cfg.RealtimeBaseURL, cfg.RealtimeAPIKey, cfg.RealtimeModel, cfg.RealtimeVoice, logger)
	dispatcher := orchestrator.NewDispatcher(catalog, logger)
	cart := cartadapter.New(cfg.CommerceResolveURL, logger)

	wsURL := realtimeWebsocketURL(cfg.RealtimeBaseURL, cfg.RealtimeModel)
	orchConfig := orchestrator.Config{
		FallbackTimeout:       cfg.FallbackTimeout,
		ErrorDisplayDelay:     cfg.ErrorDisplayDelay,
		LiveErrorDisplayDelay: cfg.LiveErrorDisplayDelay,
	}

	// Each connected storefront client gets its own conversation session.
	hub := ws.NewHub(func(obs orchestrator.Observer) ws.Session {
		return orchestrator.New(orchConfig, orchestrator.Deps{
			Issuer: broker,
			Transport: func() orchestrator.SessionTransport {
				return realtime.NewTransport(wsURL, logger)
			},
			Dispatcher: dispatcher,
			Cart:       cart,
			Reasoner:   reasoner,
			Observer:   obs,
			Logger:     logger,
		})
	}, logger)
	go hub.Run()

	reaper := ws.NewReaper(hub, 10*time.Minute, time.Minute, logger)
	reaper.Start()

	authManager, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, api.Deps{
		Hub:         hub,
		Auth:        authManager,
		Issuer:      broker,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Logger:      logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Concierge server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	reaper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		mongoClient.Close(ctx)
	}

	logger.Info("Server exited")
}

// realtimeWebsocketURL derives the control-channel URL from the HTTP base.
func realtimeWebsocketURL(baseURL, model string) string {
	url := strings.Replace(baseURL, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return url + "/v1/realtime?model=" + model
}
