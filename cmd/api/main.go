package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/gamebook-engine/internal/config"
	"github.com/jwebster45206/gamebook-engine/internal/engine"
	"github.com/jwebster45206/gamebook-engine/internal/handlers"
	"github.com/jwebster45206/gamebook-engine/internal/logger"
	"github.com/jwebster45206/gamebook-engine/internal/middleware"
	"github.com/jwebster45206/gamebook-engine/internal/services"
	"github.com/jwebster45206/gamebook-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Gamebook Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Error("Gemini API key is required when using gemini provider")
			os.Exit(1)
		}
		llmService, err = services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, log)
		if err != nil {
			log.Error("Failed to create Gemini service", "error", err)
			os.Exit(1)
		}
		log.Info("Using Gemini LLM provider")
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"gemini", "anthropic"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err := store.WaitForConnection(ctx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	retriever := services.NewWeaviateRetriever(cfg.WeaviateURL, cfg.WeaviateAPIKey, cfg.RetrievalCacheTTL, log)

	eng := engine.New(llmService, retriever, store, log).
		WithTopK(cfg.RetrievalTopK).
		WithLLMTimeout(cfg.LLMTimeout)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	turnHandler := handlers.NewTurnHandler(eng, log)
	mux.Handle("/v1/turn", turnHandler)

	gameStateHandler := handlers.NewGameStateHandler(log, eng, store)
	mux.Handle("/v1/gamestate", gameStateHandler)
	mux.Handle("/v1/gamestate/", gameStateHandler)

	bookHandler := handlers.NewBookHandler(log, store)
	mux.Handle("/v1/books", bookHandler)
	mux.Handle("/v1/books/", bookHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
