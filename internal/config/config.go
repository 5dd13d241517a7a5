package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	LLMProvider     string
	GeminiAPIKey    string
	AnthropicAPIKey string
	ModelName       string

	WeaviateURL    string
	WeaviateAPIKey string

	RetrievalTopK     int
	RetrievalCacheTTL time.Duration
	LLMTimeout        time.Duration

	WorkerCount int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),
		DataDir:  getEnv("DATA_DIR", "./data"),

		LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:       getEnv("MODEL_NAME", ""),

		WeaviateURL:    getEnv("WEAVIATE_URL", "http://localhost:8081"),
		WeaviateAPIKey: getEnv("WEAVIATE_API_KEY", ""),

		RetrievalTopK:     getEnvInt("RETRIEVAL_TOP_K", 3),
		RetrievalCacheTTL: getEnvDuration("RETRIEVAL_CACHE_TTL", 10*time.Minute),
		LLMTimeout:        getEnvDuration("LLM_TIMEOUT", 30*time.Second),

		WorkerCount: getEnvInt("WORKER_COUNT", 2),
	}

	if cfg.RetrievalTopK < 1 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be at least 1")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
