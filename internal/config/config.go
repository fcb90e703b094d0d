package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// LLM gateway
	LLMBaseURL        string
	LLMAPIKey         string
	LLMModel          string
	LLMFallbackModels []string // tried in order on primary failure or low-confidence output
	MinConfidentLen   int      // answers shorter than this trigger the model fallback chain

	// Embeddings
	EmbeddingBaseURL string
	EmbeddingModel   string
	VectorSize       int

	// Storage / vector index
	DBPath    string
	QdrantURL string

	// Chunking
	ChunkSize    int
	ChunkOverlap int
	ChunkMin     int
	ChunkMax     int
	// Documents above this size use the hierarchical section-first mode.
	LargeDocThreshold int

	// Retrieval
	TopK            int
	DenseWeight     float64
	BM25Weight      float64
	ScoreThreshold  float64
	PricingKeywords []string
	// Pricing-style queries blend 50/50 and use a larger candidate pool.
	PricingDenseWeight    float64
	PricingScoreThreshold float64

	// Question answering
	SimpleTimeout time.Duration
	FullTimeout   time.Duration
	HistoryWindow int

	// HTTP
	APIPort string

	// Logging
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// A .env file in the current directory is loaded automatically when present;
// environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMAPIKey:         getEnv("LLM_API_KEY", "dummy-key"),
		LLMModel:          getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMFallbackModels: getEnvList("LLM_FALLBACK_MODELS", nil),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "granite-embedding-278m-multilingual"),
		DBPath:            getEnv("DB_PATH", "./data/docqa.db"),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		APIPort:           getEnv("API_PORT", "9000"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.VectorSize, err = getEnvInt("VECTOR_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE is required and must be greater than 0")
	}

	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 800); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.ChunkMin, err = getEnvInt("CHUNK_MIN_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.ChunkMax, err = getEnvInt("CHUNK_MAX_SIZE", 2000); err != nil {
		return nil, err
	}
	if cfg.LargeDocThreshold, err = getEnvInt("LARGE_DOC_THRESHOLD", 50000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.ChunkMin >= cfg.ChunkMax {
		return nil, fmt.Errorf("CHUNK_MIN_SIZE (%d) must be smaller than CHUNK_MAX_SIZE (%d)", cfg.ChunkMin, cfg.ChunkMax)
	}

	if cfg.TopK, err = getEnvInt("TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.MinConfidentLen, err = getEnvInt("LLM_MIN_CONFIDENT_LEN", 50); err != nil {
		return nil, err
	}
	if cfg.HistoryWindow, err = getEnvInt("HISTORY_WINDOW", 10); err != nil {
		return nil, err
	}

	if cfg.DenseWeight, err = getEnvFloat("DENSE_WEIGHT", 0.4); err != nil {
		return nil, err
	}
	if cfg.BM25Weight, err = getEnvFloat("BM25_WEIGHT", 0.6); err != nil {
		return nil, err
	}
	if cfg.ScoreThreshold, err = getEnvFloat("SCORE_THRESHOLD", 0.35); err != nil {
		return nil, err
	}
	if cfg.PricingDenseWeight, err = getEnvFloat("PRICING_DENSE_WEIGHT", 0.5); err != nil {
		return nil, err
	}
	if cfg.PricingScoreThreshold, err = getEnvFloat("PRICING_SCORE_THRESHOLD", 0.2); err != nil {
		return nil, err
	}

	// Heuristic, language-specific policy data. The defaults cover the source
	// domain (Russian-language pricing questions) plus English equivalents.
	cfg.PricingKeywords = getEnvList("PRICING_KEYWORDS",
		[]string{"цена", "стоимость", "тариф", "прайс", "price", "pricing", "cost", "tariff"})

	if cfg.SimpleTimeout, err = getEnvDuration("SIMPLE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.FullTimeout, err = getEnvDuration("FULL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// Create the data directory up front so sqlite can open its file.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
