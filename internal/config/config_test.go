package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	// Save original env vars
	originalEnv := make(map[string]string)
	envVars := []string{
		"VECTOR_SIZE", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
		"LLM_FALLBACK_MODELS", "LLM_MIN_CONFIDENT_LEN",
		"EMBEDDING_BASE_URL", "EMBEDDING_MODEL",
		"DB_PATH", "QDRANT_URL", "API_PORT",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "CHUNK_MIN_SIZE", "CHUNK_MAX_SIZE",
		"LARGE_DOC_THRESHOLD", "TOP_K", "DENSE_WEIGHT", "BM25_WEIGHT",
		"SCORE_THRESHOLD", "PRICING_KEYWORDS", "PRICING_DENSE_WEIGHT",
		"PRICING_SCORE_THRESHOLD", "SIMPLE_TIMEOUT", "FULL_TIMEOUT",
		"HISTORY_WINDOW", "LOG_LEVEL", "LOG_FORMAT",
	}
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name: "valid config with required fields",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.VectorSize == 768
			},
		},
		{
			name:     "missing VECTOR_SIZE",
			setupEnv: func(t *testing.T) {},
			wantErr:  true,
		},
		{
			name: "invalid VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "invalid")
			},
			wantErr: true,
		},
		{
			name: "zero VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "0")
			},
			wantErr: true,
		},
		{
			name: "negative VECTOR_SIZE",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "-1")
			},
			wantErr: true,
		},
		{
			name: "default values for optional fields",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBaseURL == "http://localhost:8080" &&
					cfg.LLMModel == "Llama-3.1-8B-Instruct" &&
					cfg.LLMAPIKey == "dummy-key" &&
					cfg.MinConfidentLen == 50 &&
					cfg.EmbeddingBaseURL == "http://localhost:8081" &&
					cfg.EmbeddingModel == "granite-embedding-278m-multilingual" &&
					cfg.QdrantURL == "http://localhost:6333" &&
					cfg.ChunkSize == 800 &&
					cfg.ChunkOverlap == 200 &&
					cfg.ChunkMin == 100 &&
					cfg.ChunkMax == 2000 &&
					cfg.LargeDocThreshold == 50000 &&
					cfg.TopK == 5 &&
					cfg.DenseWeight == 0.4 &&
					cfg.BM25Weight == 0.6 &&
					cfg.ScoreThreshold == 0.35 &&
					cfg.PricingDenseWeight == 0.5 &&
					cfg.PricingScoreThreshold == 0.2 &&
					cfg.SimpleTimeout == 15*time.Second &&
					cfg.FullTimeout == 10*time.Second &&
					cfg.HistoryWindow == 10 &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo
			},
		},
		{
			name: "custom optional values",
			setupEnv: func(t *testing.T) {
				tmpDir := t.TempDir()
				setEnv("VECTOR_SIZE", "384")
				setEnv("LLM_BASE_URL", "http://custom:9090")
				setEnv("LLM_MODEL", "custom-model")
				setEnv("SIMPLE_TIMEOUT", "3s")
				customDBPath := filepath.Join(tmpDir, "custom", "db.db")
				setEnv("DB_PATH", customDBPath)
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBaseURL == "http://custom:9090" &&
					cfg.LLMModel == "custom-model" &&
					cfg.SimpleTimeout == 3*time.Second &&
					filepath.Base(cfg.DBPath) == "db.db" // Just check filename, path will vary with temp dir
			},
		},
		{
			name: "fallback model list parsing",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("LLM_FALLBACK_MODELS", "model-a, model-b,,model-c ")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return reflect.DeepEqual(cfg.LLMFallbackModels, []string{"model-a", "model-b", "model-c"})
			},
		},
		{
			name: "pricing keywords override",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("PRICING_KEYWORDS", "rate,fee")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return reflect.DeepEqual(cfg.PricingKeywords, []string{"rate", "fee"})
			},
		},
		{
			name: "overlap must be smaller than chunk size",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("CHUNK_SIZE", "200")
				setEnv("CHUNK_OVERLAP", "200")
			},
			wantErr: true,
		},
		{
			name: "min chunk size must be smaller than max",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("CHUNK_MIN_SIZE", "2000")
				setEnv("CHUNK_MAX_SIZE", "2000")
			},
			wantErr: true,
		},
		{
			name: "invalid timeout",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("FULL_TIMEOUT", "soon")
			},
			wantErr: true,
		},
		{
			name: "log level parsing",
			setupEnv: func(t *testing.T) {
				setEnv("VECTOR_SIZE", "768")
				setEnv("LOG_LEVEL", "DEBUG")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.LogLevel == slog.LevelDebug
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Change to a temp directory without .env file to avoid loading it
			tmpDir := t.TempDir()
			originalWd, _ := os.Getwd()
			_ = os.Chdir(tmpDir) // Ignore error - test will fail if this doesn't work
			defer func() {
				_ = os.Chdir(originalWd) // Ignore error in cleanup
			}()

			// Clean up env vars before each test
			for _, key := range envVars {
				unsetEnv(key)
			}
			defer func() {
				for _, key := range envVars {
					unsetEnv(key)
				}
			}()

			tt.setupEnv(t)

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config check failed: %+v", cfg)
			}
		})
	}
}
