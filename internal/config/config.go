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
	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	LLMBaseURL         string
	LLMModelName       string
	LLMAPIKey          string
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingDims      int

	TavilyAPIKey string

	DBPath     string
	DataDir    string
	UploadsDir string

	APIPort        string
	RequestTimeout time.Duration
	LogLevel       slog.Level
	LogFormat      string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded
// automatically. Environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		ElasticURL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		ElasticUser:     getEnv("ELASTICSEARCH_USER", ""),
		ElasticPassword: getEnv("ELASTICSEARCH_PASSWORD", ""),

		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "all-MiniLM-L6-v2"),

		TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),

		DBPath:     getEnv("DB_PATH", "./data/dealflow-ai.db"),
		DataDir:    getEnv("DATA_DIR", "./data"),
		UploadsDir: getEnv("UPLOADS_DIR", "./uploads"),

		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	// Parse EMBEDDING_DIMS.
	// This must match the output vector size of the embeddings model; the index mapping
	// for the dense_vector field is created with this value, so changing it requires a
	// rebuild of the notes and documents indices.
	dimsStr := getEnv("EMBEDDING_DIMS", "384")
	dims, err := strconv.Atoi(dimsStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_DIMS must be a valid integer: %w", err)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMS must be greater than 0")
	}
	cfg.EmbeddingDims = dims

	// Parse REQUEST_TIMEOUT_SECONDS (bounded timeout for every external call)
	timeoutStr := getEnv("REQUEST_TIMEOUT_SECONDS", "5")
	timeoutSec, err := strconv.Atoi(timeoutStr)
	if err != nil || timeoutSec <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be a positive integer")
	}
	cfg.RequestTimeout = time.Duration(timeoutSec) * time.Second

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	// Create data and uploads directories if they don't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return cfg, nil
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (expected debug, info, warn, or error)", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
