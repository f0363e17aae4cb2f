package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// OpenAI-compatible chat endpoint
	LLMAPIKey     string
	LLMBaseURL    string
	LLMModel      string
	LLMMaxTokens  int
	LLMTimeout    time.Duration
	LLMConcurrent int

	// Translation defaults
	TargetLanguage      string
	Budget              int
	SplitBy             string
	Style               string
	HistoryTurns        int
	TranslateReferences bool
	StripNumbers        bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Result storage
	StoreBackend   string
	StoreDir       string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Logging
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
}

// Load reads the configuration from the environment. A .env file in the
// working directory, if present, fills in variables that are not set.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PAPERTRANS_API_KEY"),

		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMBaseURL:    os.Getenv("LLM_BASE_URL"),
		LLMModel:      envOr("LLM_MODEL", "deepseek-chat"),
		LLMMaxTokens:  envInt("LLM_MAX_TOKENS", 8192),
		LLMTimeout:    envDuration("LLM_TIMEOUT", 3*time.Minute),
		LLMConcurrent: envInt("LLM_MAX_CONCURRENT", 2),

		TargetLanguage:      envOr("TARGET_LANGUAGE", "Simplified Chinese"),
		Budget:              envInt("TRANSLATION_BUDGET", 1000),
		SplitBy:             envOr("SPLIT_BY", "section"),
		Style:               envOr("TRANSLATION_STYLE", "bilingual"),
		HistoryTurns:        envInt("HISTORY_TURNS", 5),
		TranslateReferences: envBool("TRANSLATE_REFERENCES", false),
		StripNumbers:        envBool("STRIP_HEADING_NUMBERS", false),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 24*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		StoreBackend:   envOr("STORE_BACKEND", "local"),
		StoreDir:       envOr("STORE_DIR", "./data"),
		MinIOEndpoint:  envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    envOr("MINIO_BUCKET", "papertrans"),
		MinIOUseSSL:    envBool("MINIO_USE_SSL", false),

		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFile:      os.Getenv("LOG_FILE"),
		LogMaxSizeMB: envInt("LOG_MAX_SIZE_MB", 100),
	}

	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 8192
	}
	if cfg.LLMConcurrent <= 0 {
		cfg.LLMConcurrent = 2
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 1000
	}
	if cfg.HistoryTurns < 0 {
		cfg.HistoryTurns = 0
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}
	if cfg.LogMaxSizeMB <= 0 {
		cfg.LogMaxSizeMB = 100
	}

	return cfg
}

// Validate checks the keys the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PAPERTRANS_API_KEY is required")
	}
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	switch c.SplitBy {
	case "section", "budget":
	default:
		return fmt.Errorf("SPLIT_BY must be section or budget, got %q", c.SplitBy)
	}
	switch c.StoreBackend {
	case "local":
	case "minio":
		if c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be local or minio, got %q", c.StoreBackend)
	}
	return nil
}

// ValidateLLM checks the keys commands that call the model need.
func (c Config) ValidateLLM() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
