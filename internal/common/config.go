package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Datalab   DatalabConfig
	Anthropic AnthropicConfig
	Cache     CacheConfig
	Render    RenderConfig
}

// DatalabConfig holds conversion-job configuration
type DatalabConfig struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxAttempts  int
	Timeout      time.Duration
}

// AnthropicConfig holds model-call configuration
type AnthropicConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	JudgeMaxTokens    int
	Temperature       float32
	Timeout           time.Duration
	RequestsPerMinute int
}

// CacheConfig holds artifact-cache configuration
type CacheConfig struct {
	Dir     string
	Backend string // "fs" | "sqlite"
}

// RenderConfig holds page-rendering configuration
type RenderConfig struct {
	Converter string
	MaxPages  int
	DPI       int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Datalab: DatalabConfig{
			APIKey:       getEnv("DATALAB_API_KEY", ""),
			BaseURL:      getEnv("DATALAB_BASE_URL", "https://www.datalab.to"),
			PollInterval: getEnvAsDuration("DATALAB_POLL_INTERVAL", 2*time.Second),
			MaxAttempts:  getEnvAsInt("DATALAB_MAX_ATTEMPTS", 300),
			Timeout:      getEnvAsDuration("DATALAB_TIMEOUT", 60*time.Second),
		},
		Anthropic: AnthropicConfig{
			APIKey:            getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL:           getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			Model:             getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens:         getEnvAsInt("ANTHROPIC_MAX_TOKENS", 4000),
			JudgeMaxTokens:    getEnvAsInt("ANTHROPIC_JUDGE_MAX_TOKENS", 1800),
			Temperature:       getEnvAsFloat32("ANTHROPIC_TEMPERATURE", 0.0),
			Timeout:           getEnvAsDuration("ANTHROPIC_TIMEOUT", 120*time.Second),
			RequestsPerMinute: getEnvAsInt("ANTHROPIC_RPM", 50),
		},
		Cache: CacheConfig{
			Dir:     getEnv("CACHE_DIR", "./cache"),
			Backend: getEnv("CACHE_BACKEND", "fs"),
		},
		Render: RenderConfig{
			Converter: getEnv("PDF_CONVERTER", "pdftoppm"),
			MaxPages:  getEnvAsInt("RENDER_MAX_PAGES", 10),
			DPI:       getEnvAsInt("RENDER_DPI", 200),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Datalab.APIKey == "" {
		return ConfigError("DATALAB_API_KEY is required")
	}
	if c.Anthropic.APIKey == "" {
		return ConfigError("ANTHROPIC_API_KEY is required")
	}
	if c.Cache.Dir == "" {
		return ConfigError("CACHE_DIR is required")
	}
	switch c.Cache.Backend {
	case "fs", "sqlite":
	default:
		return ConfigError("CACHE_BACKEND must be one of: fs | sqlite")
	}
	return nil
}
