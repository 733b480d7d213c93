package anthropic

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Config for the Anthropic client.
type Config struct {
	APIKey            string        // if empty, falls back to env ANTHROPIC_API_KEY
	BaseURL           string        // default https://api.anthropic.com
	Model             string        // e.g., "claude-sonnet-4-20250514"
	MaxTokens         int           // stage-1 budget
	JudgeMaxTokens    int           // stage-2 budget
	Temperature       float32       // 0..1
	Timeout           time.Duration // http client timeout
	RequestsPerMinute int           // client-side rate limit; 0 disables
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.JudgeMaxTokens <= 0 {
		cfg.JudgeMaxTokens = 1800
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, 1)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}
