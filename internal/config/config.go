// Package config loads pipeline configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Store settings
	StoreBackend string // "file" or "postgres"
	StorePath    string
	LedgerPath   string
	DatabaseURL  string

	// Source settings
	SourcesConfigPath string
	FetchTimeout      time.Duration
	FetchConcurrency  int
	MaxPerSource      int // cap of candidates accepted per source (0 = unlimited)

	// Collection window (ends at WindowEndHour local time, spans WindowHours)
	Timezone      string
	WindowEndHour int
	WindowHours   int

	// Summarizer settings
	AnthropicAPIKey   string
	ClaudeModel       string
	GeminiAPIKey      string
	GeminiModel       string
	MaxSummaryTokens  int
	Temperature       float64
	TargetLanguages   []string
	BatchSize         int
	RequestsPerMinute int
	SummaryFallback   bool // render a template summary when every provider fails

	// Scraper settings
	MinExcerptRunes int // excerpts shorter than this get page extraction before summarizing

	// Output settings
	OutputDir    string
	DashboardURL string

	// Notify settings
	NotifyLang string

	// Notification settings
	TelegramToken     string
	TelegramChatID    string
	SlackWebhookURL   string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	EmailFrom         string
	EmailFromName     string
	EmailTo           []string
	EmailSubject      string
	KakaoRESTKey      string
	KakaoRefreshToken string
	KakaoTokenPath    string

	// App settings
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend:      getEnvOrDefault("STORE_BACKEND", "file"),
		StorePath:         getEnvOrDefault("STORE_PATH", "data/articles.jsonl"),
		LedgerPath:        getEnvOrDefault("LEDGER_PATH", "data/runs.jsonl"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SourcesConfigPath: getEnvOrDefault("SOURCES_CONFIG_PATH", "configs/sources.yaml"),
		FetchTimeout:      time.Duration(getEnvIntOrDefault("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchConcurrency:  getEnvIntOrDefault("FETCH_CONCURRENCY", 4),
		MaxPerSource:      getEnvIntOrDefault("MAX_PER_SOURCE", 50),
		Timezone:          getEnvOrDefault("PIPELINE_TIMEZONE", "Asia/Ho_Chi_Minh"),
		WindowEndHour:     getEnvIntOrDefault("WINDOW_END_HOUR", 18),
		WindowHours:       getEnvIntOrDefault("WINDOW_HOURS", 24),
		ClaudeModel:       getEnvOrDefault("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		MaxSummaryTokens:  getEnvIntOrDefault("MAX_SUMMARY_TOKENS", 1024),
		Temperature:       0.3,
		BatchSize:         getEnvIntOrDefault("SUMMARY_BATCH_SIZE", 5),
		RequestsPerMinute: getEnvIntOrDefault("SUMMARY_REQUESTS_PER_MINUTE", 20),
		MinExcerptRunes:   getEnvIntOrDefault("MIN_EXCERPT_RUNES", 120),
		OutputDir:         getEnvOrDefault("OUTPUT_DIR", "output"),
		DashboardURL:      os.Getenv("DASHBOARD_URL"),
		NotifyLang:        getEnvOrDefault("NOTIFY_LANG", "ko"),
		RequestTimeout:    time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		RetryAttempts:     getEnvIntOrDefault("RETRY_ATTEMPTS", 3),
		RetryDelay:        time.Duration(getEnvIntOrDefault("RETRY_DELAY_SECONDS", 2)) * time.Second,
	}

	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	cfg.TargetLanguages = splitList(getEnvOrDefault("TARGET_LANGUAGES", "ko,en,vi"))

	if v := os.Getenv("TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.Temperature = f
		}
	}

	// Channels are optional; unset means the channel is skipped.
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	cfg.SMTPHost = getEnvOrDefault("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTPPort = getEnvIntOrDefault("SMTP_PORT", 587)
	cfg.SMTPUser = os.Getenv("EMAIL_USER")
	cfg.SMTPPassword = os.Getenv("EMAIL_PASSWORD")
	cfg.EmailFrom = getEnvOrDefault("EMAIL_FROM", os.Getenv("EMAIL_USER"))
	cfg.EmailFromName = getEnvOrDefault("EMAIL_FROM_NAME", "Vietnam Infra News")
	cfg.EmailTo = splitList(os.Getenv("EMAIL_TO"))
	// Unset means the digest's own dated subject line.
	cfg.EmailSubject = os.Getenv("EMAIL_SUBJECT")
	cfg.KakaoRESTKey = os.Getenv("KAKAO_REST_KEY")
	cfg.KakaoRefreshToken = os.Getenv("KAKAO_REFRESH_TOKEN")
	cfg.KakaoTokenPath = getEnvOrDefault("KAKAO_TOKEN_PATH", "data/kakao_token.json")

	if os.Getenv("SUMMARY_TEMPLATE_FALLBACK") == "true" {
		cfg.SummaryFallback = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "file", "postgres":
	default:
		return fmt.Errorf("STORE_BACKEND must be 'file' or 'postgres', got %q", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}
	if c.WindowEndHour < 0 || c.WindowEndHour > 23 {
		return fmt.Errorf("WINDOW_END_HOUR must be 0..23, got %d", c.WindowEndHour)
	}
	if c.WindowHours <= 0 {
		return fmt.Errorf("WINDOW_HOURS must be positive, got %d", c.WindowHours)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("SUMMARY_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if len(c.TargetLanguages) == 0 {
		return fmt.Errorf("TARGET_LANGUAGES must name at least one language")
	}
	return nil
}

// TelegramEnabled reports whether the telegram channel is configured.
func (c *Config) TelegramEnabled() bool { return c.TelegramToken != "" && c.TelegramChatID != "" }

// SlackEnabled reports whether the slack webhook channel is configured.
func (c *Config) SlackEnabled() bool { return c.SlackWebhookURL != "" }

// EmailEnabled reports whether the SMTP channel is configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPUser != "" && c.SMTPPassword != "" && len(c.EmailTo) > 0
}

// KakaoEnabled reports whether the kakao channel is configured.
func (c *Config) KakaoEnabled() bool { return c.KakaoRESTKey != "" }
