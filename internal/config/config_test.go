package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TARGET_LANGUAGES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.StoreBackend != "file" {
		t.Errorf("StoreBackend = %q, want file", cfg.StoreBackend)
	}
	if cfg.StorePath != "data/articles.jsonl" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.WindowEndHour != 18 || cfg.WindowHours != 24 {
		t.Errorf("window = %d:00 over %dh, want 18:00 over 24h", cfg.WindowEndHour, cfg.WindowHours)
	}
	if cfg.Timezone != "Asia/Ho_Chi_Minh" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	if got := strings.Join(cfg.TargetLanguages, ","); got != "ko,en,vi" {
		t.Errorf("TargetLanguages = %q, want ko,en,vi", got)
	}
}

func TestLoadPostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for postgres backend without DATABASE_URL")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestChannelToggles(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SLACK_WEBHOOK_URL", "")
	t.Setenv("EMAIL_USER", "")
	t.Setenv("EMAIL_PASSWORD", "")
	t.Setenv("EMAIL_TO", "")
	t.Setenv("KAKAO_REST_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
	if cfg.SlackEnabled() || cfg.EmailEnabled() || cfg.KakaoEnabled() {
		t.Error("unconfigured channels should be disabled")
	}
}
