// Package app assembles the pipeline from configuration: store backend,
// source roster, summarizer provider chain, renderers and notification
// channels. Commands get one App and pick the mode to run.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vninfra/infranews/internal/classify"
	"github.com/vninfra/infranews/internal/claude"
	"github.com/vninfra/infranews/internal/collector"
	"github.com/vninfra/infranews/internal/config"
	"github.com/vninfra/infranews/internal/gemini"
	"github.com/vninfra/infranews/internal/kakao"
	"github.com/vninfra/infranews/internal/logger"
	"github.com/vninfra/infranews/internal/mailer"
	"github.com/vninfra/infranews/internal/notify"
	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/render"
	"github.com/vninfra/infranews/internal/retry"
	"github.com/vninfra/infranews/internal/runlog"
	"github.com/vninfra/infranews/internal/scraper"
	"github.com/vninfra/infranews/internal/slack"
	"github.com/vninfra/infranews/internal/source"
	"github.com/vninfra/infranews/internal/storage"
	"github.com/vninfra/infranews/internal/summarize"
	"github.com/vninfra/infranews/internal/telegram"
)

// App is the assembled pipeline plus the resources it owns.
type App struct {
	Pipeline *pipeline.Pipeline

	store   storage.Store
	closers []func()
}

// New wires everything any mode might need. Summary providers and
// notification channels that are not configured are simply absent; the
// stages they belong to degrade accordingly.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{store: store}

	ledger, err := runlog.OpenLedger(cfg.LedgerPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	roster, err := source.LoadRoster(cfg.SourcesConfigPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}
	classifier := classify.New()
	sources := roster.Build(client, classifier.Relevant)
	logger.Info("Sources registered", "feeds", len(roster.Feeds), "searches", len(roster.Searches), "total", len(sources))

	col := collector.New(store, sources, classifier, scraper.New(client), collector.Options{
		Timeout:         cfg.FetchTimeout,
		Concurrency:     cfg.FetchConcurrency,
		MaxPerSource:    cfg.MaxPerSource,
		MinExcerptRunes: cfg.MinExcerptRunes,
	})

	summarizer := summarize.New(store, a.buildProviders(ctx, cfg), summarize.Options{
		BatchSize:         cfg.BatchSize,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Fallback:          cfg.SummaryFallback,
	})

	manager := notify.NewManager(buildChannels(cfg)...)

	a.Pipeline = pipeline.New(store, ledger, col, summarizer, render.NewGenerator(cfg.OutputDir), manager, pipeline.Options{
		Window: pipeline.WindowConfig{
			Location: loc,
			EndHour:  cfg.WindowEndHour,
			Span:     time.Duration(cfg.WindowHours) * time.Hour,
		},
		OutputDir:    cfg.OutputDir,
		DashboardURL: cfg.DashboardURL,
		NotifyLang:   cfg.NotifyLang,
	})
	return a, nil
}

// Close releases provider clients and the store.
func (a *App) Close() {
	for _, fn := range a.closers {
		fn()
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Store close failed", "error", err)
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		return storage.NewPostgresStore(cfg.DatabaseURL)
	default:
		return storage.OpenFileStore(cfg.StorePath)
	}
}

// buildProviders returns the summary chain in fallback order, Claude
// before Gemini. A Gemini client that cannot initialize is skipped so
// the rest of the chain still works.
func (a *App) buildProviders(ctx context.Context, cfg *config.Config) []summarize.Provider {
	var providers []summarize.Provider
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, claude.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.MaxSummaryTokens, cfg.Temperature, cfg.TargetLanguages))
	}
	if cfg.GeminiAPIKey != "" {
		g, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxSummaryTokens, cfg.Temperature, cfg.TargetLanguages)
		if err != nil {
			logger.Warn("Gemini client unavailable", "error", err)
		} else {
			providers = append(providers, g)
			a.closers = append(a.closers, g.Close)
		}
	}
	if len(providers) == 0 && !cfg.SummaryFallback {
		logger.Warn("No summary provider configured; pending articles will be marked failed")
	}
	return providers
}

func buildChannels(cfg *config.Config) []notify.Notifier {
	rc := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}

	var channels []notify.Notifier
	if cfg.TelegramEnabled() {
		channels = append(channels, telegram.New(cfg.TelegramToken, cfg.TelegramChatID, rc))
	}
	if cfg.SlackEnabled() {
		channels = append(channels, slack.New(cfg.SlackWebhookURL, rc))
	}
	if cfg.EmailEnabled() {
		channels = append(channels, mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			To:       cfg.EmailTo,
			Subject:  cfg.EmailSubject,
		}))
	}
	if cfg.KakaoEnabled() {
		channels = append(channels, kakao.New(cfg.KakaoRESTKey, cfg.KakaoRefreshToken, cfg.KakaoTokenPath))
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name()
	}
	logger.Info("Notification channels configured", "channels", names)
	return channels
}
