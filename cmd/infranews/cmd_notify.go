package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vninfra/infranews/internal/config"
	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/runlog"
)

var notifyFlags struct {
	dashboardURL string
	lang         string
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the daily briefing to the configured channels",
	Long: "Notify builds the digest from articles first seen in the current\n" +
		"collection window and fans it out to Telegram, Slack, email and\n" +
		"Kakao. Channel failures are reported per channel, never fatal.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, applyNotifyFlags, func(ctx context.Context, p *pipeline.Pipeline) (*runlog.Record, error) {
			return p.Notify(ctx)
		})
	},
}

func applyNotifyFlags(cfg *config.Config) {
	if notifyFlags.dashboardURL != "" {
		cfg.DashboardURL = notifyFlags.dashboardURL
	}
	if notifyFlags.lang != "" {
		cfg.NotifyLang = notifyFlags.lang
	}
}

func init() {
	f := notifyCmd.Flags()
	f.StringVar(&notifyFlags.dashboardURL, "dashboard-url", "", "dashboard link embedded in the briefing (default: $DASHBOARD_URL)")
	f.StringVar(&notifyFlags.lang, "lang", "", "briefing language, ko/en/vi (default: $NOTIFY_LANG)")
}
