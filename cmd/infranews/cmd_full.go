package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/runlog"
)

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run collect, summarize, output and notify in sequence",
	Long: "Full runs every stage in order under a single run record. Stages\n" +
		"are best-effort: a failing stage is recorded and the remaining\n" +
		"stages still run, so a dead summarizer never blocks the briefing.\n" +
		"The exit status is non-zero when any stage failed hard.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, applyNotifyFlags, func(ctx context.Context, p *pipeline.Pipeline) (*runlog.Record, error) {
			return p.Full(ctx)
		})
	},
}

func init() {
	f := fullCmd.Flags()
	f.StringVar(&notifyFlags.dashboardURL, "dashboard-url", "", "dashboard link embedded in the briefing (default: $DASHBOARD_URL)")
	f.StringVar(&notifyFlags.lang, "lang", "", "briefing language, ko/en/vi (default: $NOTIFY_LANG)")
}
