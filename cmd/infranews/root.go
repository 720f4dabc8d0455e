package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vninfra/infranews/internal/app"
	"github.com/vninfra/infranews/internal/config"
	"github.com/vninfra/infranews/internal/logger"
	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/runlog"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "infranews",
	Short: "Vietnam infrastructure news pipeline",
	Long: "infranews collects Vietnam infrastructure news from RSS feeds and\n" +
		"site searches, summarizes new articles in Korean, English and\n" +
		"Vietnamese, renders the dashboard and Excel database, and sends\n" +
		"the daily briefing to the configured channels.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(outputCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(fullCmd)
	rootCmd.Version = version
}

func main() {
	_ = godotenv.Load()
	logger.Init()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runPipeline loads config, applies per-command overrides, builds the
// app and executes one mode. The returned error is the run's hard
// failure, if any; soft failures live in the printed summary.
func runPipeline(cmd *cobra.Command, override func(*config.Config), run func(context.Context, *pipeline.Pipeline) (*runlog.Record, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if override != nil {
		override(cfg)
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := run(ctx, a.Pipeline)
	if rec != nil {
		printRunSummary(cmd.OutOrStdout(), rec)
	}
	return err
}

// printRunSummary writes the per-run outcome: successes and failures
// per source and channel, mirroring the sealed ledger record.
func printRunSummary(w io.Writer, rec *runlog.Record) {
	fmt.Fprintf(w, "Run %s (%s): %s in %.1fs\n",
		rec.RunID, rec.Mode, rec.Status, rec.FinishedAt.Sub(rec.StartedAt).Seconds())

	if len(rec.SourcesAttempted) > 0 {
		fmt.Fprintf(w, "  sources: %d attempted, %d failed\n", len(rec.SourcesAttempted), len(rec.SourcesFailed))
		for _, f := range rec.SourcesFailed {
			fmt.Fprintf(w, "    %s: %s\n", f.Source, f.Reason)
		}
		fmt.Fprintf(w, "  articles: %d new of %d seen\n", rec.ArticlesNew, rec.ArticlesTotalSeen)
	}
	if rec.Summarized > 0 || rec.SummaryFailed > 0 {
		fmt.Fprintf(w, "  summaries: %d ok, %d failed\n", rec.Summarized, rec.SummaryFailed)
	}
	for _, path := range rec.Outputs {
		fmt.Fprintf(w, "  artifact: %s\n", path)
	}
	if len(rec.Notified) > 0 {
		names := make([]string, 0, len(rec.Notified))
		for name := range rec.Notified {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  channel %s: %s\n", name, rec.Notified[name])
		}
	}
	if rec.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", rec.Error)
	}
}
