package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/runlog"
)

var summarizeFlags struct {
	retryFailed bool
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize pending articles through the provider chain",
	Long: "Summarize walks every pending article through the Claude and Gemini\n" +
		"providers and records the resulting summaries. One article's failure\n" +
		"marks only that article; the batch continues.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) (*runlog.Record, error) {
			return p.Summarize(ctx, summarizeFlags.retryFailed)
		})
	},
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeFlags.retryFailed, "retry-failed", false,
		"reset previously failed articles to pending and retry them in this run")
}
