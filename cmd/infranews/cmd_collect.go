package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/runlog"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch all sources and append new articles to the store",
	Long: "Collect fetches every configured RSS feed and site search, drops\n" +
		"candidates the store already has, classifies the rest and appends\n" +
		"them as pending articles. Unreachable sources are reported in the\n" +
		"run summary and never abort the run.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) (*runlog.Record, error) {
			return p.Collect(ctx)
		})
	},
}
