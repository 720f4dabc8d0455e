package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vninfra/infranews/internal/pipeline"
	"github.com/vninfra/infranews/internal/runlog"
)

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Render the dashboard, Excel database and JSON export",
	Long: "Output reads the full article store and renders every artifact into\n" +
		"the output directory. A renderer that fails is skipped; the run only\n" +
		"fails when no artifact could be written.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) (*runlog.Record, error) {
			return p.Output(ctx)
		})
	},
}
