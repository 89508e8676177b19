package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"muckraker/internal/chart"
	"muckraker/internal/log"
)

var (
	chartOutput string

	chartCmd = &cobra.Command{
		Use:   "chart",
		Short: "Render the full report as a Google Charts HTML page",
		Args:  cobra.NoArgs,
		RunE:  runChart,
	}
)

func init() {
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "write the page to this file instead of stdout")
}

func runChart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	renderer, err := chart.NewRenderer()
	if err != nil {
		return err
	}
	engine, cleanup, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	year := engine.Snapshot().Year
	page := chart.NewPage(fmt.Sprintf("Independent Expenditures %d", year), year, engine.Report(cfg.QueryLimit))

	var out io.Writer = cmd.OutOrStdout()
	if chartOutput != "" {
		f, err := os.Create(chartOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", chartOutput, err)
		}
		defer f.Close()
		out = f
	}
	if err := renderer.Render(out, page); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Chart page rendered",
		log.FieldOperation, log.OpRender,
		log.FieldDataSet, len(page.Charts),
		"output", chartOutput)
	return nil
}
