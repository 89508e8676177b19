package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"muckraker/internal/backend"
	"muckraker/internal/log"
	"muckraker/internal/sheets/memory"
)

var (
	exportDryRun bool

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write every dataset of the report to its own Google Sheets tab",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
)

func init() {
	exportCmd.Flags().BoolVar(&exportDryRun, "dry-run", false, "build the tabs in memory and list them instead of calling the Sheets API")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !exportDryRun {
		if err := cfg.ValidateExport(); err != nil {
			return err
		}
	}

	engine, cleanup, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	sets := engine.Report(cfg.QueryLimit)

	exporter, err := backend.NewFactory(logger).CreateExporter(ctx, backend.ConfigFromApp(cfg, exportDryRun))
	if err != nil {
		return err
	}
	if exporter == nil {
		return errors.New("no export backend configured: set GOOGLE_SPREADSHEET_ID or use --dry-run")
	}

	if err := exporter.Export(ctx, sets); err != nil {
		return fmt.Errorf("export datasets: %w", err)
	}

	if dry, ok := exporter.(*memory.Store); ok {
		for _, name := range dry.Tabs() {
			rows, _ := dry.Tab(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\n", name, len(rows)-1)
		}
	}
	logger.InfoContext(ctx, "Datasets exported",
		log.FieldOperation, log.OpExport,
		log.FieldDataSet, len(sets),
		"dry_run", exportDryRun)
	return nil
}
