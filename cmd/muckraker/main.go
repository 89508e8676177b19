// Command muckraker loads independent expenditure data and ranks it as
// chart-ready datasets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"muckraker/internal/cli"
	"muckraker/internal/config"
	"muckraker/internal/log"
	"muckraker/internal/query"
)

var (
	yearFlag     int
	cacheFlag    bool
	limitFlag    int
	logLevelFlag string

	// Set by setup before any subcommand runs.
	cfg    *config.Config
	logger *log.Logger

	rootCmd = &cobra.Command{
		Use:   "muckraker",
		Short: "Rank independent political expenditures by payee and candidate",
		Long: `muckraker fetches candidate rosters and independent expenditures from the
campaign finance provider, optionally caches them locally, and ranks the
spending by payee or candidate as chart-ready datasets.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&yearFlag, "year", 0, "election year (overrides ELECTION_YEAR)")
	pf.BoolVar(&cacheFlag, "cache", false, "read and write the local snapshot cache (overrides CACHE_ENABLED)")
	pf.IntVar(&limitFlag, "limit", 0, "entries per dataset (overrides QUERY_LIMIT)")
	pf.StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(chartCmd, queryCmd, serveCmd, exportCmd, refreshCmd)
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	cli.LoadEnvFile()

	c, err := applyFlags(cmd, config.Load())
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logger = cli.SetupLogger(c.LogLevel)
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) (*config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("year") {
		c.ElectionYear = yearFlag
	}
	if flags.Changed("cache") {
		c.CacheEnabled = cacheFlag
	}
	if flags.Changed("limit") {
		if limitFlag < 1 {
			return nil, fmt.Errorf("--limit must be positive, got %d", limitFlag)
		}
		c.QueryLimit = limitFlag
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevelFlag
	}
	return c, nil
}

// loadEngine builds the loader, loads one snapshot and wraps it in a query
// engine. The returned cleanup releases the cache store.
func loadEngine(ctx context.Context) (*query.Engine, func(), error) {
	l, cleanup, err := cli.BuildLoader(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	snap, err := l.Load(ctx, cfg.CacheEnabled)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	return query.New(snap, query.WithLogger(logger)), cleanup, nil
}
