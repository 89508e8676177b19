package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"muckraker/internal/amqp"
	"muckraker/internal/cli"
	"muckraker/internal/log"
)

var (
	refreshPublish bool

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Fetch a fresh snapshot from the provider and rewrite the cache",
		Long: `Fetch a fresh snapshot from the provider and rewrite the cache.

With --publish the refresh is queued for muckraker-worker instead of running here.`,
		Args: cobra.NoArgs,
		RunE: runRefresh,
	}
)

func init() {
	refreshCmd.Flags().BoolVar(&refreshPublish, "publish", false, "queue the refresh on the message broker")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if refreshPublish {
		if cfg.AMQPURL == "" {
			return errors.New("--publish needs AMQP_URL")
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		req := amqp.NewRefreshRequest(cfg.ElectionYear, requestedBy())
		if err := client.PublishRefresh(ctx, req); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), req.ID)
		return nil
	}

	l, cleanup, err := cli.BuildLoader(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	snap, err := l.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}
	logger.InfoContext(ctx, "Snapshot refreshed",
		log.FieldOperation, log.OpRefresh,
		log.FieldYear, snap.Year,
		log.FieldCandidates, len(snap.Candidates),
		log.FieldExpenditure, len(snap.Expenditures),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func requestedBy() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "cli@" + host
	}
	return "cli"
}
