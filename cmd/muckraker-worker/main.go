// Command muckraker-worker consumes refresh requests from the message broker,
// rewrites the snapshot cache from the provider and, when a spreadsheet is
// configured, republishes the report to Google Sheets.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"muckraker/internal/amqp"
	"muckraker/internal/backend"
	"muckraker/internal/cli"
	"muckraker/internal/log"
	"muckraker/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		return 1
	}
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting muckraker-worker", log.FieldYear, cfg.ElectionYear)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		return 1
	}

	l, closeStore, err := cli.BuildLoader(cfg, logger)
	if err != nil {
		logger.Error("Failed to build loader", log.FieldError, err)
		return 1
	}
	defer closeStore()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Google Sheets export is optional.
	exporter, err := backend.NewFactory(logger).CreateExporter(ctx, backend.ConfigFromApp(cfg, false))
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		return 1
	}
	if exporter == nil {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	refreshWorker := worker.NewRefreshWorker(l, exporter, cfg.QueryLimit, logger)

	// A failed startup check is not fatal: the next message retries it.
	if err := refreshWorker.StartupCacheCheck(ctx); err != nil {
		logger.Error("Startup cache check failed", log.FieldError, err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return 1
	}
	defer amqpClient.Close()

	if cfg.RefreshInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.RefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := refreshWorker.PeriodicRefresh(ctx); err != nil {
						logger.Error("Periodic refresh failed", log.FieldError, err)
					}
				}
			}
		}()
	}

	// Blocks until a shutdown signal cancels ctx or the broker fails for good.
	if err := amqpClient.ConsumeRefresh(ctx, refreshWorker.HandleRefreshMessage); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		return 1
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
	return 0
}
