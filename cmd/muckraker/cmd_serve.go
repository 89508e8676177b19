package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"muckraker/internal/amqp"
	"muckraker/internal/chart"
	"muckraker/internal/cli"
	apphttp "muckraker/internal/http"
	"muckraker/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chart page and the dataset JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	renderer, err := chart.NewRenderer()
	if err != nil {
		return err
	}
	l, closeStore, err := cli.BuildLoader(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	snap, err := l.Load(ctx, cfg.CacheEnabled)
	if err != nil {
		return err
	}

	opts := apphttp.Options{
		Addr:     ":" + cfg.Port,
		Snapshot: snap,
		Renderer: renderer,
		Logger:   logger,
		Limit:    cfg.QueryLimit,
		CacheTTL: cfg.HTTPCacheTTL,
	}
	// Reloading only makes sense when the worker has a cache to rewrite.
	if cfg.CacheEnabled {
		opts.Reloader = l
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Refresh queue unavailable, POST /api/refresh disabled", log.FieldError, err)
		} else {
			defer client.Close()
			opts.Publisher = client
		}
	}

	srv := apphttp.NewServer(opts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting muckraker server",
		"port", cfg.Port,
		log.FieldYear, snap.Year,
		log.FieldSource, string(snap.Source),
		"refresh_enabled", opts.Publisher != nil,
		"reload_enabled", opts.Reloader != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return err
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
