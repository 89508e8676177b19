// Package cli provides common initialization for cmd/muckraker and
// cmd/muckraker-worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"muckraker/internal/config"
	"muckraker/internal/loader"
	"muckraker/internal/log"
	"muckraker/internal/provider"
	"muckraker/internal/storage"
)

// SetupLogger initializes structured logging at the given level and makes it
// the process default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewProvider builds the campaign finance API client from configuration.
func NewProvider(cfg *config.Config) (*provider.Client, error) {
	return provider.New(provider.Config{
		BaseURL:           cfg.ProviderBaseURL,
		APIKey:            cfg.ProPublicaAPIKey,
		RequestsPerSecond: cfg.ProviderRateLimit,
		Retries:           cfg.FetchRetries,
	})
}

// BuildLoader wires the provider and cache store into a Loader. The returned
// cleanup releases the store and must be called on exit.
func BuildLoader(cfg *config.Config, logger *log.Logger) (*loader.Loader, func(), error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("provider: %w", err)
	}
	store, err := storage.Open(storage.Backend(cfg.CacheBackend), cfg.CacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("cache store: %w", err)
	}

	cleanup := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("Failed to close cache store", log.FieldError, err)
			}
		}
	}

	l := loader.New(p, store, loader.Options{
		Year:        cfg.ElectionYear,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	})
	return l, cleanup, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
