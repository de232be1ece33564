// Package main runs the assistant HTTP and WebSocket service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"croak-assistant/internal/api"
	"croak-assistant/internal/app"
	"croak-assistant/internal/config"
	"croak-assistant/internal/logging"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	configPath := flag.String("config", os.Getenv("CROAK_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "use-memory":
			if *useMemory {
				cfg.Storage.Backend = config.BackendMemory
			}
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
			cfg.Storage.Backend = config.BackendPostgres
		case "clickhouse-dsn":
			cfg.Storage.ClickHouseDSN = *clickhouseDSN
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(cfg.Server.ShutdownTimeout + 5*time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("assistant ready",
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("tokens", a.Catalog.Len()),
	)

	handlers := api.NewServer(a.Assistant, api.Config{AskTimeout: cfg.Server.AskTimeout}, logger, a.Metrics)
	return handlers.Serve(ctx, api.HTTPConfig{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
}
