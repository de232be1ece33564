// Package app wires configuration into stores, market sources, the language
// model writer and the assistant. Both binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"croak-assistant/internal/assistant"
	"croak-assistant/internal/catalog"
	"croak-assistant/internal/config"
	"croak-assistant/internal/llm"
	"croak-assistant/internal/market"
	"croak-assistant/internal/market/coinmarketcap"
	"croak-assistant/internal/observability"
	"croak-assistant/internal/storage"
	chstore "croak-assistant/internal/storage/clickhouse"
	"croak-assistant/internal/storage/memory"
	"croak-assistant/internal/storage/migrations"
	pgstore "croak-assistant/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Tokens       storage.TokenStore
	Interactions storage.InteractionStore
	Snapshots    storage.MarketSnapshotStore
}

// App is a fully wired assistant with its dependencies.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Stores    *Stores
	Catalog   *catalog.Catalog
	Assistant *assistant.Assistant

	cleanup func()
}

// Close releases database connections.
func (a *App) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	stores, cleanup, err := NewStores(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	cat, err := LoadCatalog(ctx, cfg.Catalog, stores.Tokens)
	if err != nil {
		cleanup()
		return nil, err
	}

	writer, err := NewWriter(cfg.LLM)
	if err != nil {
		cleanup()
		return nil, err
	}
	if writer == nil {
		logger.Info("no language model configured, composing every answer")
	}

	metrics := observability.DefaultMetrics
	a, err := assistant.New(assistant.Options{
		Catalog:      cat,
		Market:       NewMarket(cfg.Market, stores.Snapshots, logger),
		Writer:       writer,
		Tokens:       stores.Tokens,
		Interactions: stores.Interactions,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Stores:    stores,
		Catalog:   cat,
		Assistant: a,
		cleanup:   cleanup,
	}, nil
}

// NewStores creates the configured stores. Market snapshots go to ClickHouse
// when a DSN is set and stay in memory otherwise.
func NewStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Stores, func(), error) {
	if cfg.Backend == config.BackendMemory {
		stores := &Stores{
			Tokens:       memory.NewTokenStore(),
			Interactions: memory.NewInteractionStore(),
			Snapshots:    memory.NewMarketSnapshotStore(),
		}
		if cfg.ClickHouseDSN == "" {
			return stores, func() {}, nil
		}
		conn, err := openClickhouse(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		stores.Snapshots = chstore.NewMarketSnapshotStore(conn)
		return stores, func() { conn.Close() }, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("postgres migrations applied")
	}

	stores := &Stores{
		Tokens:       pgstore.NewTokenStore(pool),
		Interactions: pgstore.NewInteractionStore(pool),
		Snapshots:    memory.NewMarketSnapshotStore(),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse
	if cfg.ClickHouseDSN != "" {
		conn, err := openClickhouse(ctx, cfg)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		stores.Snapshots = chstore.NewMarketSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

func openClickhouse(ctx context.Context, cfg config.StorageConfig) (*chstore.Conn, error) {
	if cfg.Migrate {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		return conn, nil
	}
	conn, err := chstore.NewConn(ctx, cfg.ClickHouseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	return conn, nil
}

// LoadCatalog returns the token dictionary from the configured origin.
func LoadCatalog(ctx context.Context, cfg config.CatalogConfig, tokens storage.TokenStore) (*catalog.Catalog, error) {
	switch {
	case cfg.FromStore:
		cat, err := catalog.Load(ctx, tokens)
		if !errors.Is(err, storage.ErrNotFound) {
			return cat, err
		}
		// First run against an empty store: seed the embedded dictionary.
		cat, err = catalog.Default()
		if err != nil {
			return nil, err
		}
		if err := catalog.Seed(ctx, tokens, cat); err != nil {
			return nil, fmt.Errorf("seed token store: %w", err)
		}
		return cat, nil
	case cfg.File != "":
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("read token file: %w", err)
		}
		return catalog.Parse(data)
	default:
		return catalog.Default()
	}
}

// NewMarket chains the configured live sources behind a snapshot fallback.
func NewMarket(cfg config.MarketConfig, snapshots storage.MarketSnapshotStore, logger *zap.Logger) market.Source {
	var sources []market.Source

	if cfg.CoinMarketCapAPIKey != "" {
		opts := []coinmarketcap.ClientOption{
			coinmarketcap.WithTimeout(cfg.Timeout),
			coinmarketcap.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.Burst),
		}
		if cfg.CoinMarketCapBaseURL != "" {
			opts = append(opts, coinmarketcap.WithBaseURL(cfg.CoinMarketCapBaseURL))
		}
		sources = append(sources, coinmarketcap.NewClient(cfg.CoinMarketCapAPIKey, opts...))
	}
	if cfg.Binance {
		client := binance.NewClient("", "")
		client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		sources = append(sources, market.NewBinanceSource(client))
	}
	if len(sources) == 0 {
		logger.Warn("no market source configured, figures will be Unknown")
	}

	chain := market.NewChain(logger.Named("market"), sources...)
	return market.NewSnapshotSource(chain, snapshots, logger.Named("snapshots"))
}

// NewWriter returns the OpenAI writer, or nil when no API key is set.
func NewWriter(cfg config.LLMConfig) (llm.Writer, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	w, err := llm.NewOpenAIWriter(llm.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create language model writer: %w", err)
	}
	return w, nil
}
