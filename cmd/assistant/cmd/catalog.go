package cmd

import (
	"context"

	"croak-assistant/internal/app"
	"croak-assistant/internal/catalog"
	"croak-assistant/internal/config"
)

// loadCatalog returns the configured dictionary, opening the stores only when
// the dictionary lives there.
func loadCatalog(ctx context.Context, o *globalOptions, cfg *config.Config) (*catalog.Catalog, error) {
	if !cfg.Catalog.FromStore {
		return app.LoadCatalog(ctx, cfg.Catalog, nil)
	}

	logger, err := o.logger(cfg)
	if err != nil {
		return nil, err
	}
	stores, cleanup, err := app.NewStores(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return app.LoadCatalog(ctx, cfg.Catalog, stores.Tokens)
}
