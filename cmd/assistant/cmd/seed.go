package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"croak-assistant/internal/app"
	"croak-assistant/internal/catalog"
)

func newSeedCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the token dictionary into the token store",
		Long:  "Seed upserts every token and curated alias of the configured dictionary file (or the built-in one) into the configured store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			logger, err := o.logger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			// The dictionary being seeded never comes from the store itself.
			src := cfg.Catalog
			src.FromStore = false
			cat, err := app.LoadCatalog(cmd.Context(), src, nil)
			if err != nil {
				return err
			}

			stores, cleanup, err := app.NewStores(cmd.Context(), cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := catalog.Seed(cmd.Context(), stores.Tokens, cat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tokens and %d aliases into %s store\n",
				cat.Len(), len(cat.Curated()), cfg.Storage.Backend)
			return nil
		},
	}
}
