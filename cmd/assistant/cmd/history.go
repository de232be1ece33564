package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"croak-assistant/internal/app"
)

func newHistoryCmd(o *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
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

			stores, cleanup, err := app.NewStores(cmd.Context(), cfg.Storage, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			recent, err := stores.Interactions.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if o.jsonOut {
				return printJSON(out, recent)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSYMBOL\tCATEGORY\tSOURCE\tMESSAGE")
			for _, i := range recent {
				symbol := "-"
				if i.Symbol != nil {
					symbol = *i.Symbol
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					time.UnixMilli(i.CreatedAt).UTC().Format(time.RFC3339),
					symbol, i.Category, i.Source, i.Message)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of interactions to show")
	return cmd
}
