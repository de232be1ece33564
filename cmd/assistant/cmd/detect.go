package cmd

import (
	"github.com/spf13/cobra"

	"croak-assistant/internal/detection"
)

func newDetectCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <text>",
		Short: "Show which token a message refers to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cmd.Context(), o, cfg)
			if err != nil {
				return err
			}

			res := detection.New(cat).Match(joinArgs(args))
			out := cmd.OutOrStdout()
			if o.jsonOut {
				return printJSON(out, map[string]any{
					"symbol":   res.SymbolOrFallback(),
					"detected": res.Found(),
					"rule":     res.Rule,
					"alias":    res.Alias,
				})
			}

			pairs := []string{"symbol", res.SymbolOrFallback(), "rule", res.Rule.String()}
			if res.Alias != "" {
				pairs = append(pairs, "alias", res.Alias)
			}
			printKV(out, pairs...)
			return nil
		},
	}
}
