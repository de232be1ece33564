package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"croak-assistant/internal/catalog"
	"croak-assistant/internal/domain"
)

type tokenView struct {
	domain.TokenRecord
	Aliases []string `json:"aliases"`
}

func tokenViews(cat *catalog.Catalog) []tokenView {
	aliases := make(map[string][]string)
	for _, a := range cat.Aliases() {
		aliases[a.Symbol] = append(aliases[a.Symbol], a.Alias)
	}
	var out []tokenView
	for _, rec := range cat.Records() {
		out = append(out, tokenView{TokenRecord: rec, Aliases: aliases[rec.Symbol]})
	}
	return out
}

func newTokensCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [symbol]",
		Short: "List the token dictionary or show one token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cmd.Context(), o, cfg)
			if err != nil {
				return err
			}

			views := tokenViews(cat)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				symbol := strings.ToUpper(args[0])
				for _, v := range views {
					if v.Symbol != symbol {
						continue
					}
					if o.jsonOut {
						return printJSON(out, v)
					}
					printKV(out,
						"symbol", v.Symbol,
						"name", v.Name,
						"category", v.Category,
						"chain", v.Chain,
						"aliases", strings.Join(v.Aliases, ", "),
						"description", v.Description,
					)
					return nil
				}
				return fmt.Errorf("unknown token %s", symbol)
			}

			if o.jsonOut {
				return printJSON(out, views)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tNAME\tCATEGORY\tALIASES")
			for _, v := range views {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Symbol, v.Name, v.Category, strings.Join(v.Aliases, ", "))
			}
			return tw.Flush()
		},
	}
}
