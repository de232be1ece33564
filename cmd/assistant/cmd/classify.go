package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"croak-assistant/internal/classify"
)

func newClassifyCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Show the category and intent of a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := joinArgs(args)
			category := classify.Query(text)
			intent := classify.Intent(text)
			price := classify.IsPriceQuery(text)

			out := cmd.OutOrStdout()
			if o.jsonOut {
				return printJSON(out, map[string]any{
					"category": category,
					"label":    category.Label(),
					"intent":   intent,
					"price":    price,
				})
			}
			printKV(out,
				"category", category.String(),
				"intent", intent.String(),
				"price", strconv.FormatBool(price),
			)
			return nil
		},
	}
}
