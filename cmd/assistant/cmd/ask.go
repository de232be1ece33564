package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"croak-assistant/internal/app"
)

func newAskCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question about a token",
		Args:  cobra.MinimumNArgs(1),
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

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.AskTimeout)
			defer cancel()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := a.Assistant.Ask(ctx, joinArgs(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if o.jsonOut {
				return printJSON(out, reply)
			}
			fmt.Fprintln(out, reply.Text)
			return nil
		},
	}
}
