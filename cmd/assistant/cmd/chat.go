package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"croak-assistant/internal/api"
)

func newChatCmd(o *globalOptions) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running server over WebSocket",
		Long:  "Chat reads one question per line from stdin and prints each answer as it streams in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := api.NewClient(url, nil).DialChat(cmd.Context())
			if err != nil {
				return err
			}
			defer cc.Close()

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}

				reply, err := cc.Ask(cmd.Context(), line, func(chunk string) {
					fmt.Fprint(out, chunk)
				})
				var reqErr *api.RequestError
				if errors.As(err, &reqErr) {
					fmt.Fprintf(out, "error: %s\n", reqErr.Message)
					continue
				}
				if err != nil {
					return err
				}
				if o.jsonOut {
					fmt.Fprintln(out)
					if err := printJSON(out, reply); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "\n[%s via %s]\n", reply.Symbol, reply.Source)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8080", "server base URL")
	return cmd
}
