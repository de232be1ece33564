// assistant answers token questions from the command line and can run the
// HTTP service.
package main

import (
	"os"

	"croak-assistant/cmd/assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
