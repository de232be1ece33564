package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"croak-assistant/internal/config"
	"croak-assistant/internal/logging"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	envFile    string
	jsonOut    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Croak token assistant",
		Long:          "Detect tokens in questions, classify them and answer from market data.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("CROAK_CONFIG"), "path to YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.envFile, "env-file", ".env", "KEY=VALUE file loaded before the environment is read")
	flags.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newAskCmd(opts),
		newDetectCmd(opts),
		newClassifyCmd(opts),
		newTokensCmd(opts),
		newSeedCmd(opts),
		newServeCmd(opts),
		newChatCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

// loadConfig applies .env, the config file, the environment and flags, in that order.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := config.LoadEnvFile(o.envFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (o *globalOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Development)
}
