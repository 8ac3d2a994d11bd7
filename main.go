package main

import (
	"fmt"
	"os"

	"mytown-issues/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "mytown",
		Short:         "Civic issue reporting backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	// setup loads the environment and builds the logger shared by subcommands.
	setup := func() (config.Config, *zap.Logger, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return config.Config{}, nil, err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		logger, err := config.NewLogger(cfg)
		if err != nil {
			return config.Config{}, nil, err
		}
		return cfg, logger, nil
	}

	root.AddCommand(
		newServeCommand(setup),
		newSeedCommand(setup),
		newIssuesCommand(setup),
	)
	return root
}

type setupFunc func() (config.Config, *zap.Logger, error)
