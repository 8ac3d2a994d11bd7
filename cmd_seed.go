package main

import (
	"context"
	"fmt"

	"mytown-issues/config"
	"mytown-issues/services"
	"mytown-issues/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCommand(setup setupFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load seed issues and the administrator account into MongoDB",
		Long: `Load seed issues into the configured store. Issues already present are
skipped, so running it twice is safe.

Examples:
  # Load the bundled sample issues
  mytown seed

  # Load issues from a file
  mytown seed --file ./issues.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if file != "" {
				cfg.SeedFile = file
			}
			if cfg.StoreBackend != config.BackendMongo {
				return fmt.Errorf("seeding needs STORE_BACKEND=%s, the %s store does not persist", config.BackendMongo, cfg.StoreBackend)
			}

			ctx := cmd.Context()
			b, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = b.Close(context.Background()) }()

			issues, err := loadSeed(cfg)
			if err != nil {
				return err
			}
			added, err := store.Seed(ctx, b.Issues, issues)
			if err != nil {
				return err
			}
			if _, err := services.EnsureAdmin(ctx, b.Users, cfg.AdminEmail, cfg.AdminPassword); err != nil {
				return err
			}

			logger.Info("Seed complete", zap.Int("added", added), zap.Int("skipped", len(issues)-added))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d issues\n", added, len(issues))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (overrides SEED_FILE)")
	return cmd
}
