package main

import (
	"fmt"

	"github.com/shabelingo/shabelingo-api/internal/platform/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Manage the database schema",
		Long: "Runs goose against the migrations embedded for the configured driver.\n" +
			"up applies pending migrations, down rolls back the latest one, reset rolls back\n" +
			"all of them, status lists them and version prints the current schema version.",
		Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{
			migrations.CommandUp,
			migrations.CommandDown,
			migrations.CommandReset,
			migrations.CommandStatus,
			migrations.CommandVersion,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(opts)
			if err != nil {
				return err
			}
			logger, err := setupAppLogger(cfg)
			if err != nil {
				return err
			}

			st, err := openStorage(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer st.Close()

			return st.migrate(cmd.Context(), args[0], logger)
		},
	}
}
