package cli

import (
	"github.com/spf13/cobra"

	"github.com/ipfolio/ipfolio/internal/infrastructure/database/postgres"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.NewMigrator(rt.cfg.Database, rt.logger).Up()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.NewMigrator(rt.cfg.Database, rt.logger).Down()
			},
		},
	)
	return cmd
}
