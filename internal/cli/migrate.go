package cli

import (
	"fmt"

	"github.com/ds124wfegd/eshikshan/internal/appServer"
	"github.com/ds124wfegd/eshikshan/pkg/postgres"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appServer.ConfigureLogging(&rootOpts.Config.Log)

			db, err := postgres.NewPostgresDB(&rootOpts.Config.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer db.Close()

			if err := postgres.RunMigrations(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
