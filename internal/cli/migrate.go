package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrasnagy-data/feedback/internal/shared/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool, logger); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}
