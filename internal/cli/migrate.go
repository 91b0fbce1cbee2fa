package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <command> [args]",
		Short: "Run database migrations",
		Long: `Run a goose command against the embedded schema migrations.

Supported commands include up, up-by-one, up-to VERSION, down, down-to VERSION, redo, reset, status and version.

Example:
  DATABASE_URL=postgres://localhost:5432/walletpass walletctl migrate up`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool, args[0], args[1:]...); err != nil {
				return err
			}

			a.logger.Info("migration complete", slog.String("command", args[0]))
			return nil
		},
	}
}
