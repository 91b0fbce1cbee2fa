// Package cli implements walletctl, the operator tool of the wallet service.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/config"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/version"
)

// app holds the state shared by the subcommands once the root command has loaded the configuration
type app struct {
	cfg    *config.CLIEnvironment
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "walletctl",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Google Wallet pass issuance tool",
		Long:              `walletctl manages the wallet service database and issues, inspects and verifies Google Wallet save links`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.NewCLIConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			a.logger = logger.NewLogger(os.Stderr, logger.ParseLogLevel(a.cfg.LogLevel), a.cfg.Environment)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	rootCmd.AddCommand(
		newMigrateCmd(a),
		newIDsCmd(a),
		newIssueCmd(a),
		newVerifyLinkCmd(a),
		newKeygenCmd(a),
	)
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// openPool connects to DATABASE_URL. The caller closes the pool.
func (a *app) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for this command")
	}

	pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}
