package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/database"
	"github.com/information-sharing-networks/walletpass/internal/server"
)

func newIssueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issue <event-short-name> <ticket-uuid>",
		Short: "Issue a Google Wallet pass for a ticket and print the save link",
		Long: `Run the issuance pipeline for a ticket, exactly as the add to wallet endpoint does:
the pass class and pass object are created on Google Wallet when missing and a signed save link is printed.

Requires DATABASE_URL and ACTIVE_PROFILES.

Example:
  walletctl issue summer-conf 5b8e3a7c-0d51-4c1e-9a43-7c2f1f0f7d11`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eventName, ticketUUID := args[0], args[1]

			pool, err := a.openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			manager, err := server.NewWalletManager(a.cfg.Wallet, a.cfg.ActiveProfiles, database.NewStore(database.New(pool)), a.logger)
			if err != nil {
				return err
			}

			scope, ticket, ok, err := manager.ValidateTicket(ctx, eventName, ticketUUID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("ticket %s not found in event %s", ticketUUID, eventName)
			}

			issuance, err := manager.Issue(ctx, ticket, scope)
			if err != nil {
				return err
			}

			a.logger.Debug("pass issued", slog.String("object_id", issuance.ObjectID))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "class:  %s\n", issuance.ClassID)
			fmt.Fprintf(out, "object: %s\n", issuance.ObjectID)
			fmt.Fprintf(out, "url:    %s\n", issuance.URL)
			return nil
		},
	}
}
