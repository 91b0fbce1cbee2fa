package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

func newIDsCmd(a *app) *cobra.Command {
	var (
		issuerID   string
		profile    string
		categoryID int
		ticketUUID string
	)

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Print the pass class and pass object ids of a ticket",
		Long: `Print the ids used for a ticket category and a ticket on Google Wallet.

The ids are derived from the issuer id, the deployment profile and the category id or ticket uuid,
so they can be computed without the database, e.g. to look a pass up in the Google Pay console.

Example:
  walletctl ids --issuer 3388000000012345678 --profile live --category 42 --ticket 5b8e3a7c-0d51-4c1e-9a43-7c2f1f0f7d11`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile(profile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("category") {
				fmt.Fprintf(out, "class:  %s\n", wallet.ClassID(issuerID, p, categoryID))
			}
			if ticketUUID != "" {
				fmt.Fprintf(out, "object: %s\n", wallet.ObjectID(issuerID, p, ticketUUID))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&issuerID, "issuer", "", "Google Wallet issuer id (required)")
	cmd.Flags().StringVar(&profile, "profile", "", "Deployment profile: demo, dev or live (defaults to ACTIVE_PROFILES)")
	cmd.Flags().IntVar(&categoryID, "category", 0, "Ticket category id")
	cmd.Flags().StringVar(&ticketUUID, "ticket", "", "Ticket uuid")
	_ = cmd.MarkFlagRequired("issuer")
	cmd.MarkFlagsOneRequired("category", "ticket")

	return cmd
}

// profile returns the --profile flag value or resolves ACTIVE_PROFILES
func (a *app) profile(flag string) (wallet.Profile, error) {
	if flag != "" {
		return wallet.ResolveProfile([]string{flag})
	}
	return wallet.ResolveProfile(a.cfg.ActiveProfiles)
}
