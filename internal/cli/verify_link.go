package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

func newVerifyLinkCmd(a *app) *cobra.Command {
	var jwksFile string

	cmd := &cobra.Command{
		Use:   "verify-link <save-link-or-token>",
		Short: "Verify the signature and claims of a save link",
		Long: `Verify a Google Wallet save link (or the JWT it carries) and print its claims.

By default the signing key is fetched from the published JWK set of the issuing service account
(WALLET_JWKS_URL_TEMPLATE). Use --jwks-file to verify against a local JWK set instead,
e.g. one written by walletctl keygen.

Example:
  walletctl verify-link "https://pay.google.com/gp/v/save/eyJhbGciOi..."
  walletctl verify-link --jwks-file ./keys/demo.jwks.json eyJhbGciOi...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			token := args[0]
			if strings.Contains(token, "://") {
				signer, err := wallet.NewSaveLinkSigner(a.cfg.Wallet.SaveURLTemplate)
				if err != nil {
					return err
				}
				if token, err = signer.TokenFromURL(token); err != nil {
					return err
				}
			}

			var keys wallet.KeySetSource
			if jwksFile != "" {
				set, err := crypto.ReadJWKSetFromFile(filepath.Dir(jwksFile), filepath.Base(jwksFile))
				if err != nil {
					return err
				}
				keys = wallet.StaticKeySet{Set: set}
			} else {
				cache, err := wallet.NewServiceAccountKeyCache(ctx, wallet.ServiceAccountKeyCacheConfig{
					URLTemplate:        a.cfg.Wallet.JWKSURLTemplate,
					MinRefreshInterval: a.cfg.Wallet.JWKCacheMinRefresh,
					MaxRefreshInterval: a.cfg.Wallet.JWKCacheMaxRefresh,
					Logger:             a.logger,
				})
				if err != nil {
					return err
				}
				keys = cache
			}

			claims, err := wallet.NewLinkVerifier(keys).Verify(ctx, token)
			if err != nil {
				return err
			}

			a.logger.Info("save link verified",
				slog.String("issuer", claims.Issuer),
				slog.Any("objects", claims.ObjectIDs()),
			)

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(claims); err != nil {
				return fmt.Errorf("failed to print claims: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jwksFile, "jwks-file", "", "Verify with the keys in this JWK set file instead of fetching them")
	return cmd
}
