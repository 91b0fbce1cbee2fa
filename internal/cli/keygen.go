package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
)

// file naming convention - name.service-account.json and name.jwks.json
const (
	serviceAccountFileNameFormat = "%s.service-account.json"
	jwksFileNameFormat           = "%s.jwks.json"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

// serviceAccountKey is the subset of the Google service account key file read by the credential loader
type serviceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

func newKeygenCmd(a *app) *cobra.Command {
	var (
		name      string
		outputDir string
		email     string
		keyID     string
		tokenURI  string
		rsaSize   int
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a service account key file for local testing",
		Long: `Generate an RSA key pair in the Google service account key file format, together with
the matching public JWK set.

The key file can be stored as WALLET_SERVICE_ACCOUNT_KEY when running against a fake provider
(set token_uri with --token-uri), and the JWK set verifies the resulting save links with
walletctl verify-link --jwks-file. Keys generated here are not known to Google.

Example:
  walletctl keygen --name demo --output-dir ./keys --token-uri http://localhost:8081/token`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rsaSize != 2048 && rsaSize != 3072 && rsaSize != 4096 {
				return fmt.Errorf("unsupported RSA key size: %d", rsaSize)
			}
			if keyID == "" {
				keyID = uuid.NewString()
			}

			privateKey, err := crypto.GenerateRSAKeyPair(rsaSize)
			if err != nil {
				return err
			}
			pemBytes, err := crypto.EncodeRSAPrivateKeyToPEM(privateKey)
			if err != nil {
				return err
			}
			set, err := crypto.PublicKeySet(privateKey, keyID)
			if err != nil {
				return err
			}

			keyFile, err := json.MarshalIndent(serviceAccountKey{
				Type:         "service_account",
				ProjectID:    "walletpass-local",
				PrivateKeyID: keyID,
				PrivateKey:   string(pemBytes),
				ClientEmail:  email,
				TokenURI:     tokenURI,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode service account key: %w", err)
			}
			jwksFile, err := json.MarshalIndent(set, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode JWK set: %w", err)
			}

			if err := os.MkdirAll(outputDir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			keyPath := filepath.Join(outputDir, fmt.Sprintf(serviceAccountFileNameFormat, name))
			jwksPath := filepath.Join(outputDir, fmt.Sprintf(jwksFileNameFormat, name))

			if err := os.WriteFile(keyPath, keyFile, 0o600); err != nil {
				return fmt.Errorf("failed to write service account key: %w", err)
			}
			if err := os.WriteFile(jwksPath, jwksFile, 0o644); err != nil {
				return fmt.Errorf("failed to write JWK set: %w", err)
			}

			a.logger.Info("service account key generated",
				slog.String("key_id", keyID),
				slog.String("client_email", email),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "service account key: %s\n", keyPath)
			fmt.Fprintf(out, "public JWK set:      %s\n", jwksPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "walletpass", "File name prefix")
	cmd.Flags().StringVar(&outputDir, "output-dir", "./keys", "Output directory")
	cmd.Flags().StringVar(&email, "email", "walletpass-local@walletpass-local.iam.gserviceaccount.com", "client_email of the service account")
	cmd.Flags().StringVar(&keyID, "key-id", "", "private_key_id (defaults to a generated UUID)")
	cmd.Flags().StringVar(&tokenURI, "token-uri", defaultTokenURI, "token_uri of the service account")
	cmd.Flags().IntVar(&rsaSize, "size", 2048, "RSA key size in bits (2048, 3072 or 4096)")

	return cmd
}
