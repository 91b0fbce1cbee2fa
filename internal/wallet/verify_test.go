package wallet

import (
	"context"
	"strings"
	"testing"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/wallet/testutil"
)

func TestVerifyWithServiceAccountKeys(t *testing.T) {
	provider := testutil.NewProvider(t)
	creds := loadTestCredentials(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := NewServiceAccountKeyCache(ctx, ServiceAccountKeyCacheConfig{URLTemplate: provider.JWKSURLTemplate()})
	if err != nil {
		t.Fatalf("NewServiceAccountKeyCache() error: %v", err)
	}
	if got := keys.URL(testutil.ClientEmail); got != provider.Server.URL+testutil.JWKSPath+testutil.ClientEmail {
		t.Errorf("URL() = %q", got)
	}

	signer, err := NewSaveLinkSigner("")
	if err != nil {
		t.Fatalf("NewSaveLinkSigner() error: %v", err)
	}
	token, err := signer.Token(creds, "iss1.dev-object-abc-123", "https://tickets.example.org")
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}

	verifier := NewLinkVerifier(keys)
	if _, err := verifier.Verify(ctx, token); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}

	// second verification is served from the cache
	if _, err := verifier.Verify(ctx, token); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	provider := testutil.NewProvider(t)
	creds := loadTestCredentials(t, provider)

	otherKey, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() error: %v", err)
	}
	otherSet, err := crypto.PublicKeySet(otherKey, testutil.KeyID)
	if err != nil {
		t.Fatalf("PublicKeySet() error: %v", err)
	}
	set, err := crypto.PublicKeySet(provider.PrivateKey, testutil.KeyID)
	if err != nil {
		t.Fatalf("PublicKeySet() error: %v", err)
	}

	signer, err := NewSaveLinkSigner("")
	if err != nil {
		t.Fatalf("NewSaveLinkSigner() error: %v", err)
	}
	token, err := signer.Token(creds, "iss1.dev-object-abc-123", "https://tickets.example.org")
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}

	// a token with a different payload but the original signature
	wrongAudience, err := crypto.MarshalCanonical(map[string]any{"iss": testutil.ClientEmail, "aud": "someone-else"})
	if err != nil {
		t.Fatalf("MarshalCanonical() error: %v", err)
	}
	wrongAudienceToken, err := crypto.SignRS256(wrongAudience, creds.SigningKey())
	if err != nil {
		t.Fatalf("SignRS256() error: %v", err)
	}

	parts := strings.Split(token, ".")
	swapped := parts[0] + "." + strings.Split(wrongAudienceToken, ".")[1] + "." + parts[2]

	tests := []struct {
		name     string
		keys     KeySetSource
		token    string
		wantCode ErrorCode
	}{
		{"signed by another key", StaticKeySet{Set: otherSet}, token, ErrCodeCredential},
		{"payload swapped", StaticKeySet{Set: set}, swapped, ErrCodeCredential},
		{"wrong audience", StaticKeySet{Set: set}, wrongAudienceToken, ErrCodeValidation},
		{"not a jws", StaticKeySet{Set: set}, "not-a-token", ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinkVerifier(tt.keys).Verify(context.Background(), tt.token)
			if CodeOf(err) != tt.wantCode {
				t.Errorf("expected %q, got %v", tt.wantCode, err)
			}
		})
	}
}
