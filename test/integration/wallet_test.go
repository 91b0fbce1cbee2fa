//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/walletpass/internal/api"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
	"github.com/information-sharing-networks/walletpass/internal/wallet/testutil"
)

func walletURL(testEnv *testEnv, eventName, ticketUUID string) string {
	return fmt.Sprintf("%s/api/v1/events/%s/tickets/%s/google-wallet", testEnv.baseURL, eventName, ticketUUID)
}

// TestAddToWallet issues the same ticket twice: the first request creates the class and the object,
// the second only looks them up. Both redirect to a link signed with the service account key.
func TestAddToWallet(t *testing.T) {
	testEnv := startInProcessServer(t)
	defer testEnv.shutdown()

	seeded := createTestEvent(t, testEnv.queries, "summer-conf")
	enableWallet(t, testEnv)

	classID := wallet.ClassID(testIssuerID, wallet.ProfileDev, int(seeded.categoryID))
	objectID := wallet.ObjectID(testIssuerID, wallet.ProfileDev, seeded.ticketUUID)

	client := noRedirectClient()
	url := walletURL(testEnv, seeded.shortName, seeded.ticketUUID)

	var links []string
	for i := range 2 {
		resp, err := client.Get(url)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusFound {
			t.Fatalf("request %d: expected status 302, got %d", i+1, resp.StatusCode)
		}
		links = append(links, resp.Header.Get("Location"))
	}

	wantCalls := []string{
		"GET " + testutil.ClassPath + "/" + classID,
		"POST " + testutil.ClassPath,
		"GET " + testutil.ObjectPath + "/" + objectID,
		"POST " + testutil.ObjectPath,
		"GET " + testutil.ClassPath + "/" + classID,
		"GET " + testutil.ObjectPath + "/" + objectID,
	}
	if calls := testEnv.provider.Calls(); !slices.Equal(calls, wantCalls) {
		t.Errorf("provider calls = %v, want %v", calls, wantCalls)
	}

	class := testEnv.provider.Stored(testutil.ClassPath, classID)
	if !strings.Contains(string(class), "Sommerkonferenz") {
		t.Errorf("class should carry the german event description: %s", class)
	}
	if !strings.Contains(string(class), "https://tickets.example.org/file/logo-blob") {
		t.Errorf("class should carry the logo uri: %s", class)
	}

	signer, err := wallet.NewSaveLinkSigner(testEnv.cfg.Wallet.SaveURLTemplate)
	if err != nil {
		t.Fatalf("NewSaveLinkSigner() error: %v", err)
	}
	keys, err := wallet.NewServiceAccountKeyCache(context.Background(), wallet.ServiceAccountKeyCacheConfig{
		URLTemplate: testEnv.provider.JWKSURLTemplate(),
	})
	if err != nil {
		t.Fatalf("NewServiceAccountKeyCache() error: %v", err)
	}
	verifier := wallet.NewLinkVerifier(keys)

	for _, link := range links {
		token, err := signer.TokenFromURL(link)
		if err != nil {
			t.Fatalf("unexpected save link %q: %v", link, err)
		}
		claims, err := verifier.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if claims.Issuer != testutil.ClientEmail {
			t.Errorf("iss = %q, want %q", claims.Issuer, testutil.ClientEmail)
		}
		if !slices.Equal(claims.ObjectIDs(), []string{objectID}) {
			t.Errorf("object ids = %v, want [%s]", claims.ObjectIDs(), objectID)
		}
		if !slices.Equal(claims.Origins, []string{"https://tickets.example.org"}) {
			t.Errorf("origins = %v", claims.Origins)
		}
	}
}

func TestAddToWalletURL(t *testing.T) {
	testEnv := startInProcessServer(t)
	defer testEnv.shutdown()

	seeded := createTestEvent(t, testEnv.queries, "summer-conf")
	enableWallet(t, testEnv)

	resp, err := http.Get(walletURL(testEnv, seeded.shortName, seeded.ticketUUID) + "/url")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status 200, got %d. Response: %s", resp.StatusCode, string(body))
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.HasPrefix(body.URL, "https://pay.google.com/gp/v/save/") {
		t.Errorf("unexpected url %q", body.URL)
	}
}

// TestAddToWalletErrors checks the error responses: nothing reaches the wallet provider
func TestAddToWalletErrors(t *testing.T) {
	testEnv := startInProcessServer(t)
	defer testEnv.shutdown()

	seeded := createTestEvent(t, testEnv.queries, "summer-conf")
	other := createTestEvent(t, testEnv.queries, "winter-conf")

	tests := []struct {
		name       string
		setup      func(t *testing.T)
		url        string
		wantStatus int
		wantCode   api.ErrorCode
	}{
		{
			name:       "integration disabled",
			url:        walletURL(testEnv, seeded.shortName, seeded.ticketUUID),
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeFeatureDisabled,
		},
		{
			name: "disabled for one event",
			setup: func(t *testing.T) {
				enableWallet(t, testEnv)
				setConfiguration(t, testEnv.queries, wallet.ConfigKeyEnableWallet, "false", &seeded.orgID, &seeded.eventID)
			},
			url:        walletURL(testEnv, seeded.shortName, seeded.ticketUUID),
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeFeatureDisabled,
		},
		{
			name:       "unknown ticket",
			url:        walletURL(testEnv, seeded.shortName, uuid.NewString()),
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeNotFound,
		},
		{
			name:       "ticket of another event",
			url:        walletURL(testEnv, seeded.shortName, other.ticketUUID),
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeNotFound,
		},
		{
			name:       "unknown event",
			url:        walletURL(testEnv, "no-such-event", seeded.ticketUUID),
			wantStatus: http.StatusNotFound,
			wantCode:   api.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(t)
			}

			resp, err := noRedirectClient().Get(tt.url)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("expected status %d, got %d. Response: %s", tt.wantStatus, resp.StatusCode, string(body))
			}

			var errorResponse api.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&errorResponse); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if len(errorResponse.Errors) != 1 || errorResponse.Errors[0].ErrorCode != tt.wantCode {
				t.Errorf("expected error code %d, got %+v", tt.wantCode, errorResponse.Errors)
			}
		})
	}

	if calls := testEnv.provider.Calls(); len(calls) != 0 {
		t.Errorf("expected no provider calls, got %v", calls)
	}
}

// TestAddToWalletProviderFailure checks a rejected class create is reported as a bad gateway
func TestAddToWalletProviderFailure(t *testing.T) {
	testEnv := startInProcessServer(t)
	defer testEnv.shutdown()

	seeded := createTestEvent(t, testEnv.queries, "summer-conf")
	enableWallet(t, testEnv)
	testEnv.provider.CreateStatus = http.StatusBadRequest

	resp, err := noRedirectClient().Get(walletURL(testEnv, seeded.shortName, seeded.ticketUUID))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.StatusCode)
	}

	// the object is never created when its class could not be
	for _, call := range testEnv.provider.Calls() {
		if strings.Contains(call, testutil.ObjectPath) {
			t.Errorf("unexpected object call %q", call)
		}
	}
}
