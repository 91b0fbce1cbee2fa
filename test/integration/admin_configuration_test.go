//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/information-sharing-networks/walletpass/internal/server/handlers"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

func putConfiguration(t *testing.T, testEnv *testEnv, req handlers.ConfigurationRequest) *http.Response {
	t.Helper()

	body, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest(http.MethodPut, testEnv.baseURL+"/admin/configuration", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("failed to set configuration: %v", err)
	}
	return resp
}

func getWalletSettings(t *testing.T, testEnv *testEnv, eventName string) handlers.WalletSettingsResponse {
	t.Helper()

	resp, err := http.Get(testEnv.baseURL + "/admin/events/" + eventName + "/wallet-settings")
	if err != nil {
		t.Fatalf("failed to get wallet settings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status 200, got %d. Response: %s", resp.StatusCode, string(body))
	}

	var settings handlers.WalletSettingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return settings
}

// TestAdminConfiguration_Precedence sets values at system, organization and event level
// and checks the effective settings of two events of the same organization
func TestAdminConfiguration_Precedence(t *testing.T) {
	testEnv := startInProcessServer(t)
	defer testEnv.shutdown()

	summer := createTestEvent(t, testEnv.queries, "summer-conf")
	enableWallet(t, testEnv)

	if settings := getWalletSettings(t, testEnv, summer.shortName); !settings.Enabled || settings.IssuerID != testIssuerID {
		t.Fatalf("expected system settings, got %+v", settings)
	}

	requests := []handlers.ConfigurationRequest{
		{Key: wallet.ConfigKeyIssuerIdentifier, Value: "org-issuer", OrganizationID: &summer.orgID},
		{Key: wallet.ConfigKeyIssuerIdentifier, Value: "event-issuer", OrganizationID: &summer.orgID, EventID: &summer.eventID},
		{Key: wallet.ConfigKeyOverwritePrevious, Value: "TRUE", OrganizationID: &summer.orgID},
	}
	for _, req := range requests {
		resp := putConfiguration(t, testEnv, req)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", resp.StatusCode)
		}
	}

	settings := getWalletSettings(t, testEnv, summer.shortName)
	if settings.IssuerID != "event-issuer" {
		t.Errorf("expected the event value to win, got %q", settings.IssuerID)
	}
	if !settings.OverwritePrevious {
		t.Error("expected overwrite to be enabled by the organization value")
	}
	if !settings.ServiceAccountKeySet {
		t.Error("expected the service account key to be set")
	}

	// blank values count as missing
	resp := putConfiguration(t, testEnv, handlers.ConfigurationRequest{
		Key: wallet.ConfigKeyBaseURL, Value: " ", OrganizationID: &summer.orgID, EventID: &summer.eventID,
	})
	resp.Body.Close()

	if settings := getWalletSettings(t, testEnv, summer.shortName); settings.Enabled {
		t.Errorf("expected a blank base url to disable the integration, got %+v", settings)
	}
}

func TestAdminConfiguration_InvalidRequests(t *testing.T) {
	testEnv := startInProcessServer(t)
	defer testEnv.shutdown()

	missingOrg := int32(999999)
	tests := []struct {
		name string
		req  handlers.ConfigurationRequest
	}{
		{"missing key", handlers.ConfigurationRequest{Value: "true"}},
		{"event without organization", handlers.ConfigurationRequest{Key: "BASE_URL", Value: "x", EventID: &missingOrg}},
		{"unknown organization", handlers.ConfigurationRequest{Key: "BASE_URL", Value: "x", OrganizationID: &missingOrg}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := putConfiguration(t, testEnv, tt.req)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("expected status 400, got %d. Response: %s", resp.StatusCode, string(body))
			}
		})
	}

	resp, err := http.Get(testEnv.baseURL + "/admin/events/no-such-event/wallet-settings")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404 for an unknown event, got %d", resp.StatusCode)
	}
}
