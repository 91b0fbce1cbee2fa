package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

func TestMapErrorToResponse(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    ErrorCode
		wantMessage string
	}{
		{
			name:        "feature disabled",
			err:         wallet.NewFeatureDisabledError("Google Wallet integration is not enabled."),
			wantStatus:  http.StatusNotFound,
			wantCode:    ErrCodeFeatureDisabled,
			wantMessage: "Google Wallet integration is not enabled.",
		},
		{
			name:        "not found",
			err:         wallet.WrapNotFoundError(errors.New("no rows"), "ticket not found"),
			wantStatus:  http.StatusNotFound,
			wantCode:    ErrCodeNotFound,
			wantMessage: "ticket not found",
		},
		{
			name:        "provider failure keeps the response body out of the message",
			err:         wallet.WrapWalletAPIError(errors.New(`{"error":"quota"}`), "failed to create eventTicketClass"),
			wantStatus:  http.StatusBadGateway,
			wantCode:    ErrCodeWalletProvider,
			wantMessage: "failed to create eventTicketClass",
		},
		{
			name:        "credential error is sanitized",
			err:         wallet.WrapCredentialError(errors.New("asn1: structure error"), "failed to parse private key"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeCredential,
			wantMessage: "The wallet service account key is not usable",
		},
		{
			name:        "invalid pass data",
			err:         wallet.NewValidationError("malformed latitude"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeInvalidPassData,
			wantMessage: "malformed latitude",
		},
		{
			name:        "wallet internal",
			err:         wallet.WrapInternalError(errors.New("connection refused"), "failed to read configuration"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeInternalError,
			wantMessage: "An internal error occurred",
		},
		{
			name:       "wrapped wallet error",
			err:        fmt.Errorf("issue: %w", wallet.NewFeatureDisabledError("disabled")),
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeFeatureDisabled,
		},
		{
			name:       "crypto signature",
			err:        crypto.NewSignatureError("signature mismatch"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadSignature,
		},
		{
			name:       "malformed request",
			err:        NewMalformedRequestError("invalid ticket uuid"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeMalformedRequest,
		},
		{
			name:       "rate limit",
			err:        NewRateLimitError("slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   ErrCodeRateLimitExceeded,
		},
		{
			name:        "unmapped error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeInternalError,
			wantMessage: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/events/summer/tickets/abc/google-wallet", nil)

			resp := MapErrorToResponse(tt.err, r)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if len(resp.Errors) != 1 {
				t.Fatalf("expected one detailed error, got %d", len(resp.Errors))
			}
			if resp.Errors[0].ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %d, want %d", resp.Errors[0].ErrorCode, tt.wantCode)
			}
			if tt.wantMessage != "" && resp.Errors[0].ErrorCodeMessage != tt.wantMessage {
				t.Errorf("ErrorCodeMessage = %q, want %q", resp.Errors[0].ErrorCodeMessage, tt.wantMessage)
			}
			if resp.HTTPMethod != http.MethodGet || resp.RequestURI != r.RequestURI {
				t.Errorf("unexpected request details %s %s", resp.HTTPMethod, resp.RequestURI)
			}
		})
	}
}

func TestRespondWithErrorResponse(t *testing.T) {
	var captured *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		RespondWithErrorResponse(w, r, wallet.NewFeatureDisabledError("Google Wallet integration is not enabled."))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/e/tickets/t/google-wallet/url", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	requestID := middleware.GetReqID(captured.Context())
	if requestID == "" || body.ProviderCorrelationReference != requestID {
		t.Errorf("providerCorrelationReference = %q, want request id %q", body.ProviderCorrelationReference, requestID)
	}
	if !strings.Contains(body.Errors[0].ErrorCodeMessage, "not enabled") {
		t.Errorf("unexpected message %q", body.Errors[0].ErrorCodeMessage)
	}
}

func TestRespondWithRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithRedirect(rec, r, "https://pay.google.com/gp/v/save/token")

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://pay.google.com/gp/v/save/token" {
		t.Errorf("Location = %q", loc)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected Cache-Control: no-store")
	}
}
