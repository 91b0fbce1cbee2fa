package handlers

// admin_configuration.go lets developers manage wallet configuration values without database access.
// The routes are only registered in the dev and test environments.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/information-sharing-networks/walletpass/internal/api"
	"github.com/information-sharing-networks/walletpass/internal/database"
	"github.com/information-sharing-networks/walletpass/internal/event"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

// request and responses

type ConfigurationRequest struct {
	Key            string `json:"key"`
	Value          string `json:"value"`
	OrganizationID *int32 `json:"organization_id,omitempty"`
	EventID        *int32 `json:"event_id,omitempty"`
}

// WalletSettingsResponse never contains the service account key
type WalletSettingsResponse struct {
	Event                string `json:"event"`
	Enabled              bool   `json:"enabled"`
	IssuerID             string `json:"issuer_id,omitempty"`
	BaseURL              string `json:"base_url,omitempty"`
	OverwritePrevious    bool   `json:"overwrite_previous"`
	ServiceAccountKeySet bool   `json:"service_account_key_set"`
}

// ConfigurationWriter is implemented by database.Queries
type ConfigurationWriter interface {
	SetConfiguration(ctx context.Context, arg database.SetConfigurationParams) error
}

// EventScopes is implemented by database.Store
type EventScopes interface {
	FindEventScopeByShortName(ctx context.Context, shortName string) (event.Scope, error)
}

// HandleSetConfiguration godoc
//
//	@Summary		Set a configuration value
//	@Description	Creates or replaces a configuration value at system (no ids), organization or event level.
//	@Description	Event values override organization values which override system values.
//	@Tags			Admin
//	@Accept			json
//	@Param			configuration	body	ConfigurationRequest	true	"Configuration value"
//	@Success		204
//	@Failure		400	{object}	api.ErrorResponse	"Invalid request"
//	@Router			/admin/configuration [put]
func HandleSetConfiguration(writer ConfigurationWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.ContextRequestLogger(r.Context())

		var req ConfigurationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("invalid request body"))
			return
		}

		req.Key = strings.TrimSpace(req.Key)
		if req.Key == "" {
			api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("key is required"))
			return
		}
		if req.EventID != nil && req.OrganizationID == nil {
			api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("organization_id is required with event_id"))
			return
		}

		err := writer.SetConfiguration(r.Context(), database.SetConfigurationParams{
			CKey:           req.Key,
			CValue:         req.Value,
			OrganizationID: int4(req.OrganizationID),
			EventID:        int4(req.EventID),
		})
		if err != nil {
			var pgErr *pgconn.PgError
			// foreign key violation
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("unknown organization or event"))
				return
			}
			api.RespondWithErrorResponse(w, r, api.WrapInternalError(err, "failed to set configuration"))
			return
		}

		// values are not logged, they may contain key material
		reqLogger.Info("configuration updated", slog.String("key", req.Key))
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetWalletSettings godoc
//
//	@Summary		Get the effective wallet settings of an event
//	@Description	Resolves the wallet configuration of the event the same way pass issuance does.
//	@Description	enabled is false when the integration is switched off or any value is missing.
//	@Tags			Admin
//	@Produce		json
//	@Param			eventName	path		string					true	"Event short name"
//	@Success		200			{object}	WalletSettingsResponse
//	@Failure		404			{object}	api.ErrorResponse	"Event not found"
//	@Router			/admin/events/{eventName}/wallet-settings [get]
func HandleGetWalletSettings(events EventScopes, resolver *wallet.SettingsResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventName := chi.URLParam(r, "eventName")

		scope, err := events.FindEventScopeByShortName(r.Context(), eventName)
		if errors.Is(err, event.ErrNotFound) {
			api.RespondWithErrorResponse(w, r, api.NewNotFoundError("event not found"))
			return
		}
		if err != nil {
			api.RespondWithErrorResponse(w, r, api.WrapInternalError(err, "failed to look up event"))
			return
		}

		settings, ok, err := resolver.Resolve(r.Context(), scope)
		if err != nil {
			api.RespondWithErrorResponse(w, r, err)
			return
		}

		response := WalletSettingsResponse{Event: eventName, Enabled: ok}
		if ok {
			response.IssuerID = settings.IssuerID
			response.BaseURL = settings.BaseURL
			response.OverwritePrevious = settings.OverwritePrevious
			response.ServiceAccountKeySet = settings.ServiceAccountKey != ""
		}
		api.RespondWithJSONPayload(w, http.StatusOK, response)
	}
}

func int4(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}
