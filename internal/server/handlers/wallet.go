package handlers

// wallet.go implements the add to wallet endpoints

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/information-sharing-networks/walletpass/internal/api"
	"github.com/information-sharing-networks/walletpass/internal/event"
	"github.com/information-sharing-networks/walletpass/internal/logger"
)

// PassIssuer is implemented by wallet.Manager
type PassIssuer interface {
	ValidateTicket(ctx context.Context, eventShortName, ticketUUID string) (event.Scope, event.Ticket, bool, error)
	CreateAddToWalletURL(ctx context.Context, ticket event.Ticket, scope event.Scope) (string, error)
}

// WalletHandler serves the add to wallet endpoints
type WalletHandler struct {
	issuer PassIssuer
}

func NewWalletHandler(issuer PassIssuer) *WalletHandler {
	return &WalletHandler{issuer: issuer}
}

// AddToWalletURLResponse is returned by GET .../google-wallet/url
type AddToWalletURLResponse struct {
	URL string `json:"url" example:"https://pay.google.com/gp/v/save/eyJhbGciOiJSUzI1NiIsImtpZCI6ImtleS0xIiwidHlwIjoiSldUIn0..."`
}

// HandleAddToWallet godoc
//
//	@Summary		Add a ticket to Google Wallet
//	@Description	Ensures the pass class of the ticket category and the pass object of the ticket exist
//	@Description	on Google Wallet and redirects to the signed save link.
//	@Description
//	@Description	The response is 404 when the ticket does not belong to the event or when Google Wallet is
//	@Description	not enabled for the event.
//	@Tags			Wallet
//	@Produce		json
//	@Param			eventName	path	string	true	"Event short name"
//	@Param			ticketUUID	path	string	true	"Ticket uuid"
//	@Success		302
//	@Failure		400	{object}	api.ErrorResponse	"Invalid ticket uuid"
//	@Failure		404	{object}	api.ErrorResponse	"Unknown ticket or integration disabled"
//	@Failure		502	{object}	api.ErrorResponse	"Google Wallet request failed"
//	@Router			/api/v1/events/{eventName}/tickets/{ticketUUID}/google-wallet [get]
func (h *WalletHandler) HandleAddToWallet(w http.ResponseWriter, r *http.Request) {
	link, ok := h.issue(w, r)
	if !ok {
		return
	}
	api.RespondWithRedirect(w, r, link)
}

// HandleAddToWalletURL godoc
//
//	@Summary		Get the Google Wallet save link of a ticket
//	@Description	Same as the redirect endpoint but returns the save link as JSON.
//	@Tags			Wallet
//	@Produce		json
//	@Param			eventName	path		string					true	"Event short name"
//	@Param			ticketUUID	path		string					true	"Ticket uuid"
//	@Success		200			{object}	AddToWalletURLResponse	"Save link"
//	@Failure		400			{object}	api.ErrorResponse		"Invalid ticket uuid"
//	@Failure		404			{object}	api.ErrorResponse		"Unknown ticket or integration disabled"
//	@Failure		502			{object}	api.ErrorResponse		"Google Wallet request failed"
//	@Router			/api/v1/events/{eventName}/tickets/{ticketUUID}/google-wallet/url [get]
func (h *WalletHandler) HandleAddToWalletURL(w http.ResponseWriter, r *http.Request) {
	link, ok := h.issue(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	api.RespondWithJSONPayload(w, http.StatusOK, AddToWalletURLResponse{URL: link})
}

// issue writes the error response and returns false when no link could be produced
func (h *WalletHandler) issue(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	eventName := chi.URLParam(r, "eventName")
	ticketUUID := chi.URLParam(r, "ticketUUID")

	if _, err := uuid.Parse(ticketUUID); err != nil {
		api.RespondWithErrorResponse(w, r, api.NewMalformedRequestError("ticket uuid is not a valid uuid"))
		return "", false
	}

	logger.ContextWithLogAttrs(ctx,
		slog.String("event", eventName),
		slog.String("ticket_uuid", ticketUUID),
	)

	scope, ticket, ok, err := h.issuer.ValidateTicket(ctx, eventName, ticketUUID)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return "", false
	}
	if !ok {
		api.RespondWithErrorResponse(w, r, api.NewNotFoundError("ticket not found"))
		return "", false
	}

	link, err := h.issuer.CreateAddToWalletURL(ctx, ticket, scope)
	if err != nil {
		api.RespondWithErrorResponse(w, r, err)
		return "", false
	}
	return link, true
}
