package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/information-sharing-networks/walletpass/internal/event"
	"github.com/information-sharing-networks/walletpass/internal/logger"
	"github.com/information-sharing-networks/walletpass/internal/metrics"
)

// Repository reads the event data the passes are built from.
// Lookups that find nothing return event.ErrNotFound.
type Repository interface {
	FindEventScopeByShortName(ctx context.Context, shortName string) (event.Scope, error)
	FindTicketByUUID(ctx context.Context, ticketUUID string) (event.Ticket, error)
	GetEvent(ctx context.Context, eventID int) (event.Event, error)
	GetTicketCategory(ctx context.Context, categoryID int) (event.TicketCategory, error)

	// FindEventDescription returns the event description in language ("" when there is none)
	FindEventDescription(ctx context.Context, eventID int, language string) (string, error)
}

// CredentialSource parses service account keys (implemented by *CredentialLoader)
type CredentialSource interface {
	Load(ctx context.Context, keyJSON string) (*Credentials, error)
}

// ResourceEnsurer makes sure a pass class or object exists on the provider (implemented by *Client)
type ResourceEnsurer interface {
	Ensure(ctx context.Context, res Resource, tokens TokenProvider, overwrite bool) (string, error)
}

// LinkSigner produces save links (implemented by *SaveLinkSigner)
type LinkSigner interface {
	SignURL(creds *Credentials, objectID, origin string) (string, error)
}

// Dependencies are the collaborators of a Manager
type Dependencies struct {
	Events        Repository
	Configuration ConfigurationSource
	Credentials   CredentialSource
	Client        ResourceEnsurer
	Signer        LinkSigner

	// Tickets produces barcode values (event.HMACTicketSigner when nil)
	Tickets event.TicketSigner
	Logger  *slog.Logger
}

// issuance states, logged on every transition
type state string

const (
	stateDisabled      state = "disabled"
	stateConfigured    state = "configured"
	stateClassEnsured  state = "class_ensured"
	stateObjectEnsured state = "object_ensured"
	stateLinkReady     state = "link_ready"
	stateFailed        state = "failed"
)

// Issuance is the result of a successful issuance
type Issuance struct {
	URL      string `json:"url"`
	ClassID  string `json:"classId"`
	ObjectID string `json:"objectId"`
}

// Manager issues wallet passes for tickets.
// It keeps no state between calls apart from the caches of its collaborators.
type Manager struct {
	profile  Profile
	settings *SettingsResolver
	deps     Dependencies
	logger   *slog.Logger
}

// NewManager creates a Manager for the deployment profile resolved at startup
func NewManager(profile Profile, deps Dependencies) (*Manager, error) {
	switch {
	case profile == "":
		return nil, NewEnvironmentConfigurationError("wallet profile is required")
	case deps.Events == nil:
		return nil, NewInternalError("event repository is required")
	case deps.Configuration == nil:
		return nil, NewInternalError("configuration source is required")
	case deps.Credentials == nil:
		return nil, NewInternalError("credential source is required")
	case deps.Client == nil:
		return nil, NewInternalError("wallet client is required")
	case deps.Signer == nil:
		return nil, NewInternalError("save link signer is required")
	}
	if deps.Tickets == nil {
		deps.Tickets = event.HMACTicketSigner{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Manager{
		profile:  profile,
		settings: NewSettingsResolver(deps.Configuration),
		deps:     deps,
		logger:   deps.Logger,
	}, nil
}

// requestLogger returns the logger of the http request in ctx (it carries the request id)
// and the manager logger outside a request
func (m *Manager) requestLogger(ctx context.Context) *slog.Logger {
	if l, ok := logger.RequestLoggerFromContext(ctx); ok {
		return l
	}
	return m.logger
}

// Profile returns the deployment profile used in pass ids
func (m *Manager) Profile() Profile { return m.profile }

// ValidateTicket looks up the event by short name and the ticket by uuid.
// ok is false when either does not exist or the ticket belongs to another event.
func (m *Manager) ValidateTicket(ctx context.Context, eventShortName, ticketUUID string) (event.Scope, event.Ticket, bool, error) {
	scope, err := m.deps.Events.FindEventScopeByShortName(ctx, eventShortName)
	if errors.Is(err, event.ErrNotFound) {
		m.requestLogger(ctx).DebugContext(ctx, "event not found", slog.String("event", eventShortName))
		return event.Scope{}, event.Ticket{}, false, nil
	}
	if err != nil {
		return event.Scope{}, event.Ticket{}, false, WrapInternalError(err, "failed to look up event")
	}

	ticket, err := m.deps.Events.FindTicketByUUID(ctx, ticketUUID)
	if errors.Is(err, event.ErrNotFound) {
		return event.Scope{}, event.Ticket{}, false, nil
	}
	if err != nil {
		return event.Scope{}, event.Ticket{}, false, WrapInternalError(err, "failed to look up ticket")
	}

	if !ticket.BelongsTo(scope) {
		m.requestLogger(ctx).DebugContext(ctx, "ticket does not belong to event",
			slog.String("event", eventShortName),
			slog.Int("ticket_event_id", ticket.EventID),
		)
		return event.Scope{}, event.Ticket{}, false, nil
	}

	return scope, ticket, true, nil
}

// CreateAddToWalletURL returns the save link of ticket.
// The ticket must belong to the event in scope.
func (m *Manager) CreateAddToWalletURL(ctx context.Context, ticket event.Ticket, scope event.Scope) (string, error) {
	issuance, err := m.Issue(ctx, ticket, scope)
	if err != nil {
		return "", err
	}
	return issuance.URL, nil
}

// Issue ensures the pass class and pass object of ticket exist on the provider and signs a save link.
//
// A disabled or partially configured integration returns an ErrCodeFeatureDisabled error.
// The first failing step aborts the issuance, nothing is retried.
func (m *Manager) Issue(ctx context.Context, ticket event.Ticket, scope event.Scope) (issuance Issuance, err error) {
	start := time.Now()
	l := m.requestLogger(ctx).With(
		slog.String("event", scope.ShortName),
		slog.Int("event_id", scope.EventID),
		slog.String("ticket", ticket.UUID),
	)

	defer func() {
		result := "success"
		if err != nil {
			result = string(CodeOf(err))
			if result == "" {
				result = string(ErrCodeInternal)
			}
			if CodeOf(err) != ErrCodeFeatureDisabled {
				l.ErrorContext(ctx, "wallet pass issuance failed",
					slog.String("state", string(stateFailed)),
					slog.String("error", err.Error()),
				)
			}
		}
		metrics.IssuancesTotal.WithLabelValues(result).Inc()
		metrics.IssuanceDuration.Observe(time.Since(start).Seconds())
	}()

	if !ticket.BelongsTo(scope) {
		return Issuance{}, NewValidationError(fmt.Sprintf("ticket %s does not belong to event %s", ticket.UUID, scope.ShortName))
	}

	settings, ok, err := m.settings.Resolve(ctx, scope)
	if err != nil {
		return Issuance{}, err
	}
	if !ok {
		l.InfoContext(ctx, "wallet pass not issued", slog.String("state", string(stateDisabled)))
		return Issuance{}, NewFeatureDisabledError("Google Wallet integration is not enabled.")
	}
	l.DebugContext(ctx, "wallet configuration resolved",
		slog.String("state", string(stateConfigured)),
		slog.Any("settings", settings),
	)

	class, object, err := m.buildPass(ctx, ticket, scope, settings)
	if err != nil {
		return Issuance{}, err
	}

	creds, err := m.deps.Credentials.Load(ctx, settings.ServiceAccountKey)
	if err != nil {
		return Issuance{}, err
	}

	// the provider rejects objects whose class does not exist yet
	classID, err := m.deps.Client.Ensure(ctx, class, creds, settings.OverwritePrevious)
	if err != nil {
		return Issuance{}, err
	}
	l.DebugContext(ctx, "pass class ensured", slog.String("state", string(stateClassEnsured)), slog.String("class_id", classID))

	objectID, err := m.deps.Client.Ensure(ctx, object, creds, settings.OverwritePrevious)
	if err != nil {
		return Issuance{}, err
	}
	l.DebugContext(ctx, "pass object ensured", slog.String("state", string(stateObjectEnsured)), slog.String("object_id", objectID))

	link, err := m.deps.Signer.SignURL(creds, objectID, settings.BaseURL)
	if err != nil {
		return Issuance{}, err
	}
	l.InfoContext(ctx, "wallet pass issued", slog.String("state", string(stateLinkReady)), slog.String("object_id", objectID))

	return Issuance{URL: link, ClassID: classID, ObjectID: objectID}, nil
}

func (m *Manager) buildPass(ctx context.Context, ticket event.Ticket, scope event.Scope, settings Settings) (PassClass, PassObject, error) {
	ev, err := m.deps.Events.GetEvent(ctx, scope.EventID)
	if err != nil {
		return PassClass{}, PassObject{}, lookupError(err, "event")
	}

	category, err := m.deps.Events.GetTicketCategory(ctx, ticket.CategoryID)
	if err != nil {
		return PassClass{}, PassObject{}, lookupError(err, "ticket category")
	}

	description, err := m.deps.Events.FindEventDescription(ctx, ev.ID, ticket.UserLanguage)
	if err != nil {
		return PassClass{}, PassObject{}, lookupError(err, "event description")
	}

	builder := PassBuilder{IssuerID: settings.IssuerID, Profile: m.profile, BaseURL: settings.BaseURL}

	class, err := builder.Class(ev, category, ticket.UserLanguage, description)
	if err != nil {
		return PassClass{}, PassObject{}, err
	}

	object := builder.Object(class, ticket, m.deps.Tickets.TicketCode(ticket, ev))
	return class, object, nil
}

func lookupError(err error, what string) error {
	if errors.Is(err, event.ErrNotFound) {
		return WrapNotFoundError(err, what+" not found")
	}
	return WrapInternalError(err, "failed to load "+what)
}
