//go:build integration

// functions that are useful in integration tests

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/information-sharing-networks/walletpass/internal/database"
	"github.com/information-sharing-networks/walletpass/internal/wallet"
)

const testIssuerID = "3388000000012345678"

// seededEvent holds the ids of the rows created by createTestEvent
type seededEvent struct {
	orgID      int32
	eventID    int32
	categoryID int32
	shortName  string
	ticketUUID string
}

// createTestEvent creates an organization, an event with one category, a ticket and a german description
func createTestEvent(t *testing.T, queries *database.Queries, shortName string) seededEvent {
	t.Helper()
	ctx := context.Background()

	org, err := queries.CreateOrganization(ctx, shortName+" organizer")
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	begin := time.Date(2030, 6, 1, 7, 0, 0, 0, time.UTC)
	eventID, err := queries.CreateEvent(ctx, database.CreateEventParams{
		ShortName:   shortName,
		DisplayName: "Summer Conference",
		Location:    "Congress Hall",
		Latitude:    pgtype.Text{String: "46.9480", Valid: true},
		Longitude:   pgtype.Text{String: "7.4474", Valid: true},
		TimeZone:    "Europe/Zurich",
		StartTs:     pgtype.Timestamptz{Time: begin, Valid: true},
		EndTs:       pgtype.Timestamptz{Time: begin.Add(10 * time.Hour), Valid: true},
		FileBlobID:  "logo-blob",
		OrgID:       org.ID,
		PrivateKey:  "event-secret",
	})
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	categoryID, err := queries.CreateTicketCategory(ctx, database.CreateTicketCategoryParams{
		EventID: eventID,
		Name:    "Day pass",
	})
	if err != nil {
		t.Fatalf("failed to create ticket category: %v", err)
	}

	ticketUUID := uuid.NewString()
	if _, err := queries.CreateTicket(ctx, database.CreateTicketParams{
		Uuid:         ticketUUID,
		EventID:      eventID,
		CategoryID:   categoryID,
		FullName:     "Ada Lovelace",
		EmailAddress: "ada@example.org",
		UserLanguage: "de",
	}); err != nil {
		t.Fatalf("failed to create ticket: %v", err)
	}

	if err := queries.UpsertEventDescription(ctx, database.UpsertEventDescriptionParams{
		EventID:         eventID,
		Locale:          "de",
		DescriptionType: database.DescriptionTypeDescription,
		Description:     "Sommerkonferenz",
	}); err != nil {
		t.Fatalf("failed to create event description: %v", err)
	}

	return seededEvent{
		orgID:      org.ID,
		eventID:    eventID,
		categoryID: categoryID,
		shortName:  shortName,
		ticketUUID: ticketUUID,
	}
}

// enableWallet stores a complete wallet configuration at system level
func enableWallet(t *testing.T, testEnv *testEnv) {
	t.Helper()

	values := map[string]string{
		wallet.ConfigKeyEnableWallet:      "true",
		wallet.ConfigKeyIssuerIdentifier:  testIssuerID,
		wallet.ConfigKeyServiceAccountKey: testEnv.provider.ServiceAccountKey(t),
		wallet.ConfigKeyOverwritePrevious: "false",
		wallet.ConfigKeyBaseURL:           "https://tickets.example.org",
	}
	for key, value := range values {
		setConfiguration(t, testEnv.queries, key, value, nil, nil)
	}
}

// setConfiguration stores a configuration value, orgID and eventID select the level (nil for system)
func setConfiguration(t *testing.T, queries *database.Queries, key, value string, orgID, eventID *int32) {
	t.Helper()

	params := database.SetConfigurationParams{CKey: key, CValue: value}
	if orgID != nil {
		params.OrganizationID = pgtype.Int4{Int32: *orgID, Valid: true}
	}
	if eventID != nil {
		params.EventID = pgtype.Int4{Int32: *eventID, Valid: true}
	}
	if err := queries.SetConfiguration(context.Background(), params); err != nil {
		t.Fatalf("failed to set configuration %s: %v", key, err)
	}
}

// noRedirectClient returns the 302 response instead of following it to the wallet provider
func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
