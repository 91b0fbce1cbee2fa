// Package database is the postgres data access layer.
//
// The Queries type and the *.sql.go files are generated by sqlc from sql/queries (see sqlc.yaml at the module root),
// run `sqlc generate` after changing a query or the schema. Store adapts the queries to the repositories used by the
// wallet package.
package database

// store.go maps database rows to the event records read by the wallet pipeline.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/information-sharing-networks/walletpass/internal/event"
)

// DescriptionTypeDescription is the event_description type holding the event description
const DescriptionTypeDescription = "DESCRIPTION"

// Store reads events, tickets and configuration from postgres
type Store struct {
	queries *Queries
}

func NewStore(queries *Queries) *Store {
	return &Store{queries: queries}
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, event.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func (s *Store) FindEventScopeByShortName(ctx context.Context, shortName string) (event.Scope, error) {
	row, err := s.queries.GetEventScopeByShortName(ctx, shortName)
	if err != nil {
		return event.Scope{}, notFound(err, "event "+shortName)
	}
	return event.Scope{EventID: int(row.ID), OrganizationID: int(row.OrgID), ShortName: row.ShortName}, nil
}

func (s *Store) FindTicketByUUID(ctx context.Context, ticketUUID string) (event.Ticket, error) {
	row, err := s.queries.GetTicketByUUID(ctx, ticketUUID)
	if err != nil {
		return event.Ticket{}, notFound(err, "ticket "+ticketUUID)
	}
	return event.Ticket{
		ID:           int(row.ID),
		UUID:         row.Uuid,
		EventID:      int(row.EventID),
		CategoryID:   int(row.CategoryID),
		FullName:     row.FullName,
		Email:        row.EmailAddress,
		UserLanguage: row.UserLanguage,
	}, nil
}

func (s *Store) GetEvent(ctx context.Context, eventID int) (event.Event, error) {
	row, err := s.queries.GetEventByID(ctx, int32(eventID))
	if err != nil {
		return event.Event{}, notFound(err, fmt.Sprintf("event %d", eventID))
	}
	return event.Event{
		ID:             int(row.ID),
		ShortName:      row.ShortName,
		DisplayName:    row.DisplayName,
		Location:       row.Location,
		Latitude:       textPtr(row.Latitude),
		Longitude:      textPtr(row.Longitude),
		TimeZone:       row.TimeZone,
		Begin:          row.StartTs.Time,
		End:            row.EndTs.Time,
		FileBlobID:     row.FileBlobID,
		OrganizationID: int(row.OrgID),
		PrivateKey:     row.PrivateKey,
	}, nil
}

func (s *Store) GetTicketCategory(ctx context.Context, categoryID int) (event.TicketCategory, error) {
	row, err := s.queries.GetTicketCategoryByID(ctx, int32(categoryID))
	if err != nil {
		return event.TicketCategory{}, notFound(err, fmt.Sprintf("ticket category %d", categoryID))
	}
	return event.TicketCategory{
		ID:            int(row.ID),
		EventID:       int(row.EventID),
		Name:          row.Name,
		ValidityStart: timePtr(row.TicketValidityStart),
		ValidityEnd:   timePtr(row.TicketValidityEnd),
	}, nil
}

// FindEventDescription returns "" when the event has no description in language
func (s *Store) FindEventDescription(ctx context.Context, eventID int, language string) (string, error) {
	description, err := s.queries.GetEventDescription(ctx, GetEventDescriptionParams{
		EventID:         int32(eventID),
		Locale:          language,
		DescriptionType: DescriptionTypeDescription,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load event description: %w", err)
	}
	return description, nil
}

// GetConfiguration returns the effective value of each key for the scope (keys without a value are omitted)
func (s *Store) GetConfiguration(ctx context.Context, scope event.Scope, keys []string) (map[string]string, error) {
	rows, err := s.queries.GetConfigurationValues(ctx, GetConfigurationValuesParams{
		Keys:           keys,
		OrganizationID: int32(scope.OrganizationID),
		EventID:        int32(scope.EventID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.CKey] = row.CValue
	}
	return values, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
