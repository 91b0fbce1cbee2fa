// Package event holds the event, ticket category and ticket records the wallet pipeline reads.
//
// The records are owned by the ticketing system; this service only reads them (see the database package for the
// postgres implementation).
package event

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when an event, category or ticket does not exist
var ErrNotFound = errors.New("not found")

// Scope identifies an event together with the organization that owns it.
// Configuration is resolved against this scope (event settings override organization settings).
type Scope struct {
	EventID        int
	OrganizationID int
	ShortName      string
}

// Event is a ticketed event
type Event struct {
	ID             int
	ShortName      string
	DisplayName    string
	Location       string
	Latitude       *string
	Longitude      *string
	TimeZone       string
	Begin          time.Time
	End            time.Time
	FileBlobID     string
	OrganizationID int

	// PrivateKey is the per-event secret used to sign ticket codes
	PrivateKey string
}

// Scope returns the configuration scope of the event
func (e Event) Scope() Scope {
	return Scope{EventID: e.ID, OrganizationID: e.OrganizationID, ShortName: e.ShortName}
}

// ZoneLocation returns the time zone of the event (UTC when unset).
func (e Event) ZoneLocation() (*time.Location, error) {
	if e.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q for event %d: %w", e.TimeZone, e.ID, err)
	}
	return loc, nil
}

// TicketCategory groups tickets of an event. A category may restrict the validity of its tickets to a
// window that differs from the event dates.
type TicketCategory struct {
	ID            int
	EventID       int
	Name          string
	ValidityStart *time.Time
	ValidityEnd   *time.Time
}

// ValidityWindow returns the window in which tickets of the category are valid, expressed in loc.
// The category window is used when set, otherwise the event begin and end.
func (c TicketCategory) ValidityWindow(e Event, loc *time.Location) (start, end time.Time) {
	start, end = e.Begin, e.End
	if c.ValidityStart != nil {
		start = *c.ValidityStart
	}
	if c.ValidityEnd != nil {
		end = *c.ValidityEnd
	}
	return start.In(loc), end.In(loc)
}

// Ticket is an issued ticket
type Ticket struct {
	ID           int
	UUID         string
	EventID      int
	CategoryID   int
	FullName     string
	Email        string
	UserLanguage string
}

// BelongsTo reports whether the ticket was issued for the event in scope
func (t Ticket) BelongsTo(scope Scope) bool {
	return t.EventID == scope.EventID
}
