package wallet

// pass.go builds the pass class and pass object of a ticket.
//
// The bodies are rendered in the provider's eventTicketClass / eventTicketObject format and canonicalized (RFC 8785)
// so the same inputs always give byte-identical requests.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/information-sharing-networks/walletpass/internal/crypto"
	"github.com/information-sharing-networks/walletpass/internal/event"
)

// ResourceKind is the provider collection a resource belongs to
type ResourceKind string

const (
	KindClass  ResourceKind = "eventTicketClass"
	KindObject ResourceKind = "eventTicketObject"
)

// Resource is a pass class or pass object that can be ensured on the wallet provider
type Resource interface {
	Kind() ResourceKind
	ResourceID() string
	Body() ([]byte, error)
}

const defaultLanguage = "en"

// ClassID returns the id of the pass class shared by all tickets of a category
func ClassID(issuerID string, profile Profile, categoryID int) string {
	return fmt.Sprintf("%s.%s-class-%d", issuerID, profile.Prefix(), categoryID)
}

// ObjectID returns the id of the pass object of a ticket
func ObjectID(issuerID string, profile Profile, ticketUUID string) string {
	return fmt.Sprintf("%s.%s-object-%s", issuerID, profile.Prefix(), ticketUUID)
}

// GeoPoint is the venue location shown on the pass
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// ParseGeoPoint returns the venue location of an event.
// The point is nil unless both coordinates are set. A set coordinate that is not a finite number is an error.
func ParseGeoPoint(latitude, longitude *string) (*GeoPoint, error) {
	if latitude == nil || longitude == nil {
		return nil, nil
	}

	lat, err := parseCoordinate("latitude", *latitude)
	if err != nil {
		return nil, err
	}
	long, err := parseCoordinate("longitude", *longitude)
	if err != nil {
		return nil, err
	}

	return &GeoPoint{Latitude: lat, Longitude: long}, nil
}

func parseCoordinate(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, WrapValidationError(err, fmt.Sprintf("malformed %s %q", name, value))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, NewValidationError(fmt.Sprintf("%s %q is not a finite number", name, value))
	}
	return f, nil
}

// PassClass is the template of the passes of one ticket category
type PassClass struct {
	ID         string
	GroupingID string
	IssuerName string
	LogoURI    string

	// Title is the event name shown on the pass
	Title       string
	Description string
	Venue       string
	Location    *GeoPoint
	TicketType  string
	Start       time.Time
	End         time.Time
	Language    string
}

// PassObject is the pass of one ticket
type PassObject struct {
	ID               string
	ClassID          string
	TicketHolderName string
	TicketNumber     string
	Barcode          string
}

// PassBuilder derives the pass class and pass object of tickets for one issuer and profile
type PassBuilder struct {
	IssuerID string
	Profile  Profile
	BaseURL  string
}

// Class builds the pass class of category.
//
// description is the event description in the ticket holder's language (may be empty).
// The validity window is the category validity when set, otherwise the event dates, in the event time zone.
func (b PassBuilder) Class(ev event.Event, category event.TicketCategory, language, description string) (PassClass, error) {
	loc, err := ev.ZoneLocation()
	if err != nil {
		return PassClass{}, WrapValidationError(err, "cannot build pass class")
	}

	location, err := ParseGeoPoint(ev.Latitude, ev.Longitude)
	if err != nil {
		return PassClass{}, err
	}

	start, end := category.ValidityWindow(ev, loc)

	title := strings.TrimSpace(description)
	if title == "" {
		title = ev.DisplayName
	}
	if language == "" {
		language = defaultLanguage
	}

	return PassClass{
		ID:          ClassID(b.IssuerID, b.Profile, category.ID),
		GroupingID:  strconv.Itoa(ev.ID),
		IssuerName:  ev.DisplayName,
		LogoURI:     b.BaseURL + "/file/" + ev.FileBlobID,
		Title:       title,
		Description: ev.DisplayName,
		Venue:       ev.Location,
		Location:    location,
		TicketType:  category.Name,
		Start:       start,
		End:         end,
		Language:    language,
	}, nil
}

// Object builds the pass object of ticket. barcode is embedded as is.
func (b PassBuilder) Object(class PassClass, ticket event.Ticket, barcode string) PassObject {
	return PassObject{
		ID:               ObjectID(b.IssuerID, b.Profile, ticket.UUID),
		ClassID:          class.ID,
		TicketHolderName: ticket.FullName,
		TicketNumber:     ticket.UUID,
		Barcode:          barcode,
	}
}

// provider wire format
type localizedString struct {
	DefaultValue translatedString `json:"defaultValue"`
}

type translatedString struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

func localized(language, value string) *localizedString {
	return &localizedString{DefaultValue: translatedString{Language: language, Value: value}}
}

type imageURI struct {
	URI string `json:"uri"`
}

type image struct {
	SourceURI imageURI `json:"sourceUri"`
}

type eventVenue struct {
	Name *localizedString `json:"name,omitempty"`
}

type eventDateTime struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type latLongPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type textModuleData struct {
	ID     string `json:"id"`
	Header string `json:"header"`
	Body   string `json:"body"`
}

type eventTicketClass struct {
	ID              string           `json:"id"`
	IssuerName      string           `json:"issuerName"`
	ReviewStatus    string           `json:"reviewStatus"`
	EventID         string           `json:"eventId"`
	EventName       *localizedString `json:"eventName"`
	Logo            *image           `json:"logo,omitempty"`
	Venue           *eventVenue      `json:"venue,omitempty"`
	DateTime        eventDateTime    `json:"dateTime"`
	Locations       []latLongPoint   `json:"locations,omitempty"`
	TextModulesData []textModuleData `json:"textModulesData,omitempty"`
}

type barcode struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type eventTicketObject struct {
	ID               string  `json:"id"`
	ClassID          string  `json:"classId"`
	State            string  `json:"state"`
	TicketHolderName string  `json:"ticketHolderName"`
	TicketNumber     string  `json:"ticketNumber"`
	Barcode          barcode `json:"barcode"`
}

func (c PassClass) Kind() ResourceKind { return KindClass }
func (c PassClass) ResourceID() string { return c.ID }

// Body returns the canonical eventTicketClass JSON of the class
func (c PassClass) Body() ([]byte, error) {
	body := eventTicketClass{
		ID:           c.ID,
		IssuerName:   c.IssuerName,
		ReviewStatus: "UNDER_REVIEW",
		EventID:      c.GroupingID,
		EventName:    localized(c.Language, c.Title),
		DateTime: eventDateTime{
			Start: c.Start.Format(time.RFC3339),
			End:   c.End.Format(time.RFC3339),
		},
	}
	if c.LogoURI != "" {
		body.Logo = &image{SourceURI: imageURI{URI: c.LogoURI}}
	}
	if c.Venue != "" {
		body.Venue = &eventVenue{Name: localized(c.Language, c.Venue)}
	}
	if c.Location != nil {
		body.Locations = []latLongPoint{{Latitude: c.Location.Latitude, Longitude: c.Location.Longitude}}
	}
	if c.Description != "" {
		body.TextModulesData = append(body.TextModulesData, textModuleData{ID: "description", Header: "Event", Body: c.Description})
	}
	if c.TicketType != "" {
		body.TextModulesData = append(body.TextModulesData, textModuleData{ID: "ticket_type", Header: "Ticket type", Body: c.TicketType})
	}

	data, err := crypto.MarshalCanonical(body)
	if err != nil {
		return nil, WrapInternalError(err, "failed to encode pass class")
	}
	return data, nil
}

func (o PassObject) Kind() ResourceKind { return KindObject }
func (o PassObject) ResourceID() string { return o.ID }

// Body returns the canonical eventTicketObject JSON of the object
func (o PassObject) Body() ([]byte, error) {
	data, err := crypto.MarshalCanonical(eventTicketObject{
		ID:               o.ID,
		ClassID:          o.ClassID,
		State:            "ACTIVE",
		TicketHolderName: o.TicketHolderName,
		TicketNumber:     o.TicketNumber,
		Barcode:          barcode{Type: "QR_CODE", Value: o.Barcode},
	})
	if err != nil {
		return nil, WrapInternalError(err, "failed to encode pass object")
	}
	return data, nil
}
