package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Organization struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type Event struct {
	ID          int32              `json:"id"`
	ShortName   string             `json:"short_name"`
	DisplayName string             `json:"display_name"`
	Location    string             `json:"location"`
	Latitude    pgtype.Text        `json:"latitude"`
	Longitude   pgtype.Text        `json:"longitude"`
	TimeZone    string             `json:"time_zone"`
	StartTs     pgtype.Timestamptz `json:"start_ts"`
	EndTs       pgtype.Timestamptz `json:"end_ts"`
	FileBlobID  string             `json:"file_blob_id"`
	OrgID       int32              `json:"org_id"`
	PrivateKey  string             `json:"private_key"`
}

type TicketCategory struct {
	ID                  int32              `json:"id"`
	EventID             int32              `json:"event_id"`
	Name                string             `json:"name"`
	TicketValidityStart pgtype.Timestamptz `json:"ticket_validity_start"`
	TicketValidityEnd   pgtype.Timestamptz `json:"ticket_validity_end"`
}

type Ticket struct {
	ID           int32  `json:"id"`
	Uuid         string `json:"uuid"`
	EventID      int32  `json:"event_id"`
	CategoryID   int32  `json:"category_id"`
	FullName     string `json:"full_name"`
	EmailAddress string `json:"email_address"`
	UserLanguage string `json:"user_language"`
}

type EventDescription struct {
	EventID         int32  `json:"event_id"`
	Locale          string `json:"locale"`
	DescriptionType string `json:"description_type"`
	Description     string `json:"description"`
}

type Configuration struct {
	ID             int32       `json:"id"`
	CKey           string      `json:"c_key"`
	CValue         string      `json:"c_value"`
	OrganizationID pgtype.Int4 `json:"organization_id"`
	EventID        pgtype.Int4 `json:"event_id"`
}
