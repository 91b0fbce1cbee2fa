package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getEventByID = `-- name: GetEventByID :one
SELECT id, short_name, display_name, location, latitude, longitude, time_zone, start_ts, end_ts, file_blob_id, org_id, private_key
FROM event
WHERE id = $1
`

func (q *Queries) GetEventByID(ctx context.Context, id int32) (Event, error) {
	row := q.db.QueryRow(ctx, getEventByID, id)
	var i Event
	err := row.Scan(
		&i.ID,
		&i.ShortName,
		&i.DisplayName,
		&i.Location,
		&i.Latitude,
		&i.Longitude,
		&i.TimeZone,
		&i.StartTs,
		&i.EndTs,
		&i.FileBlobID,
		&i.OrgID,
		&i.PrivateKey,
	)
	return i, err
}

const getEventScopeByShortName = `-- name: GetEventScopeByShortName :one
SELECT id, org_id, short_name
FROM event
WHERE short_name = $1
`

type GetEventScopeByShortNameRow struct {
	ID        int32  `json:"id"`
	OrgID     int32  `json:"org_id"`
	ShortName string `json:"short_name"`
}

func (q *Queries) GetEventScopeByShortName(ctx context.Context, shortName string) (GetEventScopeByShortNameRow, error) {
	row := q.db.QueryRow(ctx, getEventScopeByShortName, shortName)
	var i GetEventScopeByShortNameRow
	err := row.Scan(&i.ID, &i.OrgID, &i.ShortName)
	return i, err
}

const getTicketCategoryByID = `-- name: GetTicketCategoryByID :one
SELECT id, event_id, name, ticket_validity_start, ticket_validity_end
FROM ticket_category
WHERE id = $1
`

func (q *Queries) GetTicketCategoryByID(ctx context.Context, id int32) (TicketCategory, error) {
	row := q.db.QueryRow(ctx, getTicketCategoryByID, id)
	var i TicketCategory
	err := row.Scan(
		&i.ID,
		&i.EventID,
		&i.Name,
		&i.TicketValidityStart,
		&i.TicketValidityEnd,
	)
	return i, err
}

const getTicketByUUID = `-- name: GetTicketByUUID :one
SELECT id, uuid, event_id, category_id, full_name, email_address, user_language
FROM ticket
WHERE uuid = $1
`

func (q *Queries) GetTicketByUUID(ctx context.Context, uuid string) (Ticket, error) {
	row := q.db.QueryRow(ctx, getTicketByUUID, uuid)
	var i Ticket
	err := row.Scan(
		&i.ID,
		&i.Uuid,
		&i.EventID,
		&i.CategoryID,
		&i.FullName,
		&i.EmailAddress,
		&i.UserLanguage,
	)
	return i, err
}

const getEventDescription = `-- name: GetEventDescription :one
SELECT description
FROM event_description
WHERE event_id = $1 AND locale = $2 AND description_type = $3
`

type GetEventDescriptionParams struct {
	EventID         int32  `json:"event_id"`
	Locale          string `json:"locale"`
	DescriptionType string `json:"description_type"`
}

func (q *Queries) GetEventDescription(ctx context.Context, arg GetEventDescriptionParams) (string, error) {
	row := q.db.QueryRow(ctx, getEventDescription, arg.EventID, arg.Locale, arg.DescriptionType)
	var description string
	err := row.Scan(&description)
	return description, err
}

const createOrganization = `-- name: CreateOrganization :one
INSERT INTO organization (name)
VALUES ($1)
RETURNING id, name
`

func (q *Queries) CreateOrganization(ctx context.Context, name string) (Organization, error) {
	row := q.db.QueryRow(ctx, createOrganization, name)
	var i Organization
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const createEvent = `-- name: CreateEvent :one
INSERT INTO event (short_name, display_name, location, latitude, longitude, time_zone, start_ts, end_ts, file_blob_id, org_id, private_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id
`

type CreateEventParams struct {
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

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int32, error) {
	row := q.db.QueryRow(ctx, createEvent,
		arg.ShortName,
		arg.DisplayName,
		arg.Location,
		arg.Latitude,
		arg.Longitude,
		arg.TimeZone,
		arg.StartTs,
		arg.EndTs,
		arg.FileBlobID,
		arg.OrgID,
		arg.PrivateKey,
	)
	var id int32
	err := row.Scan(&id)
	return id, err
}

const createTicketCategory = `-- name: CreateTicketCategory :one
INSERT INTO ticket_category (event_id, name, ticket_validity_start, ticket_validity_end)
VALUES ($1, $2, $3, $4)
RETURNING id
`

type CreateTicketCategoryParams struct {
	EventID             int32              `json:"event_id"`
	Name                string             `json:"name"`
	TicketValidityStart pgtype.Timestamptz `json:"ticket_validity_start"`
	TicketValidityEnd   pgtype.Timestamptz `json:"ticket_validity_end"`
}

func (q *Queries) CreateTicketCategory(ctx context.Context, arg CreateTicketCategoryParams) (int32, error) {
	row := q.db.QueryRow(ctx, createTicketCategory, arg.EventID, arg.Name, arg.TicketValidityStart, arg.TicketValidityEnd)
	var id int32
	err := row.Scan(&id)
	return id, err
}

const createTicket = `-- name: CreateTicket :one
INSERT INTO ticket (uuid, event_id, category_id, full_name, email_address, user_language)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`

type CreateTicketParams struct {
	Uuid         string `json:"uuid"`
	EventID      int32  `json:"event_id"`
	CategoryID   int32  `json:"category_id"`
	FullName     string `json:"full_name"`
	EmailAddress string `json:"email_address"`
	UserLanguage string `json:"user_language"`
}

func (q *Queries) CreateTicket(ctx context.Context, arg CreateTicketParams) (int32, error) {
	row := q.db.QueryRow(ctx, createTicket,
		arg.Uuid,
		arg.EventID,
		arg.CategoryID,
		arg.FullName,
		arg.EmailAddress,
		arg.UserLanguage,
	)
	var id int32
	err := row.Scan(&id)
	return id, err
}

const upsertEventDescription = `-- name: UpsertEventDescription :exec
INSERT INTO event_description (event_id, locale, description_type, description)
VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id, locale, description_type) DO UPDATE SET description = EXCLUDED.description
`

type UpsertEventDescriptionParams struct {
	EventID         int32  `json:"event_id"`
	Locale          string `json:"locale"`
	DescriptionType string `json:"description_type"`
	Description     string `json:"description"`
}

func (q *Queries) UpsertEventDescription(ctx context.Context, arg UpsertEventDescriptionParams) error {
	_, err := q.db.Exec(ctx, upsertEventDescription, arg.EventID, arg.Locale, arg.DescriptionType, arg.Description)
	return err
}
