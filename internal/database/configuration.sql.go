package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getConfigurationValues = `-- name: GetConfigurationValues :many
SELECT DISTINCT ON (c_key) c_key, c_value
FROM configuration
WHERE c_key = ANY($1::text[])
  AND (
        (organization_id IS NULL AND event_id IS NULL)
     OR (organization_id = $2::integer AND event_id IS NULL)
     OR (organization_id = $2::integer AND event_id = $3::integer)
  )
ORDER BY c_key,
         CASE
             WHEN event_id IS NOT NULL THEN 0
             WHEN organization_id IS NOT NULL THEN 1
             ELSE 2
         END
`

type GetConfigurationValuesParams struct {
	Keys           []string `json:"keys"`
	OrganizationID int32    `json:"organization_id"`
	EventID        int32    `json:"event_id"`
}

type GetConfigurationValuesRow struct {
	CKey   string `json:"c_key"`
	CValue string `json:"c_value"`
}

// the most specific value wins: event, then organization, then system
func (q *Queries) GetConfigurationValues(ctx context.Context, arg GetConfigurationValuesParams) ([]GetConfigurationValuesRow, error) {
	rows, err := q.db.Query(ctx, getConfigurationValues, arg.Keys, arg.OrganizationID, arg.EventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetConfigurationValuesRow
	for rows.Next() {
		var i GetConfigurationValuesRow
		if err := rows.Scan(&i.CKey, &i.CValue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setConfiguration = `-- name: SetConfiguration :exec
INSERT INTO configuration (c_key, c_value, organization_id, event_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (c_key, COALESCE(organization_id, -1), COALESCE(event_id, -1)) DO UPDATE SET c_value = EXCLUDED.c_value
`

type SetConfigurationParams struct {
	CKey           string      `json:"c_key"`
	CValue         string      `json:"c_value"`
	OrganizationID pgtype.Int4 `json:"organization_id"`
	EventID        pgtype.Int4 `json:"event_id"`
}

func (q *Queries) SetConfiguration(ctx context.Context, arg SetConfigurationParams) error {
	_, err := q.db.Exec(ctx, setConfiguration, arg.CKey, arg.CValue, arg.OrganizationID, arg.EventID)
	return err
}
