package database

import (
	"context"
)

const isDatabaseRunning = `-- name: IsDatabaseRunning :one
SELECT true AS running
`

func (q *Queries) IsDatabaseRunning(ctx context.Context) (bool, error) {
	row := q.db.QueryRow(ctx, isDatabaseRunning)
	var running bool
	err := row.Scan(&running)
	return running, err
}
