package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const schemaDir = "schema"

// Migrate runs a goose command (up, down, status, version, ...) against the embedded schema
func Migrate(ctx context.Context, pool *pgxpool.Pool, command string, args ...string) error {
	// goose works with database/sql
	var db *sql.DB = stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(schemaFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, schemaDir, args...); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}
	return nil
}
