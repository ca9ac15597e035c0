package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}
