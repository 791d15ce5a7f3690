package database

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// goose entry points are variables so tests can run without a live database.
var (
	gooseUpContext   = goose.UpContext
	gooseDownContext = goose.DownContext
)

// Migrate applies every pending migration found in fsys (embedded SQL files at its root).
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	if err := setupGoose(fsys); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// MigrateDown rolls back the most recently applied migration.
func MigrateDown(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	if err := setupGoose(fsys); err != nil {
		return err
	}
	return gooseDownContext(ctx, db, ".")
}

func setupGoose(fsys fs.FS) error {
	goose.SetBaseFS(fsys)
	return goose.SetDialect("postgres")
}
