package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-spots/internal/migrations"
)

func TestMigrate_RunsUpFromRoot(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil, migrations.Migrations))
	require.Equal(t, ".", gotDir)
}

func TestMigrate_PropagatesError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	require.EqualError(t, Migrate(context.Background(), nil, migrations.Migrations), "boom")
}

func TestMigrateDown_RollsBackOneStep(t *testing.T) {
	orig := gooseDownContext
	t.Cleanup(func() { gooseDownContext = orig })

	calls := 0
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		calls++
		return nil
	}

	require.NoError(t, MigrateDown(context.Background(), nil, migrations.Migrations))
	require.Equal(t, 1, calls)
}

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	entries, err := migrations.Migrations.ReadDir(".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"00001_create_users.sql", "00002_create_spots.sql"}, names)
}

func TestCreateSpotsMigration_CascadesUserSpots(t *testing.T) {
	body, err := migrations.Migrations.ReadFile("00002_create_spots.sql")
	require.NoError(t, err)

	for _, parent := range []string{"users", "spots"} {
		fk := regexp.MustCompile(`(?i)REFERENCES\s+` + parent + `\s*\(\s*id\s*\)\s+ON DELETE CASCADE`)
		require.True(t, fk.Match(body), "user_spots -> %s must cascade on delete", parent)
	}
}
