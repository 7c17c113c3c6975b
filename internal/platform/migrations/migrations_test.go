package migrations_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/shabelingo/shabelingo-api/internal/platform/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testSource = migrations.Source{
	Dialect: "sqlite3",
	Dir:     "migrations",
	FS: fstest.MapFS{
		"migrations/00001_widgets.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE widgets (id INTEGER PRIMARY KEY);

-- +goose Down
DROP TABLE widgets;
`)},
	},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func TestRunUpAndDown(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	require.NoError(t, migrations.Up(ctx, db, testSource, nil))
	assert.True(t, tableExists(t, db, "widgets"))
	assert.True(t, tableExists(t, db, migrations.TableName))

	// Applying again is a no-op
	require.NoError(t, migrations.Up(ctx, db, testSource, nil))

	require.NoError(t, migrations.Run(ctx, db, testSource, migrations.CommandVersion, nil))
	require.NoError(t, migrations.Run(ctx, db, testSource, migrations.CommandDown, nil))
	assert.False(t, tableExists(t, db, "widgets"))
}

func TestRunUnknownCommand(t *testing.T) {
	db := openDB(t)

	err := migrations.Run(context.Background(), db, testSource, "sideways", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}
