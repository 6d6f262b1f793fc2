package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run(ctx))

	for _, table := range []string{"cycles", "cycle_entities", "schema_migrations"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run(ctx))

	for _, idx := range []string{
		"idx_cycles_ts",
		"idx_cycles_band",
		"idx_cycles_failed",
		"idx_cycle_entities_name",
	} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	require.NoError(t, runner.Run(ctx))
	require.NoError(t, runner.Run(ctx))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	v, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestMigrationRunner_VersionOnFreshDB(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at DATETIME)`)
	require.NoError(t, err)

	v, err := NewMigrationRunner(db).Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run(ctx))

	rows, err := db.Query("SELECT version, name FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var version int
		var name string
		require.NoError(t, rows.Scan(&version, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"cycles", "cycle_entities"}, names)
}

func TestMigrationRunner_ForeignKeyEnforcement(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run(ctx))

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	_, err := db.Exec("INSERT INTO cycle_entities (cycle_id, position, name) VALUES ('missing', 0, 'x')")
	assert.Error(t, err, "entities must reference an existing cycle")
}

func TestMigrationRunner_WALMode(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run(ctx))

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	// In-memory databases report "memory" even after the WAL pragma.
	assert.Contains(t, []string{"wal", "memory"}, journalMode)
}

func TestMigrationRunner_ResumesPartialArchive(t *testing.T) {
	db := openTestDB(t)
	runner := &MigrationRunner{db: db, steps: archiveSchema[:1]}
	require.NoError(t, runner.Run(ctx))

	v, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	full := NewMigrationRunner(db)
	require.NoError(t, full.Run(ctx))
	v, err = full.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, full.Latest(), v)
}

func TestMigrationRunner_RefusesNewerArchive(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(ctx))

	_, err := db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, 'future')", runner.Latest()+1)
	require.NoError(t, err)

	err = runner.Run(ctx)
	require.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestMigrationRunner_FailedStepIsNotRecorded(t *testing.T) {
	db := openTestDB(t)
	runner := &MigrationRunner{db: db, steps: []schemaStep{
		{version: 1, name: "broken", stmts: []string{"CREATE TABLE ok (id INTEGER)", "NOT SQL"}},
	}}
	require.Error(t, runner.Run(ctx))

	v, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'ok'").Scan(&n))
	assert.Equal(t, 0, n, "the step's statements roll back with it")
}
