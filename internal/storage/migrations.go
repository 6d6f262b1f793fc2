package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrSchemaTooNew is returned when the archive was written by a newer quix
// than the one opening it.
var ErrSchemaTooNew = errors.New("archive schema is newer than this binary")

// schemaStep is one versioned change to the archive schema.
type schemaStep struct {
	version int
	name    string
	stmts   []string
}

// archiveSchema lists every step in version order. New steps go at the end.
var archiveSchema = []schemaStep{
	{version: 1, name: "cycles", stmts: cyclesV001},
	{version: 2, name: "cycle_entities", stmts: cycleEntitiesV002},
}

var connPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
}

const createSchemaMigrations = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// MigrationRunner brings an archive database up to the schema this binary
// writes.
type MigrationRunner struct {
	db    *sql.DB
	steps []schemaStep
}

func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db, steps: archiveSchema}
}

// Latest is the schema version a fully migrated archive reports.
func (r *MigrationRunner) Latest() int {
	if len(r.steps) == 0 {
		return 0
	}
	return r.steps[len(r.steps)-1].version
}

// Run applies every step above the recorded version. Each step commits
// together with its schema_migrations row, so an interrupted run resumes at
// the first missing step.
func (r *MigrationRunner) Run(ctx context.Context) error {
	for _, p := range connPragmas {
		if _, err := r.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := r.db.ExecContext(ctx, createSchemaMigrations); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := r.Version(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > r.Latest() {
		return fmt.Errorf("%w: archive is v%d, this binary writes v%d", ErrSchemaTooNew, current, r.Latest())
	}

	for _, step := range r.steps {
		if step.version <= current {
			continue
		}
		if err := r.apply(ctx, step); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", step.version, step.name, err)
		}
	}
	return nil
}

// Version returns the highest recorded step, or 0 on a fresh database.
func (r *MigrationRunner) Version(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, err
	}
	return int(v.Int64), nil
}

func (r *MigrationRunner) apply(ctx context.Context, step schemaStep) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range step.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		step.version, step.name,
	); err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return tx.Commit()
}
