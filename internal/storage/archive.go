package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/view"
)

// Open opens (creating if needed) the archive database at path, runs
// migrations, and returns a ready store and the underlying *sql.DB.
func Open(path string) (*SQLiteStore, *sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := NewMigrationRunner(db).Run(context.Background()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}
	return store, db, nil
}

// CycleFromResult summarises a refresh cycle for the archive.
func CycleFromResult(res dashboard.RefreshResult) Cycle {
	st := res.State
	c := Cycle{
		Timestamp:      st.LastUpdated,
		Duration:       res.Duration,
		CasualtyEvents: len(st.Casualties),
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = res.Started.Add(res.Duration)
	}
	if st.Snapshot != nil {
		c.HasThreat = true
		c.ThreatLevel = st.Snapshot.CurrentThreatLevel
		c.Band = string(view.BandFor(st.Snapshot.CurrentThreatLevel))
		for _, e := range st.Snapshot.TopEntities {
			c.TopEntities = append(c.TopEntities, EntityCount{Name: e.Name, Count: e.Count})
		}
	}
	counts := view.TabCounts(st.Events)
	c.NewsCount = counts[view.TabNews]
	c.ChatterCount = counts[view.TabChatter]
	if st.Summary != nil {
		c.SummaryEvents = st.Summary.EventCount
		c.AvgThreatScore = st.Summary.AvgThreatScore
	}
	for _, slot := range res.Failed() {
		c.Failed = append(c.Failed, string(slot))
	}
	return c
}

// Attach records every applied refresh cycle of ctrl. Write failures are
// logged and never affect the dashboard.
func Attach(ctrl *dashboard.Controller, store Store, logger *slog.Logger) {
	ctrl.OnRefresh(func(res dashboard.RefreshResult) {
		if !res.Applied {
			return
		}
		c := CycleFromResult(res)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.RecordCycle(ctx, &c); err != nil {
			logger.Warn("archive cycle failed", "err", err)
			return
		}
		logger.Debug("cycle archived", "id", c.ID, "failed", len(c.Failed))
	})
}
