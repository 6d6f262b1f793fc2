package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a cycle ID does not exist.
var ErrNotFound = errors.New("not found")

// Store is the refresh-cycle archive.
type Store interface {
	RecordCycle(ctx context.Context, c *Cycle) error
	GetCycle(ctx context.Context, id string) (*Cycle, error)
	RecentCycles(ctx context.Context, q CycleQuery) ([]Cycle, error)
	CountBefore(ctx context.Context, t time.Time) (int64, error)
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store on an already-opened, migrated database.
type SQLiteStore struct {
	db *sql.DB

	insertCycle  *sql.Stmt
	insertEntity *sql.Stmt
	getCycle     *sql.Stmt
	getEntities  *sql.Stmt
}

const cycleColumns = `id, ts, duration_ms, has_threat, threat_level, band,
	news_count, chatter_count, summary_events, avg_threat_score,
	casualty_events, failed`

// NewSQLiteStore prepares the store's statements.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertCycle, err = s.db.Prepare(`
		INSERT INTO cycles (` + cycleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertEntity, err = s.db.Prepare(`
		INSERT INTO cycle_entities (cycle_id, position, name, count)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getCycle, err = s.db.Prepare(`SELECT ` + cycleColumns + ` FROM cycles WHERE id = ?`)
	if err != nil {
		return err
	}

	s.getEntities, err = s.db.Prepare(`
		SELECT name, count FROM cycle_entities WHERE cycle_id = ? ORDER BY position
	`)
	return err
}

// generateID creates a cycle ID: CYC- + 8 random hex chars.
func generateID() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "CYC-" + hex.EncodeToString(b), nil
}

func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// tsLayout has a fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// RecordCycle inserts a cycle and its entities in one transaction. ID and
// Timestamp are filled in when empty.
func (s *SQLiteStore) RecordCycle(ctx context.Context, c *Cycle) error {
	if c.ID == "" {
		id, err := generateID()
		if err != nil {
			return fmt.Errorf("generate ID: %w", err)
		}
		c.ID = id
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.StmtContext(ctx, s.insertCycle).ExecContext(ctx,
		c.ID, formatTS(c.Timestamp), c.Duration.Milliseconds(),
		c.HasThreat, c.ThreatLevel, c.Band,
		c.NewsCount, c.ChatterCount, c.SummaryEvents, c.AvgThreatScore,
		c.CasualtyEvents, strings.Join(c.Failed, ","),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	insertEntity := tx.StmtContext(ctx, s.insertEntity)
	for i, e := range c.TopEntities {
		if _, err := insertEntity.ExecContext(ctx, c.ID, i, e.Name, e.Count); err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCycle(row rowScanner) (*Cycle, error) {
	var (
		c      Cycle
		tsStr  string
		durMS  int64
		failed string
	)
	if err := row.Scan(
		&c.ID, &tsStr, &durMS, &c.HasThreat, &c.ThreatLevel, &c.Band,
		&c.NewsCount, &c.ChatterCount, &c.SummaryEvents, &c.AvgThreatScore,
		&c.CasualtyEvents, &failed,
	); err != nil {
		return nil, err
	}
	c.Timestamp, _ = parseTimestamp(tsStr)
	c.Duration = time.Duration(durMS) * time.Millisecond
	if failed != "" {
		c.Failed = strings.Split(failed, ",")
	}
	return &c, nil
}

// GetCycle retrieves one cycle with its entities.
func (s *SQLiteStore) GetCycle(ctx context.Context, id string) (*Cycle, error) {
	c, err := scanCycle(s.getCycle.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cycle %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get cycle: %w", err)
	}

	rows, err := s.getEntities.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e EntityCount
		if err := rows.Scan(&e.Name, &e.Count); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		c.TopEntities = append(c.TopEntities, e)
	}
	return c, rows.Err()
}

// RecentCycles lists cycles newest first.
func (s *SQLiteStore) RecentCycles(ctx context.Context, q CycleQuery) ([]Cycle, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	var clauses []string
	var args []interface{}
	if !q.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, formatTS(q.Since))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "ts <= ?")
		args = append(args, formatTS(q.Until))
	}
	if q.FailedOnly {
		clauses = append(clauses, "failed != ''")
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	query := "SELECT " + cycleColumns + " FROM cycles" + where + " ORDER BY ts DESC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, *c)
	}
	return cycles, rows.Err()
}

// CountBefore reports how many cycles PruneBefore would delete.
func (s *SQLiteStore) CountBefore(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles WHERE ts < ?", formatTS(t)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cycles: %w", err)
	}
	return n, nil
}

// PruneBefore deletes cycles recorded before t. Entities cascade.
func (s *SQLiteStore) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cycles WHERE ts < ?", formatTS(t))
	if err != nil {
		return 0, fmt.Errorf("prune cycles: %w", err)
	}
	return res.RowsAffected()
}

// PurgeAll deletes every archived cycle.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM cycle_entities", "DELETE FROM cycles"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return nil
}

// GetStats returns aggregate statistics about the archive.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(failed != ''), 0) FROM cycles",
	).Scan(&stats.TotalCycles, &stats.FailedCycles)
	if err != nil {
		return nil, fmt.Errorf("count cycles: %w", err)
	}

	if stats.TotalCycles > 0 {
		var oldest, newest string
		var maxThreat, avgThreat sql.NullFloat64
		err = s.db.QueryRowContext(ctx, `
			SELECT MIN(ts), MAX(ts),
			       MAX(CASE WHEN has_threat THEN threat_level END),
			       AVG(CASE WHEN has_threat THEN threat_level END)
			FROM cycles
		`).Scan(&oldest, &newest, &maxThreat, &avgThreat)
		if err != nil {
			return nil, fmt.Errorf("cycle range: %w", err)
		}
		stats.OldestCycle, _ = parseTimestamp(oldest)
		stats.NewestCycle, _ = parseTimestamp(newest)
		stats.MaxThreat = maxThreat.Float64
		stats.AvgThreat = avgThreat.Float64
	}

	var pageCount, pageSize int64
	if s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount) == nil &&
		s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize) == nil {
		stats.DatabaseSizeBytes = pageCount * pageSize
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT band, COUNT(*) AS cnt FROM cycles
		WHERE band != '' GROUP BY band ORDER BY cnt DESC, band
	`)
	if err != nil {
		return nil, fmt.Errorf("band counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bc BandCount
		if err := rows.Scan(&bc.Band, &bc.Count); err != nil {
			return nil, err
		}
		stats.Bands = append(stats.Bands, bc)
	}
	return stats, rows.Err()
}

// Close releases the prepared statements. The *sql.DB is left open.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertCycle, s.insertEntity, s.getCycle, s.getEntities} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
