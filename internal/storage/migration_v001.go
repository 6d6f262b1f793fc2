package storage

// cyclesV001 creates the cycles table. Statements use IF NOT EXISTS so a
// partially migrated database can be re-run.
var cyclesV001 = []string{
	`CREATE TABLE IF NOT EXISTS cycles (
		id               TEXT PRIMARY KEY,
		ts               DATETIME NOT NULL,
		duration_ms      INTEGER NOT NULL DEFAULT 0,
		has_threat       BOOLEAN NOT NULL DEFAULT 0,
		threat_level     REAL NOT NULL DEFAULT 0,
		band             TEXT NOT NULL DEFAULT '',
		news_count       INTEGER NOT NULL DEFAULT 0,
		chatter_count    INTEGER NOT NULL DEFAULT 0,
		summary_events   INTEGER NOT NULL DEFAULT 0,
		avg_threat_score REAL NOT NULL DEFAULT 0,
		casualty_events  INTEGER NOT NULL DEFAULT 0,
		failed           TEXT NOT NULL DEFAULT '',
		created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cycles_ts     ON cycles(ts)`,
	`CREATE INDEX IF NOT EXISTS idx_cycles_band   ON cycles(band)`,
	`CREATE INDEX IF NOT EXISTS idx_cycles_failed ON cycles(failed)`,
}
