package storage

// cycleEntitiesV002 adds the top entities seen by each cycle.
var cycleEntitiesV002 = []string{
	`CREATE TABLE IF NOT EXISTS cycle_entities (
		cycle_id TEXT NOT NULL REFERENCES cycles(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name     TEXT NOT NULL,
		count    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (cycle_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cycle_entities_name ON cycle_entities(name)`,
}
