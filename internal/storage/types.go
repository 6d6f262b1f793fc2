package storage

import "time"

// Cycle is one archived refresh cycle.
type Cycle struct {
	ID        string
	Timestamp time.Time
	Duration  time.Duration

	// HasThreat is false when the dashboard slot was still empty.
	HasThreat   bool
	ThreatLevel float64
	Band        string

	NewsCount      int
	ChatterCount   int
	SummaryEvents  int
	AvgThreatScore float64
	CasualtyEvents int

	// Failed lists the slots whose fetch failed during this cycle.
	Failed      []string
	TopEntities []EntityCount
}

// EntityCount pairs an entity with its frequency at the time of a cycle.
type EntityCount struct {
	Name  string
	Count int
}

// CycleQuery filters archived cycles.
type CycleQuery struct {
	Since      time.Time
	Until      time.Time
	FailedOnly bool
	Limit      int
	Offset     int
}

// Stats holds aggregate statistics about the archive.
type Stats struct {
	TotalCycles       int64
	FailedCycles      int64
	OldestCycle       time.Time
	NewestCycle       time.Time
	MaxThreat         float64
	AvgThreat         float64
	DatabaseSizeBytes int64
	Bands             []BandCount
}

// BandCount pairs a threat band with the number of cycles that reported it.
type BandCount struct {
	Band  string
	Count int64
}
