package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/quix/internal/storage"
)

// historyJSON is the JSON output structure for the history command.
type historyJSON struct {
	Total  int64       `json:"total_cycles"`
	Size   int64       `json:"database_size_bytes"`
	Cycles []cycleJSON `json:"cycles"`
	Bands  []bandJSON  `json:"bands"`
}

type cycleJSON struct {
	ID             string   `json:"id"`
	Timestamp      string   `json:"timestamp"`
	DurationMS     int64    `json:"duration_ms"`
	ThreatLevel    *float64 `json:"threat_level"`
	Band           string   `json:"band,omitempty"`
	News           int      `json:"news"`
	Chatter        int      `json:"chatter"`
	SummaryEvents  int      `json:"summary_events"`
	AvgThreatScore float64  `json:"avg_threat_score"`
	CasualtyEvents int      `json:"casualty_events"`
	Failed         []string `json:"failed"`
}

type bandJSON struct {
	Band  string `json:"band"`
	Count int64  `json:"count"`
}

// setStore allows tests to inject an archive.
func (c *HistoryCommand) setStore(s *storage.SQLiteStore) {
	c.store = s
}

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	q := storage.CycleQuery{
		FailedOnly: c.Failed,
		Limit:      c.Limit,
		Offset:     c.Offset,
	}
	if c.Since != "" {
		d, err := parseDuration(c.Since)
		if err != nil {
			return err
		}
		q.Since = time.Now().Add(-d)
	}

	store, closeStore, err := openArchiveFor(c.globals, c.store)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	cycles, err := store.RecentCycles(ctx, q)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(toHistoryJSON(cycles, stats))
	}
	c.printHuman(cycles, stats)
	return nil
}

func toHistoryJSON(cycles []storage.Cycle, stats *storage.Stats) historyJSON {
	out := historyJSON{
		Total:  stats.TotalCycles,
		Size:   stats.DatabaseSizeBytes,
		Cycles: make([]cycleJSON, 0, len(cycles)),
		Bands:  make([]bandJSON, 0, len(stats.Bands)),
	}
	for _, cy := range cycles {
		cj := cycleJSON{
			ID:             cy.ID,
			Timestamp:      cy.Timestamp.UTC().Format(time.RFC3339),
			DurationMS:     cy.Duration.Milliseconds(),
			Band:           cy.Band,
			News:           cy.NewsCount,
			Chatter:        cy.ChatterCount,
			SummaryEvents:  cy.SummaryEvents,
			AvgThreatScore: cy.AvgThreatScore,
			CasualtyEvents: cy.CasualtyEvents,
			Failed:         cy.Failed,
		}
		if cy.HasThreat {
			level := cy.ThreatLevel
			cj.ThreatLevel = &level
		}
		if cj.Failed == nil {
			cj.Failed = []string{}
		}
		out.Cycles = append(out.Cycles, cj)
	}
	for _, b := range stats.Bands {
		out.Bands = append(out.Bands, bandJSON{Band: b.Band, Count: b.Count})
	}
	return out
}

func (c *HistoryCommand) printHuman(cycles []storage.Cycle, stats *storage.Stats) {
	fmt.Println("quix archive")
	fmt.Println("============")
	fmt.Printf("Cycles:    %s (%s failed)\n", formatNumber(stats.TotalCycles), formatNumber(stats.FailedCycles))
	fmt.Printf("Size:      %s\n", formatBytes(stats.DatabaseSizeBytes))
	if stats.TotalCycles > 0 {
		fmt.Printf("Range:     %s to %s\n",
			stats.OldestCycle.Local().Format("2006-01-02 15:04"),
			stats.NewestCycle.Local().Format("2006-01-02 15:04"))
		fmt.Printf("Threat:    max %.1f, avg %.1f\n", stats.MaxThreat, stats.AvgThreat)
	}
	fmt.Println()

	if len(cycles) == 0 {
		fmt.Println("No cycles recorded.")
		return
	}
	fmt.Printf("%-20s %-17s %7s %-14s %5s %8s %s\n", "ID", "TIME", "THREAT", "BAND", "NEWS", "CHATTER", "FAILED")
	for _, cy := range cycles {
		level := "-"
		if cy.HasThreat {
			level = fmt.Sprintf("%.1f", cy.ThreatLevel)
		}
		band := cy.Band
		if band == "" {
			band = "-"
		}
		failed := "-"
		if len(cy.Failed) > 0 {
			failed = strings.Join(cy.Failed, ",")
		}
		fmt.Printf("%-20s %-17s %7s %-14s %5d %8d %s\n",
			cy.ID, cy.Timestamp.Local().Format("2006-01-02 15:04"), level, band, cy.NewsCount, cy.ChatterCount, failed)
	}
}
