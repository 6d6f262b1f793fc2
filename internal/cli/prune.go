package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/quix/internal/storage"
)

// setStore allows tests to inject an archive.
func (c *PruneCommand) setStore(s *storage.SQLiteStore) {
	c.store = s
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	retention, err := parseDuration(c.OlderThan)
	if err != nil {
		return err
	}

	store, closeStore, err := openArchiveFor(c.globals, c.store)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	cutoff := time.Now().Add(-retention)

	if c.DryRun {
		n, err := store.CountBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("count cycles: %w", err)
		}
		if wantJSON(c.globals) {
			return printJSON(map[string]interface{}{
				"dry_run":     true,
				"would_prune": n,
				"cutoff":      cutoff.UTC().Format(time.RFC3339),
			})
		}
		fmt.Printf("Would prune %s cycles older than %s.\n", formatNumber(n), formatDurationHuman(retention))
		return nil
	}

	n, err := store.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	if wantJSON(c.globals) {
		return printJSON(map[string]interface{}{
			"pruned": n,
			"cutoff": cutoff.UTC().Format(time.RFC3339),
		})
	}
	fmt.Printf("Pruned %s cycles older than %s.\n", formatNumber(n), formatDurationHuman(retention))
	return nil
}
