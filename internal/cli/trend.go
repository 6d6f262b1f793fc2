package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/render"
	"github.com/runnerr0/quix/internal/view"
)

// trendJSON is the JSON output structure for the trend command.
type trendJSON struct {
	Policy   view.SameDayPolicy `json:"policy"`
	Current  *view.ThreatGauge  `json:"current,omitempty"`
	Points   []view.ChartPoint  `json:"points"`
	Entities []api.EntityCount  `json:"entities"`
}

// Execute implements the go-flags Commander interface for TrendCommand.
func (c *TrendCommand) Execute(args []string) error {
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithSource(e, e.client)
}

func (c *TrendCommand) executeWithSource(e *env, src dashboard.Source) error {
	opts := e.viewOptions()
	switch c.Policy {
	case "":
	case string(view.SameDayLast), string(view.SameDayAggregate):
		opts.Policy = view.SameDayPolicy(c.Policy)
	default:
		return fmt.Errorf("unknown policy %q (use last or aggregate)", c.Policy)
	}

	ctx := context.Background()
	snap, err := src.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}
	// Annotations are optional; the trend is still worth printing without them.
	casualties, err := src.ActualEvents(ctx)
	if err != nil {
		e.logger.Warn("fetch failed", "endpoint", dashboard.SlotActualEvents, "err", err)
	}

	page := view.BuildPage(view.Data{Snapshot: snap, Casualties: casualties}, view.NewViewState(view.TabNews), time.Now(), opts)

	if wantJSON(c.globals) {
		return printJSON(trendJSON{
			Policy:   opts.Policy,
			Current:  page.Threat,
			Points:   page.Trend,
			Entities: page.Entities,
		})
	}
	fmt.Println(render.New(os.Stdout).Section(page, view.SectionCharts))
	return nil
}
