package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/render"
	"github.com/runnerr0/quix/internal/view"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version    string    `json:"version"`
	API        string    `json:"api"`
	DurationMS int64     `json:"duration_ms"`
	Failed     []string  `json:"failed"`
	Page       view.Page `json:"page"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	ctrl := e.controller()
	defer ctrl.Close()

	closeArchive, err := e.attachArchive(ctrl)
	if err != nil {
		e.logger.Warn("archive unavailable", "err", err)
	} else {
		defer closeArchive()
	}

	return c.executeWithController(e, ctrl)
}

// executeWithController runs one refresh cycle on ctrl and prints the result.
func (c *StatusCommand) executeWithController(e *env, ctrl *dashboard.Controller) error {
	tab, err := e.tab(c.Tab)
	if err != nil {
		return err
	}

	res := ctrl.Refresh(context.Background())
	page := view.BuildPage(res.State.Data(), view.NewViewState(tab), time.Now(), e.viewOptions())

	failed := failedSlots(res)

	if wantJSON(c.globals) {
		return printJSON(statusJSON{
			Version:    c.version,
			API:        e.client.BaseURL(),
			DurationMS: res.Duration.Milliseconds(),
			Failed:     failed,
			Page:       page,
		})
	}

	printDashboard(page, failed)
	return nil
}

// printDashboard prints every section except the event list.
func printDashboard(page view.Page, failed []string) {
	r := render.New(os.Stdout)
	fmt.Println(r.Header(page))
	for _, s := range []view.Section{view.SectionThreat, view.SectionSummary, view.SectionCharts} {
		fmt.Println(r.Section(page, s))
		fmt.Println()
	}
	fmt.Println(r.Tabs(page))
	if len(failed) > 0 {
		fmt.Printf("\nUnavailable: %s (showing what was fetched)\n", strings.Join(failed, ", "))
	}
}

func failedSlots(res dashboard.RefreshResult) []string {
	failed := make([]string, 0, len(res.Errors))
	for _, s := range res.Failed() {
		failed = append(failed, string(s))
	}
	return failed
}
