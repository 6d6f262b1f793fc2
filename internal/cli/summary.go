package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/render"
	"github.com/runnerr0/quix/internal/view"
)

// Execute implements the go-flags Commander interface for SummaryCommand.
func (c *SummaryCommand) Execute(args []string) error {
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithSource(e, e.client)
}

func (c *SummaryCommand) executeWithSource(e *env, src dashboard.Source) error {
	s, err := src.Summary(context.Background())
	if err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}

	vs := view.NewViewState(view.TabNews)
	vs.Expanded = c.Expanded
	page := view.BuildPage(view.Data{Summary: s}, vs, time.Now(), e.viewOptions())

	if wantJSON(c.globals) {
		return printJSON(page.Summary)
	}
	fmt.Println(render.New(os.Stdout).Summary(page.Summary))
	return nil
}
