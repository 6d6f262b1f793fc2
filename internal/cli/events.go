package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/render"
	"github.com/runnerr0/quix/internal/view"
)

// eventsJSON is the JSON output structure for the events command.
type eventsJSON struct {
	Tab    view.Tab         `json:"tab"`
	Counts map[view.Tab]int `json:"counts"`
	Total  int              `json:"total"`
	Events []view.EventRow  `json:"events"`
}

// Execute implements the go-flags Commander interface for EventsCommand.
func (c *EventsCommand) Execute(args []string) error {
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithSource(e, e.client)
}

// executeWithSource lists events fetched from src.
func (c *EventsCommand) executeWithSource(e *env, src dashboard.Source) error {
	tab, err := e.tab(c.Tab)
	if err != nil {
		return err
	}
	limit := c.Limit
	if limit <= 0 {
		limit = e.cfg.API.EventLimit
	}

	events, err := src.Events(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	events = filterEvents(events, c.Query, c.MinScore)

	vs := view.NewViewState(tab)
	page := view.BuildPage(view.Data{Events: events}, vs, time.Now(), e.viewOptions())

	if wantJSON(c.globals) {
		return printJSON(eventsJSON{
			Tab:    page.Tab,
			Counts: page.TabCounts,
			Total:  len(page.Events),
			Events: page.Events,
		})
	}

	r := render.New(os.Stdout)
	fmt.Println(r.Tabs(page))
	fmt.Println()
	if len(page.Events) == 0 && c.Query != "" {
		fmt.Printf("No %s events match %q\n", tab, c.Query)
		return nil
	}
	fmt.Println(r.Events(page))
	return nil
}

// filterEvents keeps events containing query (case-insensitive) in their
// title, content, source or entities, with at least minScore.
func filterEvents(events []api.Event, query string, minScore float64) []api.Event {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" && minScore <= 0 {
		return events
	}
	out := make([]api.Event, 0, len(events))
	for _, ev := range events {
		if ev.ThreatScore < minScore {
			continue
		}
		if query != "" && !eventMatches(ev, query) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func eventMatches(ev api.Event, query string) bool {
	fields := append([]string{ev.Title, ev.Content, ev.Source}, ev.Entities...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
