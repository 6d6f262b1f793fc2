package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/view"
)

// Execute implements the go-flags Commander interface for OpenCommand.
func (c *OpenCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for open command")
	}
	e, err := newEnv(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithSource(e, e.client)
}

// executeWithSource looks the event up in the current feed of src.
func (c *OpenCommand) executeWithSource(e *env, src dashboard.Source) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for open command")
	}
	limit := c.Limit
	if limit <= 0 {
		limit = e.cfg.API.EventLimit
	}

	events, err := src.Events(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	var event *api.Event
	for i := range events {
		if string(events[i].ID) == c.ID {
			event = &events[i]
			break
		}
	}
	if event == nil {
		return fmt.Errorf("event not found: %s (searched the latest %d news and chatter items)", c.ID, limit)
	}

	if c.globals != nil && c.globals.JSON {
		return c.outputJSON(event)
	}

	switch c.Format {
	case "url":
		if event.URL == "" {
			return fmt.Errorf("event %s has no url", c.ID)
		}
		fmt.Println(event.URL)
	case "raw":
		if event.Content == "" {
			fmt.Println("No content captured")
		} else {
			fmt.Println(event.Content)
		}
	case "json":
		return c.outputJSON(event)
	case "md":
		c.outputMarkdown(event)
	case "full", "":
		c.outputFull(event)
	default:
		return fmt.Errorf("unknown format %q (use full, md, json, raw or url)", c.Format)
	}
	return nil
}

func (c *OpenCommand) outputFull(event *api.Event) {
	band := view.BandFor(event.ThreatScore)
	fmt.Println(event.ID)
	fmt.Printf("Title:     %s\n", event.Title)
	fmt.Printf("Platform:  %s (%s)\n", event.Platform, view.TabFor(event.Platform))
	fmt.Printf("Source:    %s\n", event.Source)
	fmt.Printf("Time:      %s\n", event.Timestamp)
	fmt.Printf("Threat:    %.1f %s\n", event.ThreatScore, band.Label())
	if len(event.Entities) > 0 {
		fmt.Printf("Entities:  %s\n", strings.Join(event.Entities, ", "))
	}
	if event.URL != "" {
		fmt.Printf("URL:       %s\n", event.URL)
	}
	fmt.Println()
	fmt.Println("--- Content ---")
	if event.Content == "" {
		fmt.Println("No content captured")
	} else {
		fmt.Println(event.Content)
	}
}

func (c *OpenCommand) outputMarkdown(event *api.Event) {
	fmt.Println("---")
	fmt.Printf("id: %s\n", event.ID)
	fmt.Printf("title: %s\n", event.Title)
	fmt.Printf("platform: %s\n", event.Platform)
	fmt.Printf("source: %s\n", event.Source)
	fmt.Printf("timestamp: %s\n", event.Timestamp)
	fmt.Printf("threat_score: %.1f\n", event.ThreatScore)
	if event.URL != "" {
		fmt.Printf("url: %s\n", event.URL)
	}
	if len(event.Entities) > 0 {
		fmt.Printf("entities: [%s]\n", strings.Join(event.Entities, ", "))
	}
	fmt.Println("---")
	fmt.Println()
	fmt.Printf("# %s\n", event.Title)
	fmt.Println()
	if event.Content == "" {
		fmt.Println("No content captured")
	} else {
		fmt.Println(event.Content)
	}
}

func (c *OpenCommand) outputJSON(event *api.Event) error {
	out := struct {
		*api.Event
		Tab  view.Tab  `json:"tab"`
		Band view.Band `json:"band"`
	}{
		Event: event,
		Tab:   view.TabFor(event.Platform),
		Band:  view.BandFor(event.ThreatScore),
	}
	return printJSON(out)
}
