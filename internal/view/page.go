package view

import (
	"fmt"
	"time"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/config"
)

// Empty-state copy shown when a slot has never been filled.
const (
	MsgInitializing  = "INITIALIZING QUIX INTELLIGENCE SYSTEM..."
	MsgNoSummary     = `No data available. Execute "COLLECT" to initialize intelligence gathering operations.`
	MsgNoTrend       = "No threat data available"
	MsgNoEntities    = "No entity data available"
	MsgNoEvents      = "NO ACTIVE INTELLIGENCE FEEDS"
	MsgNoEventsHint  = `Execute "COLLECT" to initialize data gathering operations`
	AssessmentWindow = "24-HOUR ASSESSMENT WINDOW"
	ScaleLabel       = "/ 100 SCALE"
)

// Data is the fetched state a page is built from.
type Data struct {
	Snapshot    *api.DashboardSnapshot
	Events      []api.Event
	Summary     *api.Summary
	Casualties  []api.CasualtyEvent
	Loading     bool
	LastUpdated time.Time
}

// Options carries the display configuration.
type Options struct {
	Zones    []config.TimeZone
	Policy   SameDayPolicy
	Location *time.Location // for event timestamps and last sync; nil is time.Local
}

// ThreatGauge is the current threat level card.
type ThreatGauge struct {
	Score   float64 `json:"score"`
	Display string  `json:"display"`
	Band    Band    `json:"band"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Scale   string  `json:"scale"`
	Window  string  `json:"window"`
}

// SummaryCard is the daily intelligence summary card.
type SummaryCard struct {
	Available      bool          `json:"available"`
	EventCount     int           `json:"event_count"`
	AvgThreatScore string        `json:"avg_threat_score"`
	KeyEntityCount int           `json:"key_entity_count"`
	KeyEntities    []string      `json:"key_entities"`
	Report         SummaryReport `json:"report"`
	Lines          []string      `json:"lines"`
	Expanded       bool          `json:"expanded"`
	HasMore        bool          `json:"has_more"`
	EmptyMessage   string        `json:"empty_message,omitempty"`
}

// EventRow is one entry of the event list.
type EventRow struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Platform    string   `json:"platform"`
	Source      string   `json:"source"`
	URL         string   `json:"url,omitempty"`
	When        string   `json:"when"`
	ThreatScore float64  `json:"threat_score"`
	Band        Band     `json:"band"`
	Entities    []string `json:"entities"`
}

// Page is everything a renderer needs for one frame.
type Page struct {
	Initializing  bool              `json:"initializing"`
	LastSync      string            `json:"last_sync"`
	LastUpdated   time.Time         `json:"last_updated"`
	Clocks        []ClockReading    `json:"clocks"`
	Threat        *ThreatGauge      `json:"threat,omitempty"`
	Summary       SummaryCard       `json:"summary"`
	Trend         []ChartPoint      `json:"trend"`
	TrendEmpty    string            `json:"trend_empty,omitempty"`
	Entities      []api.EntityCount `json:"entities"`
	EntitiesEmpty string            `json:"entities_empty,omitempty"`
	Tab           Tab               `json:"tab"`
	TabCounts     map[Tab]int       `json:"tab_counts"`
	Events        []EventRow        `json:"events"`
	EventsEmpty   string            `json:"events_empty,omitempty"`
	View          ViewState         `json:"view"`
}

// BuildPage derives a Page from the fetched data and the view state.
func BuildPage(d Data, vs ViewState, now time.Time, opts Options) Page {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	policy := opts.Policy
	if policy == "" {
		policy = SameDayLast
	}
	vs.LastUpdated = d.LastUpdated

	p := Page{
		Initializing: d.Loading && d.Snapshot == nil,
		LastUpdated:  d.LastUpdated,
		Tab:          vs.Tab,
		View:         vs,
		Trend:        []ChartPoint{},
		Entities:     []api.EntityCount{},
	}
	if !d.LastUpdated.IsZero() {
		p.LastSync = d.LastUpdated.In(loc).Format("15:04:05")
	}
	p.Clocks, _ = Clocks(now, opts.Zones)

	if d.Snapshot != nil {
		band := BandFor(d.Snapshot.CurrentThreatLevel)
		p.Threat = &ThreatGauge{
			Score:   d.Snapshot.CurrentThreatLevel,
			Display: fmt.Sprintf("%.1f", d.Snapshot.CurrentThreatLevel),
			Band:    band,
			Label:   band.Label(),
			Color:   band.Color(),
			Scale:   ScaleLabel,
			Window:  AssessmentWindow,
		}
		p.Trend = MergeTrend(d.Snapshot.ThreatTrend, d.Casualties, policy)
		if d.Snapshot.TopEntities != nil {
			p.Entities = d.Snapshot.TopEntities
		}
	}
	if len(p.Trend) == 0 {
		p.TrendEmpty = MsgNoTrend
	}
	if len(p.Entities) == 0 {
		p.EntitiesEmpty = MsgNoEntities
	}

	p.Summary = buildSummaryCard(d.Summary, vs.Expanded)

	p.TabCounts = TabCounts(d.Events)
	p.Events = make([]EventRow, 0, len(d.Events))
	for _, e := range FilterByTab(d.Events, vs.Tab) {
		p.Events = append(p.Events, eventRow(e, loc))
	}
	if len(p.Events) == 0 {
		p.EventsEmpty = MsgNoEvents
	}
	return p
}

func buildSummaryCard(s *api.Summary, expanded bool) SummaryCard {
	card := SummaryCard{Expanded: expanded, AvgThreatScore: "0.0", KeyEntities: []string{}}
	if s == nil {
		card.EmptyMessage = MsgNoSummary
		return card
	}
	card.EventCount = s.EventCount
	card.AvgThreatScore = fmt.Sprintf("%.1f", s.AvgThreatScore)
	if s.KeyEntities != nil {
		card.KeyEntities = s.KeyEntities
	}
	card.KeyEntityCount = len(card.KeyEntities)

	card.Report = ParseSummary(s.Summary)
	if card.Report.Empty() {
		card.EmptyMessage = MsgNoSummary
		return card
	}
	card.Available = true
	card.HasMore = card.Report.HasMore()
	if expanded {
		card.Lines = card.Report.Expanded()
	} else {
		card.Lines = card.Report.Collapsed()
	}
	return card
}

func eventRow(e api.Event, loc *time.Location) EventRow {
	when := e.Timestamp
	if t := e.Time(); !t.IsZero() {
		when = t.In(loc).Format("2006-01-02 15:04:05")
	}
	entities := e.Entities
	if entities == nil {
		entities = []string{}
	}
	return EventRow{
		ID:          string(e.ID),
		Title:       e.Title,
		Content:     e.Content,
		Platform:    string(e.Platform),
		Source:      e.Source,
		URL:         e.URL,
		When:        when,
		ThreatScore: e.ThreatScore,
		Band:        BandFor(e.ThreatScore),
		Entities:    entities,
	}
}
