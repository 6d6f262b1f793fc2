// Package render draws a view.Page as styled terminal text.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runnerr0/quix/internal/view"
)

const (
	barWidth     = 30
	contentWidth = 160
)

// Renderer holds the styles for one output. Colour support is detected from
// the writer, so piped output is plain text.
type Renderer struct {
	width int

	title     lipgloss.Style
	label     lipgloss.Style
	dim       lipgloss.Style
	bold      lipgloss.Style
	tabActive lipgloss.Style
	tabIdle   lipgloss.Style
	menu      lipgloss.Style
	bands     map[view.Band]lipgloss.Style
}

// New creates a renderer for w.
func New(w io.Writer) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		width:     100,
		title:     lr.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("52")).Padding(0, 1),
		label:     lr.NewStyle().Bold(true).Foreground(lipgloss.Color("244")),
		dim:       lr.NewStyle().Foreground(lipgloss.Color("240")),
		bold:      lr.NewStyle().Bold(true),
		tabActive: lr.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("14")),
		tabIdle:   lr.NewStyle().Foreground(lipgloss.Color("244")),
		menu:      lr.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		bands: map[view.Band]lipgloss.Style{
			view.BandCritical:      lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
			view.BandCaution:       lr.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			view.BandInformational: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		},
	}
}

// SetWidth sets the terminal width used for the header rule.
func (r *Renderer) SetWidth(w int) {
	if w > 20 {
		r.width = w
	}
}

// Band colours text by threat band.
func (r *Renderer) Band(b view.Band, text string) string {
	if s, ok := r.bands[b]; ok {
		return s.Render(text)
	}
	return text
}

// Highlighted renders "**bold**" markup.
func (r *Renderer) Highlighted(text string) string {
	var sb strings.Builder
	for _, sp := range view.Highlight(text) {
		if sp.Bold {
			sb.WriteString(r.bold.Render(sp.Text))
		} else {
			sb.WriteString(sp.Text)
		}
	}
	return sb.String()
}

// Page renders every section from the focused one onwards, with the section
// menu on top when it is open.
func (r *Renderer) Page(p view.Page) string {
	parts := []string{r.Header(p)}
	if p.View.MenuOpen {
		parts = append(parts, r.Menu(p.View))
	}
	if p.Initializing {
		parts = append(parts, r.label.Render(view.MsgInitializing))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	started := false
	for _, s := range view.Sections() {
		if s == p.View.Focus || p.View.Focus == "" {
			started = true
		}
		if started {
			parts = append(parts, r.Section(p, s))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Section renders a single dashboard section.
func (r *Renderer) Section(p view.Page, s view.Section) string {
	switch s {
	case view.SectionThreat:
		return r.Threat(p)
	case view.SectionSummary:
		return r.Summary(p.Summary)
	case view.SectionCharts:
		return r.Trend(p.Trend, p.TrendEmpty) + "\n" + r.Entities(p)
	case view.SectionEvents:
		return r.Tabs(p) + "\n" + r.Events(p)
	}
	return ""
}

// Header is the title bar, last sync time and regional clocks.
func (r *Renderer) Header(p view.Page) string {
	sync := p.LastSync
	if sync == "" {
		sync = "--:--:--"
	}
	title := r.title.Render("QUIX THREAT MONITOR")
	var clocks []string
	for _, c := range p.Clocks {
		name := c.City
		if c.Flag != "" {
			name = c.Flag + " " + name
		}
		clocks = append(clocks, fmt.Sprintf("%s %s", name, r.bold.Render(c.Time)))
	}
	return title + "  " + r.dim.Render("LAST SYNC "+sync) + "\n" +
		strings.Join(clocks, r.dim.Render("  |  ")) + "\n" +
		r.dim.Render(strings.Repeat("─", r.width))
}

// Menu lists the navigation targets.
func (r *Renderer) Menu(vs view.ViewState) string {
	var lines []string
	for i, s := range view.Sections() {
		marker := "  "
		if s == vs.Focus {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%d %s", marker, i+1, strings.ToUpper(strings.ReplaceAll(string(s), "-", " "))))
	}
	return r.menu.Render(strings.Join(lines, "\n"))
}

// Threat is the current threat level gauge.
func (r *Renderer) Threat(p view.Page) string {
	head := r.label.Render("CURRENT THREAT LEVEL")
	if p.Threat == nil {
		return head + "\n" + r.dim.Render(view.MsgNoTrend)
	}
	g := p.Threat
	return head + "\n" +
		r.Band(g.Band, g.Display) + " " + r.dim.Render(g.Scale) + "  " + r.Band(g.Band, g.Label) + "\n" +
		r.Band(g.Band, bar(g.Score, 100, barWidth)) + "\n" +
		r.dim.Render(g.Window)
}

// Summary is the daily intelligence summary card.
func (r *Renderer) Summary(c view.SummaryCard) string {
	head := r.label.Render("DAILY INTELLIGENCE SUMMARY")
	if !c.Available {
		return head + "\n" + r.dim.Render(c.EmptyMessage)
	}
	lines := []string{
		head,
		fmt.Sprintf("Events %s   Avg threat %s   Key entities %s",
			r.bold.Render(fmt.Sprint(c.EventCount)),
			r.bold.Render(c.AvgThreatScore),
			r.bold.Render(fmt.Sprint(c.KeyEntityCount))),
	}
	if len(c.KeyEntities) > 0 {
		lines = append(lines, r.dim.Render(strings.Join(c.KeyEntities, ", ")))
	}
	lines = append(lines, "")
	for _, l := range c.Lines {
		lines = append(lines, r.Highlighted(l))
	}
	if c.HasMore {
		if c.Expanded {
			lines = append(lines, r.dim.Render("[e] show less"))
		} else {
			lines = append(lines, r.dim.Render("[e] show full report"))
		}
	}
	return strings.Join(lines, "\n")
}

// Trend is the threat trend with casualty annotations, oldest first.
func (r *Renderer) Trend(points []view.ChartPoint, empty string) string {
	head := r.label.Render("THREAT TREND")
	if len(points) == 0 {
		return head + "\n" + r.dim.Render(empty)
	}
	lines := []string{head}
	for _, pt := range points {
		band := view.BandFor(pt.ThreatScore)
		line := fmt.Sprintf("%-10s %s %5.1f", pt.Date, r.Band(band, bar(pt.ThreatScore, 100, barWidth)), pt.ThreatScore)
		if pt.HasActual() {
			detail := fmt.Sprintf("  actual %.1f", *pt.ActualScore)
			if pt.Casualties != nil {
				detail += fmt.Sprintf(", %d casualties", *pt.Casualties)
			}
			if pt.EventTitle != "" {
				detail += ": " + pt.EventTitle
			}
			line += r.bands[view.BandCritical].Render(detail)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Entities is the entity frequency bar chart.
func (r *Renderer) Entities(p view.Page) string {
	head := r.label.Render("TOP ENTITIES")
	if len(p.Entities) == 0 {
		return head + "\n" + r.dim.Render(p.EntitiesEmpty)
	}
	top := 0
	for _, e := range p.Entities {
		if e.Count > top {
			top = e.Count
		}
	}
	lines := []string{head}
	for _, e := range p.Entities {
		lines = append(lines, fmt.Sprintf("%-20s %s %d", truncate(e.Name, 20), bar(float64(e.Count), float64(top), barWidth), e.Count))
	}
	return strings.Join(lines, "\n")
}

// Tabs shows the two feeds with their counts.
func (r *Renderer) Tabs(p view.Page) string {
	tab := func(t view.Tab, name string) string {
		text := fmt.Sprintf("%s (%d)", name, p.TabCounts[t])
		if p.Tab == t {
			return r.tabActive.Render(text)
		}
		return r.tabIdle.Render(text)
	}
	return tab(view.TabNews, "NEWS") + "   " + tab(view.TabChatter, "CHATTER")
}

// Events lists the events of the active tab.
func (r *Renderer) Events(p view.Page) string {
	if len(p.Events) == 0 {
		return r.label.Render(p.EventsEmpty) + "\n" + r.dim.Render(view.MsgNoEventsHint)
	}
	var blocks []string
	for _, e := range p.Events {
		blocks = append(blocks, r.Event(e))
	}
	return strings.Join(blocks, "\n\n")
}

// Event renders one event row.
func (r *Renderer) Event(e view.EventRow) string {
	score := fmt.Sprintf("[%5.1f]", e.ThreatScore)
	lines := []string{
		r.Band(e.Band, score) + " " + r.bold.Render(e.Title),
		r.dim.Render(strings.Join(nonEmpty(strings.ToUpper(e.Platform), e.Source, e.When, e.ID), " · ")),
	}
	if e.Content != "" {
		lines = append(lines, truncate(strings.Join(strings.Fields(e.Content), " "), contentWidth))
	}
	if len(e.Entities) > 0 {
		lines = append(lines, r.dim.Render("entities: "+strings.Join(e.Entities, ", ")))
	}
	if e.URL != "" {
		lines = append(lines, r.dim.Render(e.URL))
	}
	return strings.Join(lines, "\n")
}

func bar(v, full float64, width int) string {
	if full <= 0 {
		return strings.Repeat("░", width)
	}
	n := int(math.Round(v / full * float64(width)))
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

func nonEmpty(ss ...string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
