package view

import (
	"strings"

	"github.com/runnerr0/quix/internal/api"
)

// SameDayPolicy decides what happens when several casualty events fall on
// the same trend date.
type SameDayPolicy string

const (
	// SameDayLast lets the last matching casualty event overwrite earlier ones.
	SameDayLast SameDayPolicy = "last"
	// SameDayAggregate keeps the highest actual score, sums casualties and
	// joins titles.
	SameDayAggregate SameDayPolicy = "aggregate"
)

// ChartPoint is one point of the combined predicted/actual series.
type ChartPoint struct {
	Date        string   `json:"date"`
	ThreatScore float64  `json:"threat_score"`
	ActualScore *float64 `json:"actual_score,omitempty"`
	Casualties  *int     `json:"casualties,omitempty"`
	EventTitle  string   `json:"event_title,omitempty"`
	Matched     int      `json:"matched_events,omitempty"`
}

// HasActual reports whether a ground-truth event landed on this date.
func (p ChartPoint) HasActual() bool { return p.Matched > 0 }

// MergeTrend reverses the newest-first trend into chart order and annotates
// points with the casualty events that share their calendar day. trend is
// not modified. Casualty events without a matching day are dropped.
func MergeTrend(trend []api.TrendPoint, casualties []api.CasualtyEvent, policy SameDayPolicy) []ChartPoint {
	points := make([]ChartPoint, len(trend))
	byDay := make(map[string]int, len(trend))
	for i, tp := range trend {
		j := len(trend) - 1 - i
		points[j] = ChartPoint{Date: tp.Date, ThreatScore: tp.ThreatScore}
	}
	for i := range points {
		day := CalendarDay(points[i].Date)
		if _, dup := byDay[day]; !dup {
			byDay[day] = i
		}
	}

	for _, ce := range casualties {
		i, ok := byDay[CalendarDay(ce.DateOccurred)]
		if !ok {
			continue
		}
		annotate(&points[i], ce, policy)
	}
	return points
}

func annotate(p *ChartPoint, ce api.CasualtyEvent, policy SameDayPolicy) {
	score := ce.ActualScore
	casualties := ce.Casualties

	if policy == SameDayAggregate && p.Matched > 0 {
		if *p.ActualScore > score {
			score = *p.ActualScore
		}
		casualties += *p.Casualties
		if ce.Title != "" {
			if p.EventTitle != "" {
				p.EventTitle += "; " + ce.Title
			} else {
				p.EventTitle = ce.Title
			}
		}
	} else {
		p.EventTitle = ce.Title
	}

	p.ActualScore = &score
	p.Casualties = &casualties
	p.Matched++
}

// CalendarDay truncates an ISO date or timestamp to YYYY-MM-DD. Timestamps
// carrying a zone are converted to UTC first. Unparseable input keeps its
// first ten characters.
func CalendarDay(s string) string {
	s = strings.TrimSpace(s)
	if t, err := api.ParseTimestamp(s); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
