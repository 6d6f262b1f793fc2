package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Platform names the feed an event was collected from.
type Platform string

const (
	PlatformRSS      Platform = "rss"
	PlatformGDELT    Platform = "gdelt"
	PlatformReddit   Platform = "reddit"
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
)

// Known reports whether p is one of the five platforms the backend emits.
func (p Platform) Known() bool {
	switch p {
	case PlatformRSS, PlatformGDELT, PlatformReddit, PlatformTelegram, PlatformDiscord:
		return true
	}
	return false
}

// EventID accepts either a JSON number or a JSON string.
type EventID string

func (id *EventID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EventID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*id = EventID(n.String())
	return nil
}

// Event is one news or chatter item scored by the backend.
type Event struct {
	ID          EventID  `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Platform    Platform `json:"platform"`
	Source      string   `json:"source"`
	URL         string   `json:"url,omitempty"`
	Timestamp   string   `json:"timestamp"`
	ThreatScore float64  `json:"threat_score"`
	Entities    []string `json:"entities"`
}

// Time parses Timestamp. The zero time is returned when it cannot be parsed.
func (e Event) Time() time.Time {
	t, err := ParseTimestamp(e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TrendPoint is one day of the predicted threat series.
type TrendPoint struct {
	Date        string  `json:"date"`
	ThreatScore float64 `json:"threat_score"`
}

// EntityCount is one bar of the entity frequency chart.
type EntityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DashboardSnapshot is the /dashboard payload.
type DashboardSnapshot struct {
	CurrentThreatLevel float64       `json:"current_threat_level"`
	ThreatTrend        []TrendPoint  `json:"threat_trend"`
	TopEntities        []EntityCount `json:"top_entities"`
}

// Summary is the /summary payload. The Summary field carries lightweight
// markup parsed by view.ParseSummary.
type Summary struct {
	EventCount     int      `json:"event_count"`
	AvgThreatScore float64  `json:"avg_threat_score"`
	KeyEntities    []string `json:"key_entities"`
	Summary        string   `json:"summary"`
}

// CasualtyEvent is a ground-truth incident used to annotate the trend chart.
type CasualtyEvent struct {
	DateOccurred string  `json:"date_occurred"`
	ActualScore  float64 `json:"actual_score"`
	Casualties   int     `json:"casualties"`
	Title        string  `json:"title"`
}

// ParseTimestamp tries the ISO layouts the backend is known to emit.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}
