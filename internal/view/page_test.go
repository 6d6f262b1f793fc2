package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/config"
)

func testData() Data {
	return Data{
		Snapshot: &api.DashboardSnapshot{
			CurrentThreatLevel: 72.46,
			ThreatTrend: []api.TrendPoint{
				{Date: "2024-01-02", ThreatScore: 50},
				{Date: "2024-01-01", ThreatScore: 40},
			},
			TopEntities: []api.EntityCount{{Name: "Gaza", Count: 12}},
		},
		Events: []api.Event{
			{ID: "1", Title: "Headline", Platform: api.PlatformRSS, Timestamp: "2024-01-02T10:00:00Z", ThreatScore: 80},
			{ID: "2", Title: "Post", Platform: api.PlatformTelegram, Timestamp: "2024-01-02T09:00:00Z", ThreatScore: 30},
			{ID: "3", Title: "Odd", Platform: "mastodon", Timestamp: "yesterday"},
		},
		Summary: &api.Summary{
			EventCount:     3,
			AvgThreatScore: 41.3,
			KeyEntities:    []string{"Gaza", "IDF"},
			Summary:        "**THREAT LEVEL: HIGH**\n\n**EXECUTIVE ASSESSMENT:**\nCalm day.\n\n**DETAILS:**\nMore text",
		},
		Casualties: []api.CasualtyEvent{
			{DateOccurred: "2024-01-01T08:00:00Z", ActualScore: 60, Casualties: 3, Title: "Strike"},
		},
		LastUpdated: time.Date(2024, 1, 2, 11, 30, 0, 0, time.UTC),
	}
}

func TestBuildPage(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	opts := Options{
		Zones:    []config.TimeZone{{City: "UTC", Location: "UTC"}},
		Location: time.UTC,
	}

	p := BuildPage(testData(), NewViewState(TabNews), now, opts)

	assert.False(t, p.Initializing)
	assert.Equal(t, "11:30:00", p.LastSync)
	require.Len(t, p.Clocks, 1)
	assert.Equal(t, "12:00:00", p.Clocks[0].Time)

	require.NotNil(t, p.Threat)
	assert.Equal(t, "72.5", p.Threat.Display)
	assert.Equal(t, BandCritical, p.Threat.Band)
	assert.Equal(t, ScaleLabel, p.Threat.Scale)

	require.Len(t, p.Trend, 2)
	assert.Equal(t, "2024-01-01", p.Trend[0].Date)
	assert.True(t, p.Trend[0].HasActual())
	assert.False(t, p.Trend[1].HasActual())
	assert.Empty(t, p.TrendEmpty)
	assert.Empty(t, p.EntitiesEmpty)

	assert.True(t, p.Summary.Available)
	assert.Equal(t, "41.3", p.Summary.AvgThreatScore)
	assert.Equal(t, 2, p.Summary.KeyEntityCount)
	assert.Equal(t, []string{"THREAT LEVEL: HIGH", "Calm day."}, p.Summary.Lines)
	assert.True(t, p.Summary.HasMore)

	assert.Equal(t, map[Tab]int{TabNews: 1, TabChatter: 1}, p.TabCounts)
	require.Len(t, p.Events, 1)
	assert.Equal(t, "Headline", p.Events[0].Title)
	assert.Equal(t, "2024-01-02 10:00:00", p.Events[0].When)
	assert.Equal(t, BandCritical, p.Events[0].Band)
	assert.NotNil(t, p.Events[0].Entities)
}

func TestBuildPageExpandedChatter(t *testing.T) {
	vs := NewViewState(TabChatter)
	vs.ToggleExpanded()

	p := BuildPage(testData(), vs, time.Now(), Options{Location: time.UTC})

	assert.Equal(t, TabChatter, p.Tab)
	require.Len(t, p.Events, 1)
	assert.Equal(t, "Post", p.Events[0].Title)
	assert.Equal(t, BandInformational, p.Events[0].Band)
	assert.Equal(t, []string{"THREAT LEVEL: HIGH", "Calm day.", "DETAILS: More text"}, p.Summary.Lines)
}

func TestBuildPageEmptyStates(t *testing.T) {
	p := BuildPage(Data{Loading: true}, NewViewState(TabNews), time.Now(), Options{})

	assert.True(t, p.Initializing)
	assert.Empty(t, p.LastSync)
	assert.Nil(t, p.Threat)
	assert.Equal(t, MsgNoTrend, p.TrendEmpty)
	assert.Equal(t, MsgNoEntities, p.EntitiesEmpty)
	assert.Equal(t, MsgNoEvents, p.EventsEmpty)
	assert.False(t, p.Summary.Available)
	assert.Equal(t, MsgNoSummary, p.Summary.EmptyMessage)
	assert.NotNil(t, p.Trend)
	assert.NotNil(t, p.Events)
}

func TestBuildPageUnparseableTimestampShownVerbatim(t *testing.T) {
	d := Data{Events: []api.Event{{ID: "9", Platform: api.PlatformGDELT, Timestamp: "sometime"}}}

	p := BuildPage(d, NewViewState(TabNews), time.Now(), Options{Location: time.UTC})
	require.Len(t, p.Events, 1)
	assert.Equal(t, "sometime", p.Events[0].When)
}
