package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", WithUserAgent("quix-test"))
}

func TestNewClientTrimsBaseURL(t *testing.T) {
	c := NewClient(" https://example.ngrok-free.app/// ")
	assert.Equal(t, "https://example.ngrok-free.app", c.BaseURL())
}

func TestDashboardSendsSkipWarningHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.Header.Get(SkipWarningHeader))
		assert.Equal(t, "quix-test", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{
			"current_threat_level": 72.5,
			"threat_trend": [{"date":"2024-01-02","threat_score":60},{"date":"2024-01-01","threat_score":50}],
			"top_entities": [{"name":"Gaza","count":14}]
		}`))
	})
	c := newTestServer(t, mux)

	snap, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 72.5, snap.CurrentThreatLevel)
	require.Len(t, snap.ThreatTrend, 2)
	assert.Equal(t, "2024-01-02", snap.ThreatTrend[0].Date)
	assert.Equal(t, []EntityCount{{Name: "Gaza", Count: 14}}, snap.TopEntities)
}

func TestEventsMergesFeedsNewestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events/news", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "old news", "platform": "rss", "timestamp": "2024-01-01T08:00:00"},
			{"id": 2, "title": "new news", "platform": "gdelt", "timestamp": "2024-01-03T08:00:00Z"}
		]`))
	})
	mux.HandleFunc("/events/chatter", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": "tg-7", "title": "chatter", "platform": "telegram", "timestamp": "2024-01-02T12:30:00.123Z", "entities": ["IDF"]}
		]`))
	})
	c := newTestServer(t, mux)

	events, err := c.Events(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "new news", events[0].Title)
	assert.Equal(t, "chatter", events[1].Title)
	assert.Equal(t, "old news", events[2].Title)
	assert.Equal(t, EventID("tg-7"), events[1].ID)
	assert.Equal(t, EventID("1"), events[2].ID)
	assert.Equal(t, []string{"IDF"}, events[1].Entities)
}

func TestEventsFailsWhenOneFeedFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events/news", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/events/chatter", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestServer(t, mux)

	_, err := c.Events(context.Background(), 10)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "/events/chatter", fe.Endpoint)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestDecodeFailureIsFetchError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>interstitial</html>`))
	})
	c := newTestServer(t, mux)

	_, err := c.Summary(context.Background())
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "/summary", fe.Endpoint)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestTransportFailureIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).ActualEvents(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "/actual-events", fe.Endpoint)
}

func TestActualEventsEmptyBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/actual-events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	c := newTestServer(t, mux)

	out, err := c.ActualEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestCollectPostsAndIgnoresBody(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/collect", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "true", r.Header.Get(SkipWarningHeader))
		_, _ = w.Write([]byte(`not json at all`))
	})
	c := newTestServer(t, mux)

	require.NoError(t, c.Collect(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEventIDAcceptsNumberAndString(t *testing.T) {
	var e struct {
		A EventID `json:"a"`
		B EventID `json:"b"`
		C EventID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "abc", "c": null}`), &e))
	assert.Equal(t, EventID("42"), e.A)
	assert.Equal(t, EventID("abc"), e.B)
	assert.Equal(t, EventID(""), e.C)
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-01-01T08:00:00Z",
		"2024-01-01T08:00:00.5+02:00",
		"2024-01-01T08:00Z",
		"2024-01-01T08:00:00",
		"2024-01-01 08:00:00",
		"2024-01-01",
	} {
		ts, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, ts.Year(), s)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestPlatformKnown(t *testing.T) {
	assert.True(t, PlatformDiscord.Known())
	assert.True(t, PlatformGDELT.Known())
	assert.False(t, Platform("mastodon").Known())
}

func TestMergeEventsUnparseableLast(t *testing.T) {
	out := MergeEvents(
		[]Event{{Title: "bad", Timestamp: "??"}},
		[]Event{{Title: "good", Timestamp: "2024-01-01T00:00:00Z"}},
	)
	require.Len(t, out, 2)
	assert.Equal(t, "good", out[0].Title)
	assert.Equal(t, "bad", out[1].Title)

	assert.NotNil(t, MergeEvents())
}
