// Package metrics exposes refresh and collect outcomes to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/runnerr0/quix/internal/dashboard"
)

type Recorder struct {
	registry *prometheus.Registry

	fetchTotal      *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	refreshTotal    prometheus.Counter
	threatLevel     prometheus.Gauge
	lastRefreshTS   prometheus.Gauge
	collectTotal    *prometheus.CounterVec
}

// NewRecorder registers the quix metrics on a private registry together with
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quix",
		Name:      "fetch_total",
		Help:      "API fetches by endpoint and result",
	}, []string{"endpoint", "result"})
	r.refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quix",
		Name:      "refresh_duration_seconds",
		Help:      "Time for all four fetches of a refresh cycle to settle",
		Buckets:   prometheus.DefBuckets,
	})
	r.refreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quix",
		Name:      "refresh_total",
		Help:      "Completed refresh cycles",
	})
	r.threatLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quix",
		Name:      "threat_level",
		Help:      "Current threat level reported by the dashboard endpoint",
	})
	r.lastRefreshTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quix",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the last completed refresh cycle",
	})
	r.collectTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quix",
		Name:      "collect_total",
		Help:      "Collection requests by result",
	}, []string{"result"})

	r.registry.MustRegister(
		r.fetchTotal, r.refreshDuration, r.refreshTotal,
		r.threatLevel, r.lastRefreshTS, r.collectTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Attach subscribes the recorder to a controller's refresh and collect hooks.
func (r *Recorder) Attach(c *dashboard.Controller) {
	c.OnRefresh(r.ObserveRefresh)
	c.OnCollect(r.ObserveCollect)
}

func (r *Recorder) ObserveRefresh(res dashboard.RefreshResult) {
	if !res.Applied {
		return
	}
	for _, slot := range dashboard.Slots() {
		result := "ok"
		if _, failed := res.Errors[slot]; failed {
			result = "error"
		}
		r.fetchTotal.WithLabelValues(string(slot), result).Inc()
	}
	r.refreshTotal.Inc()
	r.refreshDuration.Observe(res.Duration.Seconds())
	r.lastRefreshTS.Set(float64(res.State.LastUpdated.Unix()))
	if res.State.Snapshot != nil {
		r.threatLevel.Set(res.State.Snapshot.CurrentThreatLevel)
	}
}

func (r *Recorder) ObserveCollect(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.collectTotal.WithLabelValues(result).Inc()
}
