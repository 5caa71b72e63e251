// Package metrics defines the Prometheus collectors instrumenting the
// timeline pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	EventsIngestedTotal  *prometheus.CounterVec
	EventsDroppedTotal   *prometheus.CounterVec
	AdapterFailuresTotal *prometheus.CounterVec
	AdapterDuration      *prometheus.HistogramVec
	DuplicatesTotal      prometheus.Counter
	StageWarningsTotal   *prometheus.CounterVec
	StageDuration        *prometheus.HistogramVec
	BuildsTotal          *prometheus.CounterVec
	BuildDuration        prometheus.Histogram
	TimelineEvents       prometheus.Gauge
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_events_ingested_total",
				Help: "Raw events returned by adapters, by platform.",
			},
			[]string{"platform"},
		),
		EventsDroppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_events_dropped_total",
				Help: "Malformed raw events dropped during ingestion, by platform.",
			},
			[]string{"platform"},
		),
		AdapterFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_adapter_failures_total",
				Help: "Adapter ingest failures (errors and timeouts), by platform.",
			},
			[]string{"platform"},
		),
		AdapterDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeline_adapter_duration_seconds",
				Help:    "Adapter ingest call latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"platform"},
		),
		DuplicatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "timeline_duplicates_dropped_total",
				Help: "Events collapsed by the deduplicator.",
			},
		),
		StageWarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_stage_warnings_total",
				Help: "Per-event enrichment degradations, by stage.",
			},
			[]string{"stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timeline_stage_duration_seconds",
				Help:    "Enrichment stage batch latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"stage"},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timeline_builds_total",
				Help: "Completed builds by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "timeline_build_duration_seconds",
				Help:    "End-to-end build latency in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		TimelineEvents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "timeline_events",
				Help: "Events in the most recently built timeline.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "timeline_cache_hits_total",
				Help: "Timeline cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "timeline_cache_misses_total",
				Help: "Timeline cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.EventsIngestedTotal,
		m.EventsDroppedTotal,
		m.AdapterFailuresTotal,
		m.AdapterDuration,
		m.DuplicatesTotal,
		m.StageWarningsTotal,
		m.StageDuration,
		m.BuildsTotal,
		m.BuildDuration,
		m.TimelineEvents,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
