// Package pipeline wires the full timeline build: concurrent ingestion,
// deduplication, chronological merge, enrichment, graph construction, and
// aggregation, in that order. The build degrades rather than fails: partial
// source data always produces a timeline, and the only fatal errors are a
// missing adapter set, an unloadable timezone, and internal invariant
// violations.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/footprintlab/timeline-engine/internal/adapter"
	"github.com/footprintlab/timeline-engine/internal/dedup"
	"github.com/footprintlab/timeline-engine/internal/enrich"
	"github.com/footprintlab/timeline-engine/internal/enrich/graph"
	"github.com/footprintlab/timeline-engine/internal/ingest"
	"github.com/footprintlab/timeline-engine/internal/merge"
	"github.com/footprintlab/timeline-engine/internal/stats"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
	"github.com/footprintlab/timeline-engine/pkg/metrics"
)

// RunStore persists completed builds. Persistence is best effort: a store
// failure becomes a warning on the result, never a build error.
type RunStore interface {
	SaveRun(ctx context.Context, result *Result) error
}

// Publisher emits enriched events to downstream consumers, also best effort.
type Publisher interface {
	PublishEvents(ctx context.Context, events []timeline.Event) error
}

// Request identifies one build: whose timeline, over which bounds.
type Request struct {
	Target string              `json:"target"`
	Range  *timeline.DateRange `json:"range,omitempty"`
}

// Result is a completed timeline build.
type Result struct {
	Target      string               `json:"target"`
	GeneratedAt time.Time            `json:"generated_at"`
	Events      []timeline.Event     `json:"events"`
	Stats       *stats.TimelineStats `json:"stats"`
	Graph       *graph.Graph         `json:"graph,omitempty"`
	Warnings    []timeline.Warning   `json:"warnings,omitempty"`
	Failures    []ingest.Failure     `json:"failures,omitempty"`
}

// Engine owns one configured pipeline and builds timelines on demand. It is
// safe for concurrent Build calls; all mutable state is per-call.
type Engine struct {
	cfg          *config.Config
	adapters     []adapter.Adapter
	orchestrator *ingest.Orchestrator
	enricher     *enrich.Pipeline
	metrics      *metrics.Metrics
	store        RunStore
	publisher    Publisher
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches Prometheus collectors to the engine and every phase.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStore attaches a persistent run store.
func WithStore(s RunStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithPublisher attaches a downstream event publisher.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// New assembles an Engine from configuration and the constructed adapters.
func New(cfg *config.Config, adapters []adapter.Adapter, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		adapters: adapters,
		logger:   slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.orchestrator = ingest.New(
		ingest.WithAdapterTimeout(cfg.Ingest.AdapterTimeout),
		ingest.WithConnectionTests(cfg.Ingest.TestConnections),
		ingest.WithMetrics(e.metrics),
	)
	e.enricher = enrich.New(cfg.Enrich, e.metrics)
	return e
}

// Stages returns the enabled enrichment stage names in execution order.
// Cache keys include this so a config change invalidates stale entries.
func (e *Engine) Stages() []string {
	return e.enricher.Stages()
}

// Build runs the full pipeline for one request. Any subset of adapters may
// fail and the build still completes; the returned error is non-nil only for
// the fatal cases (no adapters, bad timezone, zone invariant violation).
func (e *Engine) Build(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if len(e.adapters) == 0 {
		e.countBuild("error")
		return nil, pkgerrors.New("ingest", pkgerrors.ErrNoAdapters, "")
	}
	zone, err := e.cfg.Target.Location()
	if err != nil {
		e.countBuild("error")
		return nil, pkgerrors.Newf("config", pkgerrors.ErrInvalidConfig, "%v", err)
	}

	ingested := e.orchestrator.Run(ctx, req.Target, req.Range, e.adapters, zone)
	e.logger.Info("ingestion complete",
		"target", req.Target,
		"events", len(ingested.Events),
		"failed_adapters", len(ingested.Failures),
	)

	deduped, dropped := dedup.Deduplicate(ingested.Events)
	if e.metrics != nil {
		e.metrics.DuplicatesTotal.Add(float64(dropped))
	}

	merged, err := merge.Merge(deduped, zone)
	if err != nil {
		e.countBuild("error")
		return nil, err
	}

	enriched, warnings := e.enricher.Run(merged)

	var g *graph.Graph
	if e.cfg.Enrich.Graph.Enabled {
		g = graph.NewBuilder(e.cfg.Enrich.Entities.MinConfidence).Build(enriched)
	}

	result := &Result{
		Target:      req.Target,
		GeneratedAt: time.Now().UTC(),
		Events:      enriched,
		Stats:       stats.Compute(enriched, g, e.cfg.Enrich.Topics.TopN),
		Graph:       g,
		Warnings:    append(ingested.Warnings, warnings...),
		Failures:    ingested.Failures,
	}

	e.persist(ctx, result)
	e.publish(ctx, result)

	e.countBuild("ok")
	if e.metrics != nil {
		e.metrics.BuildDuration.Observe(time.Since(start).Seconds())
		e.metrics.TimelineEvents.Set(float64(len(result.Events)))
	}
	e.logger.Info("build complete",
		"target", req.Target,
		"events", len(result.Events),
		"duplicates", dropped,
		"warnings", len(result.Warnings),
		"duration", time.Since(start),
	)
	return result, nil
}

func (e *Engine) persist(ctx context.Context, result *Result) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveRun(ctx, result); err != nil {
		e.logger.Error("persisting run failed", "error", err)
		result.Warnings = append(result.Warnings, timeline.Warnf(
			"store", "", "", "persisting run failed: %v", err,
		))
	}
}

func (e *Engine) publish(ctx context.Context, result *Result) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEvents(ctx, result.Events); err != nil {
		e.logger.Error("publishing enriched events failed", "error", err)
		result.Warnings = append(result.Warnings, timeline.Warnf(
			"publish", "", "", "publishing enriched events failed: %v", err,
		))
	}
}

func (e *Engine) countBuild(outcome string) {
	if e.metrics != nil {
		e.metrics.BuildsTotal.WithLabelValues(outcome).Inc()
	}
}
