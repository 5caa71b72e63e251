// Package enrich implements the annotation pipeline that runs over the
// merged event list: language detection, entity extraction, sentiment
// scoring, topic extraction, and geo tagging, in that fixed order. Stages
// are independently toggleable and composable in any enabled subset. All of
// them are lightweight lexicon/heuristic passes; a stage failing on one
// event leaves that event's annotation unset and the batch continues.
package enrich

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	"github.com/footprintlab/timeline-engine/pkg/metrics"
)

// Stage annotates a single event. Annotate returns the annotated copy; on
// error the pipeline keeps the un-annotated original and records a warning.
type Stage interface {
	Name() string
	Annotate(ev timeline.Event) (timeline.Event, error)
}

// Pipeline applies the enabled stages in their fixed order.
type Pipeline struct {
	stages  []Stage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds a Pipeline from configuration. The relationship graph is not a
// Stage: it consumes extracted entities across all events and so runs after
// the per-event stages, owned by the engine.
func New(cfg config.EnrichConfig, m *metrics.Metrics) *Pipeline {
	var stages []Stage
	if cfg.Language.Enabled {
		stages = append(stages, NewLanguageDetector(cfg.Language))
	}
	if cfg.Entities.Enabled {
		stages = append(stages, NewEntityExtractor(cfg.Entities))
	}
	if cfg.Sentiment.Enabled {
		stages = append(stages, NewSentimentScorer())
	}
	if cfg.Topics.Enabled {
		stages = append(stages, NewTopicExtractor(cfg.Topics))
	}
	if cfg.Geo.Enabled {
		stages = append(stages, NewGeoTagger(cfg.Geo))
	}
	return &Pipeline{
		stages:  stages,
		metrics: m,
		logger:  slog.Default().With("component", "enrich"),
	}
}

// Stages returns the names of the enabled stages in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run annotates every event with every enabled stage. Per-event failures
// (including panics inside a stage) degrade to warnings; the returned slice
// always has the same length and order as the input.
func (p *Pipeline) Run(events []timeline.Event) ([]timeline.Event, []timeline.Warning) {
	annotated := make([]timeline.Event, len(events))
	copy(annotated, events)
	var warnings []timeline.Warning

	for _, stage := range p.stages {
		start := time.Now()
		failures := 0
		for i := range annotated {
			out, err := annotateOne(stage, annotated[i])
			if err != nil {
				failures++
				warnings = append(warnings, timeline.Warnf(
					stage.Name(), annotated[i].Platform, annotated[i].ID,
					"annotation failed: %v", err,
				))
				continue
			}
			annotated[i] = out
		}
		if p.metrics != nil {
			p.metrics.StageDuration.WithLabelValues(stage.Name()).Observe(time.Since(start).Seconds())
			p.metrics.StageWarningsTotal.WithLabelValues(stage.Name()).Add(float64(failures))
		}
		p.logger.Debug("stage complete",
			"stage", stage.Name(),
			"events", len(annotated),
			"failures", failures,
		)
	}
	return annotated, warnings
}

// annotateOne isolates a stage call so a panic on one event degrades to an
// error instead of aborting the batch.
func annotateOne(stage Stage, ev timeline.Event) (out timeline.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ev
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	return stage.Annotate(ev)
}
