// Package ingest implements the ingestion orchestrator: it fans out over
// all configured adapters concurrently, tolerates per-adapter failures with
// an all-settled join, normalizes every timestamp into the target zone, and
// drops malformed raw events individually.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/footprintlab/timeline-engine/internal/adapter"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
	"github.com/footprintlab/timeline-engine/pkg/metrics"
	"github.com/footprintlab/timeline-engine/pkg/resilience"
)

// Failure records one adapter that contributed zero events.
type Failure struct {
	Platform timeline.Platform `json:"platform"`
	Err      error             `json:"-"`
	Message  string            `json:"message"`
}

// Result is the orchestrator's output: the concatenation of all successful
// adapters' events with zone-normalized timestamps, plus the failures and
// warnings accumulated along the way. Failures are informational, never
// fatal.
type Result struct {
	Events   []timeline.Event
	Failures []Failure
	Warnings []timeline.Warning
}

// Orchestrator coordinates concurrent adapter ingestion. It is the only
// concurrent phase of the pipeline; everything downstream is a synchronous
// batch transformation.
type Orchestrator struct {
	adapterTimeout  time.Duration
	testConnections bool
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithAdapterTimeout bounds each adapter's ingest call. A timed-out adapter
// is treated identically to a failed one.
func WithAdapterTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.adapterTimeout = d }
}

// WithConnectionTests enables the best-effort TestConnection probe before
// each ingest. A probe failure only produces a warning.
func WithConnectionTests(enabled bool) Option {
	return func(o *Orchestrator) { o.testConnections = enabled }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapterTimeout:  30 * time.Second,
		testConnections: true,
		logger:          slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run ingests from every adapter concurrently and returns the combined
// result. One adapter's failure or timeout never aborts the others;
// cancellation of ctx propagates to all in-flight adapter calls.
func (o *Orchestrator) Run(
	ctx context.Context,
	target string,
	dateRange *timeline.DateRange,
	adapters []adapter.Adapter,
	zone *time.Location,
) Result {
	type outcome struct {
		platform timeline.Platform
		events   []timeline.Event
		warnings []timeline.Warning
		err      error
	}

	outcomes := make([]outcome, len(adapters))
	var wg sync.WaitGroup
	for i, src := range adapters {
		wg.Add(1)
		go func(idx int, src adapter.Adapter) {
			defer wg.Done()
			out := outcome{platform: src.Platform()}

			if o.testConnections {
				if err := src.TestConnection(ctx); err != nil {
					// Best effort: a failed probe still attempts ingestion.
					out.warnings = append(out.warnings, timeline.Warnf(
						"ingest", src.Platform(), "",
						"connection test failed: %v", err,
					))
				}
			}

			start := time.Now()
			var events []timeline.Event
			err := resilience.WithTimeout(ctx, o.adapterTimeout, string(src.Platform()), func(ctx context.Context) error {
				var ingestErr error
				events, ingestErr = src.Ingest(ctx, target, dateRange)
				return ingestErr
			})
			if o.metrics != nil {
				o.metrics.AdapterDuration.WithLabelValues(string(src.Platform())).Observe(time.Since(start).Seconds())
			}
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = pkgerrors.Newf("ingest", pkgerrors.ErrAdapterTimeout,
						"%s exceeded %v", src.Platform(), o.adapterTimeout)
				}
				out.err = err
				outcomes[idx] = out
				return
			}
			out.events = events
			outcomes[idx] = out
		}(i, src)
	}
	wg.Wait()

	result := Result{}
	for _, out := range outcomes {
		result.Warnings = append(result.Warnings, out.warnings...)
		if out.err != nil {
			o.logger.Error("adapter failed", "platform", out.platform, "error", out.err)
			if o.metrics != nil {
				o.metrics.AdapterFailuresTotal.WithLabelValues(string(out.platform)).Inc()
			}
			result.Failures = append(result.Failures, Failure{
				Platform: out.platform,
				Err:      out.err,
				Message:  out.err.Error(),
			})
			result.Warnings = append(result.Warnings, timeline.Warnf(
				"ingest", out.platform, "", "adapter failed: %v", out.err,
			))
			continue
		}
		kept, dropWarnings := o.normalize(out.platform, out.events, zone)
		result.Events = append(result.Events, kept...)
		result.Warnings = append(result.Warnings, dropWarnings...)
		if o.metrics != nil {
			o.metrics.EventsIngestedTotal.WithLabelValues(string(out.platform)).Add(float64(len(kept)))
			o.metrics.EventsDroppedTotal.WithLabelValues(string(out.platform)).Add(float64(len(dropWarnings)))
		}
		o.logger.Info("adapter ingested",
			"platform", out.platform,
			"events", len(kept),
			"dropped", len(dropWarnings),
		)
	}
	return result
}

// normalize re-expresses each event's timestamp in the target zone (the
// underlying instant is unchanged) and drops events missing required
// fields, one warning per dropped event.
func (o *Orchestrator) normalize(platform timeline.Platform, events []timeline.Event, zone *time.Location) ([]timeline.Event, []timeline.Warning) {
	kept := make([]timeline.Event, 0, len(events))
	var warnings []timeline.Warning
	for _, ev := range events {
		if err := validate(&ev); err != nil {
			warnings = append(warnings, timeline.Warnf(
				"ingest", platform, ev.ID, "dropping malformed event: %v", err,
			))
			continue
		}
		if ev.OriginalTimestamp == "" {
			ev.OriginalTimestamp = ev.Timestamp.Format(time.RFC3339)
		}
		ev.Timestamp = ev.Timestamp.In(zone)
		kept = append(kept, ev)
	}
	return kept, warnings
}

// validate enforces the adapter output contract for a single event.
func validate(ev *timeline.Event) error {
	switch {
	case ev.ID == "":
		return fmt.Errorf("missing id")
	case ev.Platform == "":
		return fmt.Errorf("missing platform")
	case ev.Timestamp.IsZero():
		return fmt.Errorf("missing timestamp")
	case ev.Username == "":
		return fmt.Errorf("missing username")
	case ev.Category == "":
		return fmt.Errorf("missing category")
	}
	return nil
}
