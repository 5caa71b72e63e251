package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/adapter"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
)

// fakeAdapter is a scriptable in-memory source.
type fakeAdapter struct {
	platform timeline.Platform
	events   []timeline.Event
	err      error
	probeErr error
	delay    time.Duration
}

func (f *fakeAdapter) Platform() timeline.Platform { return f.platform }

func (f *fakeAdapter) TestConnection(ctx context.Context) error { return f.probeErr }

func (f *fakeAdapter) Ingest(ctx context.Context, target string, dateRange *timeline.DateRange) ([]timeline.Event, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func rawEvent(id string, platform timeline.Platform, ts time.Time) timeline.Event {
	return timeline.Event{
		ID:        id,
		Platform:  platform,
		Category:  timeline.CategoryPost,
		Timestamp: ts,
		Username:  "alice",
		Content:   "content of " + id,
	}
}

func TestRunAllSettled(t *testing.T) {
	good := &fakeAdapter{
		platform: timeline.PlatformGitHub,
		events:   []timeline.Event{rawEvent("g1", timeline.PlatformGitHub, time.Now().UTC())},
	}
	bad := &fakeAdapter{
		platform: timeline.PlatformTwitter,
		err:      errors.New("rate limited"),
	}

	o := New(WithConnectionTests(false))
	result := o.Run(context.Background(), "alice", nil, []adapter.Adapter{good, bad}, time.UTC)

	if len(result.Events) != 1 || result.Events[0].ID != "g1" {
		t.Fatalf("events = %v, want the surviving adapter's event", result.Events)
	}
	if len(result.Failures) != 1 || result.Failures[0].Platform != timeline.PlatformTwitter {
		t.Fatalf("failures = %+v, want one twitter failure", result.Failures)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Platform == timeline.PlatformTwitter && w.Stage == "ingest" {
			found = true
		}
	}
	if !found {
		t.Errorf("no ingest warning for the failed adapter: %v", result.Warnings)
	}
}

func TestRunNormalizesTimezones(t *testing.T) {
	est := time.FixedZone("UTC-5", -5*3600)
	target := time.FixedZone("UTC+1", 3600)
	instant := time.Date(2025, 4, 1, 9, 30, 0, 0, est)

	src := &fakeAdapter{
		platform: timeline.PlatformTwitter,
		events:   []timeline.Event{rawEvent("t1", timeline.PlatformTwitter, instant)},
	}
	o := New(WithConnectionTests(false))
	result := o.Run(context.Background(), "alice", nil, []adapter.Adapter{src}, target)

	if len(result.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(result.Events))
	}
	got := result.Events[0].Timestamp
	if got.Location() != target {
		t.Errorf("zone = %v, want target zone", got.Location())
	}
	if !got.Equal(instant) {
		t.Errorf("instant changed during normalization: %v vs %v", got, instant)
	}
	if result.Events[0].OriginalTimestamp == "" {
		t.Error("original timestamp not backfilled")
	}
}

func TestRunDropsMalformedEventsIndividually(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeAdapter{
		platform: timeline.PlatformTwitter,
		events: []timeline.Event{
			rawEvent("ok", timeline.PlatformTwitter, now),
			{ID: "no-user", Platform: timeline.PlatformTwitter, Category: timeline.CategoryPost, Timestamp: now},
			{ID: "", Platform: timeline.PlatformTwitter, Category: timeline.CategoryPost, Timestamp: now, Username: "alice"},
		},
	}
	o := New(WithConnectionTests(false))
	result := o.Run(context.Background(), "alice", nil, []adapter.Adapter{src}, time.UTC)

	if len(result.Events) != 1 || result.Events[0].ID != "ok" {
		t.Fatalf("events = %v, want only the well-formed one", result.Events)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("got %d warnings, want one per dropped event: %v", len(result.Warnings), result.Warnings)
	}
}

func TestRunProbeFailureIsWarningOnly(t *testing.T) {
	src := &fakeAdapter{
		platform: timeline.PlatformBlog,
		probeErr: errors.New("connection refused"),
		events:   []timeline.Event{rawEvent("b1", timeline.PlatformBlog, time.Now().UTC())},
	}
	o := New(WithConnectionTests(true))
	result := o.Run(context.Background(), "alice", nil, []adapter.Adapter{src}, time.UTC)

	if len(result.Events) != 1 {
		t.Fatalf("probe failure blocked ingestion: %+v", result)
	}
	if len(result.Failures) != 0 {
		t.Errorf("probe failure recorded as adapter failure: %+v", result.Failures)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("got %d warnings, want 1 probe warning", len(result.Warnings))
	}
}

func TestRunAdapterTimeout(t *testing.T) {
	slow := &fakeAdapter{
		platform: timeline.PlatformTwitter,
		delay:    500 * time.Millisecond,
	}
	o := New(WithConnectionTests(false), WithAdapterTimeout(30*time.Millisecond))
	result := o.Run(context.Background(), "alice", nil, []adapter.Adapter{slow}, time.UTC)

	if len(result.Failures) != 1 {
		t.Fatalf("failures = %+v, want one timeout failure", result.Failures)
	}
	if !errors.Is(result.Failures[0].Err, pkgerrors.ErrAdapterTimeout) {
		t.Errorf("failure %v does not wrap ErrAdapterTimeout", result.Failures[0].Err)
	}
}
