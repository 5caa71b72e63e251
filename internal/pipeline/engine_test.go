package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/adapter"
	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
)

type fakeAdapter struct {
	platform timeline.Platform
	events   []timeline.Event
	err      error
}

func (f *fakeAdapter) Platform() timeline.Platform              { return f.platform }
func (f *fakeAdapter) TestConnection(ctx context.Context) error { return nil }
func (f *fakeAdapter) Ingest(ctx context.Context, target string, dateRange *timeline.DateRange) ([]timeline.Event, error) {
	return f.events, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Target: config.TargetConfig{Identifier: "@alice", Timezone: "UTC"},
		Ingest: config.IngestConfig{AdapterTimeout: 5 * time.Second},
		Enrich: config.EnrichConfig{
			Language:  config.LanguageConfig{Enabled: true, MinRatio: 0.08},
			Entities:  config.EntitiesConfig{Enabled: true, MinConfidence: 0.5},
			Sentiment: config.SentimentConfig{Enabled: true},
			Topics:    config.TopicsConfig{Enabled: true, TopN: 5},
			Geo:       config.GeoConfig{Enabled: true, MinConfidence: 0.5},
			Graph:     config.GraphConfig{Enabled: true},
		},
	}
}

func srcEvent(id string, platform timeline.Platform, ts time.Time, content string) timeline.Event {
	return timeline.Event{
		ID:        id,
		Platform:  platform,
		Category:  timeline.CategoryPost,
		Timestamp: ts,
		Username:  "alice",
		Content:   content,
	}
}

func TestBuildEndToEnd(t *testing.T) {
	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	twitter := &fakeAdapter{
		platform: timeline.PlatformTwitter,
		events: []timeline.Event{
			srcEvent("t2", timeline.PlatformTwitter, base.Add(20*time.Second),
				"shipping the great release #golang"),
			// Same minute, same content: collapses with t2.
			srcEvent("t3", timeline.PlatformTwitter, base.Add(40*time.Second),
				"Shipping the great release #golang"),
		},
	}
	github := &fakeAdapter{
		platform: timeline.PlatformGitHub,
		events: []timeline.Event{
			srcEvent("g1", timeline.PlatformGitHub, base.Add(-time.Hour),
				"fix the broken merge logic"),
		},
	}

	engine := New(testConfig(), []adapter.Adapter{twitter, github})
	result, err := engine.Build(context.Background(), Request{Target: "@alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Events) != 2 {
		t.Fatalf("got %d events, want 2 after dedup: %v", len(result.Events), result.Events)
	}
	if result.Events[0].ID != "g1" || result.Events[1].ID != "t2" {
		t.Errorf("order = [%s %s], want chronological [g1 t2]",
			result.Events[0].ID, result.Events[1].ID)
	}
	if result.Events[1].Sentiment == nil {
		t.Error("events not enriched")
	}
	if result.Stats == nil || result.Stats.TotalEvents != 2 {
		t.Errorf("stats = %+v, want total 2", result.Stats)
	}
	if result.Graph == nil || result.Graph.Order() == 0 {
		t.Error("graph not built")
	}
}

func TestBuildSurvivesAdapterFailure(t *testing.T) {
	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	good := &fakeAdapter{
		platform: timeline.PlatformGitHub,
		events:   []timeline.Event{srcEvent("g1", timeline.PlatformGitHub, base, "pushed a commit")},
	}
	bad := &fakeAdapter{platform: timeline.PlatformTwitter, err: errors.New("api down")}

	engine := New(testConfig(), []adapter.Adapter{good, bad})
	result, err := engine.Build(context.Background(), Request{Target: "@alice"})
	if err != nil {
		t.Fatalf("partial source failure became a build error: %v", err)
	}
	if len(result.Events) != 1 {
		t.Errorf("got %d events, want the surviving adapter's 1", len(result.Events))
	}
	if len(result.Failures) != 1 {
		t.Errorf("failures = %+v, want 1", result.Failures)
	}
}

func TestBuildAllAdaptersFailedStillSucceeds(t *testing.T) {
	engine := New(testConfig(), []adapter.Adapter{
		&fakeAdapter{platform: timeline.PlatformTwitter, err: errors.New("down")},
		&fakeAdapter{platform: timeline.PlatformGitHub, err: errors.New("down")},
	})
	result, err := engine.Build(context.Background(), Request{Target: "@alice"})
	if err != nil {
		t.Fatalf("all-failed run became an error: %v", err)
	}
	if len(result.Events) != 0 || len(result.Failures) != 2 {
		t.Errorf("result = %d events, %d failures; want empty timeline with 2 failures",
			len(result.Events), len(result.Failures))
	}
	if result.Stats == nil {
		t.Error("stats missing on empty timeline")
	}
}

func TestBuildNoAdaptersIsFatal(t *testing.T) {
	engine := New(testConfig(), nil)
	_, err := engine.Build(context.Background(), Request{Target: "@alice"})
	if !errors.Is(err, pkgerrors.ErrNoAdapters) {
		t.Fatalf("err = %v, want ErrNoAdapters", err)
	}
}

func TestBuildInvalidTimezoneIsFatal(t *testing.T) {
	cfg := testConfig()
	cfg.Target.Timezone = "Not/AZone"
	engine := New(cfg, []adapter.Adapter{&fakeAdapter{platform: timeline.PlatformTwitter}})
	_, err := engine.Build(context.Background(), Request{Target: "@alice"})
	if !errors.Is(err, pkgerrors.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}
