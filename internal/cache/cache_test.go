package cache

import (
	"context"
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/pipeline"
	"github.com/footprintlab/timeline-engine/internal/timeline"
)

type fakeBuilder struct {
	builds int
	stages []string
}

func (f *fakeBuilder) Build(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	f.builds++
	return &pipeline.Result{Target: req.Target, GeneratedAt: time.Now().UTC()}, nil
}

func (f *fakeBuilder) Stages() []string { return f.stages }

func TestNilClientPassesThrough(t *testing.T) {
	b := &fakeBuilder{stages: []string{"sentiment"}}
	c := New(nil, b, time.Minute, nil)

	result, err := c.GetOrBuild(context.Background(), pipeline.Request{Target: "@alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Target != "@alice" || b.builds != 1 {
		t.Errorf("result = %+v after %d builds", result, b.builds)
	}

	// Without a cache every call rebuilds.
	if _, err := c.GetOrBuild(context.Background(), pipeline.Request{Target: "@alice"}); err != nil {
		t.Fatal(err)
	}
	if b.builds != 2 {
		t.Errorf("builds = %d, want 2", b.builds)
	}
}

func TestKeyDiscriminates(t *testing.T) {
	b := &fakeBuilder{stages: []string{"entities", "sentiment"}}
	c := New(nil, b, time.Minute, nil)

	base := pipeline.Request{Target: "@alice"}
	ranged := pipeline.Request{Target: "@alice", Range: &timeline.DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	other := pipeline.Request{Target: "@bob"}

	k1, k2, k3 := c.Key(base), c.Key(ranged), c.Key(other)
	if k1 == k2 || k1 == k3 || k2 == k3 {
		t.Errorf("keys collide: %s %s %s", k1, k2, k3)
	}
	if c.Key(base) != k1 {
		t.Error("key not deterministic")
	}

	// A different stage set invalidates by producing a different key.
	b2 := &fakeBuilder{stages: []string{"entities"}}
	c2 := New(nil, b2, time.Minute, nil)
	if c2.Key(base) == k1 {
		t.Error("stage set not part of the key")
	}
}
