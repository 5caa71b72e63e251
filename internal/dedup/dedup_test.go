package dedup

import (
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
)

func event(id string, platform timeline.Platform, ts time.Time, content string) timeline.Event {
	return timeline.Event{
		ID:        id,
		Platform:  platform,
		Category:  timeline.CategoryPost,
		Timestamp: ts,
		Username:  "alice",
		Content:   content,
	}
}

func TestDeduplicateCollapsesSameMinuteContent(t *testing.T) {
	base := time.Date(2025, 3, 10, 14, 30, 5, 0, time.UTC)
	events := []timeline.Event{
		event("a", timeline.PlatformTwitter, base, "Shipping the new release today"),
		// Same minute, same content modulo case and whitespace.
		event("b", timeline.PlatformTwitter, base.Add(40*time.Second), "  shipping the NEW release today "),
	}

	kept, dropped := Deduplicate(events)
	if len(kept) != 1 || dropped != 1 {
		t.Fatalf("got %d kept, %d dropped, want 1 kept, 1 dropped", len(kept), dropped)
	}
	if kept[0].ID != "a" {
		t.Errorf("kept event %q, want first occurrence %q", kept[0].ID, "a")
	}
}

func TestDeduplicateKeepsDistinctEvents(t *testing.T) {
	base := time.Date(2025, 3, 10, 14, 30, 5, 0, time.UTC)
	tests := []struct {
		name   string
		second timeline.Event
	}{
		{
			name:   "different minute",
			second: event("b", timeline.PlatformTwitter, base.Add(2*time.Minute), "same content"),
		},
		{
			name:   "different platform",
			second: event("b", timeline.PlatformMastodon, base, "same content"),
		},
		{
			name:   "different content",
			second: event("b", timeline.PlatformTwitter, base, "other content"),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			events := []timeline.Event{
				event("a", timeline.PlatformTwitter, base, "same content"),
				tc.second,
			}
			kept, dropped := Deduplicate(events)
			if len(kept) != 2 || dropped != 0 {
				t.Fatalf("got %d kept, %d dropped, want 2 kept, 0 dropped", len(kept), dropped)
			}
		})
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []timeline.Event{
		event("a", timeline.PlatformTwitter, base, "hello"),
		event("b", timeline.PlatformTwitter, base, "hello"),
		event("c", timeline.PlatformGitHub, base, "hello"),
		event("d", timeline.PlatformGitHub, base.Add(time.Hour), "hello"),
	}

	once, _ := Deduplicate(events)
	twice, dropped := Deduplicate(once)
	if dropped != 0 {
		t.Fatalf("second pass dropped %d events, want 0", dropped)
	}
	if len(twice) != len(once) {
		t.Fatalf("second pass returned %d events, want %d", len(twice), len(once))
	}
	for i := range once {
		if twice[i].ID != once[i].ID {
			t.Errorf("event %d changed from %q to %q across passes", i, once[i].ID, twice[i].ID)
		}
	}
}

func TestFingerprintStableAcrossSeconds(t *testing.T) {
	a := event("a", timeline.PlatformTwitter, time.Date(2025, 1, 1, 10, 15, 1, 0, time.UTC), "x")
	b := event("b", timeline.PlatformTwitter, time.Date(2025, 1, 1, 10, 15, 59, 0, time.UTC), "x")
	if FingerprintOf(&a) != FingerprintOf(&b) {
		t.Error("fingerprints differ within the same minute bucket")
	}

	c := event("c", timeline.PlatformTwitter, time.Date(2025, 1, 1, 10, 16, 0, 0, time.UTC), "x")
	if FingerprintOf(&a) == FingerprintOf(&c) {
		t.Error("fingerprints collide across minute buckets")
	}
}
