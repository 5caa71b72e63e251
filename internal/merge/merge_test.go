package merge

import (
	"errors"
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
)

func event(id string, platform timeline.Platform, ts time.Time) timeline.Event {
	return timeline.Event{ID: id, Platform: platform, Timestamp: ts, Username: "u", Category: timeline.CategoryPost}
}

func ids(events []timeline.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestMergeOrdersChronologically(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []timeline.Event{
		event("late", timeline.PlatformTwitter, base.Add(time.Hour)),
		event("early", timeline.PlatformGitHub, base),
		event("middle", timeline.PlatformBlog, base.Add(30*time.Minute)),
	}

	sorted, err := Merge(events, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"early", "middle", "late"}
	got := ids(sorted)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestMergeDeterministicUnderPermutation(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// All at the same instant: the (platform, id) tie-break decides.
	a := event("2", timeline.PlatformTwitter, ts)
	b := event("1", timeline.PlatformTwitter, ts)
	c := event("9", timeline.PlatformGitHub, ts)

	permutations := [][]timeline.Event{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	want := []string{"9", "1", "2"} // github before twitter, then id

	for i, perm := range permutations {
		sorted, err := Merge(perm, time.UTC)
		if err != nil {
			t.Fatalf("permutation %d: %v", i, err)
		}
		got := ids(sorted)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("permutation %d: order %v, want %v", i, got, want)
			}
		}
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []timeline.Event{
		event("b", timeline.PlatformTwitter, base.Add(time.Hour)),
		event("a", timeline.PlatformTwitter, base),
	}
	if _, err := Merge(events, time.UTC); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].ID != "b" {
		t.Error("input slice was reordered in place")
	}
}

func TestMergeRejectsForeignZone(t *testing.T) {
	zone := time.UTC
	offset := time.FixedZone("UTC+2", 2*3600)
	events := []timeline.Event{
		event("ok", timeline.PlatformTwitter, time.Date(2025, 6, 1, 12, 0, 0, 0, zone)),
		event("bad", timeline.PlatformTwitter, time.Date(2025, 6, 1, 14, 0, 0, 0, offset)),
	}

	_, err := Merge(events, zone)
	if err == nil {
		t.Fatal("expected zone invariant error, got nil")
	}
	if !errors.Is(err, pkgerrors.ErrZoneInvariant) {
		t.Fatalf("error %v does not wrap ErrZoneInvariant", err)
	}
}
