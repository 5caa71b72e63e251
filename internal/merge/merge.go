// Package merge produces the canonical chronological ordering of the
// deduplicated event set: ascending by timestamp with a deterministic
// (platform, id) tie-break, so the same input set always yields the same
// output order regardless of input permutation.
package merge

import (
	"sort"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	pkgerrors "github.com/footprintlab/timeline-engine/pkg/errors"
)

// Merge sorts events chronologically. It assumes the deduplicator has
// already run. A timestamp reaching the merger in a zone other than the
// target zone is a programming error upstream and fails the run loudly
// rather than silently reordering.
func Merge(events []timeline.Event, zone *time.Location) ([]timeline.Event, error) {
	for i := range events {
		if events[i].Timestamp.Location() != zone {
			return nil, pkgerrors.Newf("merge", pkgerrors.ErrZoneInvariant,
				"event %s has zone %s, want %s",
				events[i].ID, events[i].Timestamp.Location(), zone)
		}
	}

	sorted := make([]timeline.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.ID < b.ID
	})
	return sorted, nil
}
