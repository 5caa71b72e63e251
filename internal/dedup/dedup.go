// Package dedup collapses near-identical events using a composite
// fingerprint of platform, minute-truncated timestamp, and a hash of the
// normalized content.
//
// Minute-granularity truncation absorbs small clock skew between a source's
// reported time and its rounding: cross-source re-posts and adapter retries
// commonly produce byte-identical content within the same minute. The
// flip side is accepted and deliberate: two genuinely distinct events with
// identical content in the same minute on the same platform are
// indistinguishable and collapse to one. Downstream consumers depend on
// this exact aggressiveness; do not tighten the bucket.
package dedup

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
)

// Fingerprint is the composite dedup key for one event.
type Fingerprint struct {
	Platform timeline.Platform
	Minute   int64
	Content  [16]byte
}

// FingerprintOf computes the fingerprint: platform, timestamp truncated to
// the minute, and sha256 of the lowercased, trimmed content.
func FingerprintOf(ev *timeline.Event) Fingerprint {
	normalized := strings.ToLower(strings.TrimSpace(ev.Content))
	sum := sha256.Sum256([]byte(normalized))
	var content [16]byte
	copy(content[:], sum[:16])
	return Fingerprint{
		Platform: ev.Platform,
		Minute:   ev.Timestamp.Truncate(time.Minute).Unix(),
		Content:  content,
	}
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s:%d:%x", f.Platform, f.Minute, f.Content)
}

// Deduplicate keeps the first occurrence of each fingerprint and drops the
// rest, preserving input order. It is idempotent: running it on its own
// output returns the same set.
func Deduplicate(events []timeline.Event) (kept []timeline.Event, dropped int) {
	seen := make(map[Fingerprint]struct{}, len(events))
	kept = make([]timeline.Event, 0, len(events))
	for _, ev := range events {
		fp := FingerprintOf(&ev)
		if _, dup := seen[fp]; dup {
			dropped++
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, ev)
	}
	return kept, dropped
}
