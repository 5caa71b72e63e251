package enrich

import (
	"sort"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

const minTopicLength = 4

// TopicExtractor attaches the most frequent content words of an event as
// its topics. Frequency is per-document on purpose, not corpus-wide TF-IDF:
// the stage must stay a single cheap pass per event.
type TopicExtractor struct {
	topN int
}

// NewTopicExtractor creates the stage from its configuration.
func NewTopicExtractor(cfg config.TopicsConfig) *TopicExtractor {
	topN := cfg.TopN
	if topN <= 0 {
		topN = 5
	}
	return &TopicExtractor{topN: topN}
}

func (t *TopicExtractor) Name() string { return "topics" }

// Annotate sets Topics to the top-N tokens by frequency after stop-word
// removal and a minimum-length filter. Ties break by descending count, then
// ascending token, so the result is deterministic.
func (t *TopicExtractor) Annotate(ev timeline.Event) (timeline.Event, error) {
	counts := make(map[string]int)
	for _, tok := range tokenize(ev.Text()) {
		if len(tok) < minTopicLength || isStopWord(tok) {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return ev, nil
	}

	ranked := make([]string, 0, len(counts))
	for tok := range counts {
		ranked = append(ranked, tok)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > t.topN {
		ranked = ranked[:t.topN]
	}
	ev.Topics = ranked
	return ev, nil
}
