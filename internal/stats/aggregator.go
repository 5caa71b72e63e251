// Package stats computes summary statistics over the final enriched event
// sequence. TimelineStats has no independent lifecycle: it is a pure
// reduction, recomputed from scratch whenever the pipeline reruns.
package stats

import (
	"sort"

	"github.com/footprintlab/timeline-engine/internal/enrich/graph"
	"github.com/footprintlab/timeline-engine/internal/timeline"
)

const (
	defaultTopTopics  = 10
	trendTopics       = 5
	topEntitiesByType = 10
	topCooccurrences  = 50
)

// Count is one label with its occurrence count.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthlyValue is one month ("2006-01") with a float value.
type MonthlyValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// MonthlyCount is one month ("2006-01") with an integer count.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// PairCount is one entity co-occurrence pair with its accumulated weight.
type PairCount struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// SentimentStats holds the sentiment distribution and its monthly trend.
type SentimentStats struct {
	Positive       int            `json:"positive"`
	Negative       int            `json:"negative"`
	Neutral        int            `json:"neutral"`
	AverageScore   float64        `json:"average_score"`
	MonthlyAverage []MonthlyValue `json:"monthly_average,omitempty"`
}

// TopicTrend is the month-by-month count for one top topic.
type TopicTrend struct {
	Topic   string         `json:"topic"`
	Monthly []MonthlyCount `json:"monthly"`
}

// TimelineStats is the aggregate view of one enriched timeline. Activity
// histograms are fully pre-initialized (24 hours, 7 weekdays starting
// Sunday, 12 months starting January, every category) so consumers never
// branch on missing keys.
type TimelineStats struct {
	TotalEvents      int                `json:"total_events"`
	ByPlatform       map[string]int     `json:"by_platform"`
	ByCategory       map[string]int     `json:"by_category"`
	ByHour           []int              `json:"by_hour"`
	ByWeekday        []int              `json:"by_weekday"`
	ByMonth          []int              `json:"by_month"`
	Sentiment        SentimentStats     `json:"sentiment"`
	TopTopics        []Count            `json:"top_topics,omitempty"`
	TopicTrends      []TopicTrend       `json:"topic_trends,omitempty"`
	EntitiesByType   map[string][]Count `json:"entities_by_type,omitempty"`
	TopCooccurrences []PairCount        `json:"top_cooccurrences,omitempty"`
}

// Compute reduces the enriched event list (and, when present, the
// relationship graph) to a TimelineStats. topTopics bounds the overall
// topic list; non-positive means the default of 10.
func Compute(events []timeline.Event, g *graph.Graph, topTopics int) *TimelineStats {
	if topTopics <= 0 {
		topTopics = defaultTopTopics
	}

	s := &TimelineStats{
		TotalEvents: len(events),
		ByPlatform:  make(map[string]int),
		ByCategory:  emptyCategoryHistogram(),
		ByHour:      make([]int, 24),
		ByWeekday:   make([]int, 7),
		ByMonth:     make([]int, 12),
	}

	topicCounts := make(map[string]int)
	topicMonthly := make(map[string]map[string]int)
	entityCounts := make(map[string]map[string]int)
	sentimentMonthSum := make(map[string]float64)
	sentimentMonthN := make(map[string]int)
	months := make(map[string]struct{})
	var scoreSum float64
	scored := 0

	for i := range events {
		ev := &events[i]
		s.ByPlatform[string(ev.Platform)]++
		s.ByCategory[string(ev.Category)]++
		s.ByHour[ev.Timestamp.Hour()]++
		s.ByWeekday[int(ev.Timestamp.Weekday())]++
		s.ByMonth[int(ev.Timestamp.Month())-1]++

		month := ev.Timestamp.Format("2006-01")
		months[month] = struct{}{}

		if ev.Sentiment != nil {
			scored++
			scoreSum += ev.Sentiment.Score
			sentimentMonthSum[month] += ev.Sentiment.Score
			sentimentMonthN[month]++
			switch ev.Sentiment.Label {
			case timeline.SentimentPositive:
				s.Sentiment.Positive++
			case timeline.SentimentNegative:
				s.Sentiment.Negative++
			default:
				s.Sentiment.Neutral++
			}
		}

		for _, topic := range ev.Topics {
			topicCounts[topic]++
			if topicMonthly[topic] == nil {
				topicMonthly[topic] = make(map[string]int)
			}
			topicMonthly[topic][month]++
		}

		for _, ent := range ev.Entities {
			typ := string(ent.Type)
			if entityCounts[typ] == nil {
				entityCounts[typ] = make(map[string]int)
			}
			entityCounts[typ][ent.Text]++
		}
	}

	if scored > 0 {
		s.Sentiment.AverageScore = scoreSum / float64(scored)
	}

	sortedMonths := sortedKeys(months)
	for _, month := range sortedMonths {
		if n := sentimentMonthN[month]; n > 0 {
			s.Sentiment.MonthlyAverage = append(s.Sentiment.MonthlyAverage, MonthlyValue{
				Month: month,
				Value: sentimentMonthSum[month] / float64(n),
			})
		}
	}

	s.TopTopics = topN(topicCounts, topTopics)
	for i, topic := range s.TopTopics {
		if i >= trendTopics {
			break
		}
		trend := TopicTrend{Topic: topic.Label}
		for _, month := range sortedMonths {
			trend.Monthly = append(trend.Monthly, MonthlyCount{
				Month: month,
				Count: topicMonthly[topic.Label][month],
			})
		}
		s.TopicTrends = append(s.TopicTrends, trend)
	}

	if len(entityCounts) > 0 {
		s.EntitiesByType = make(map[string][]Count, len(entityCounts))
		for typ, counts := range entityCounts {
			s.EntitiesByType[typ] = topN(counts, topEntitiesByType)
		}
	}

	if g != nil {
		for _, edge := range g.EdgesByWeight(graph.EdgeCooccurs) {
			if len(s.TopCooccurrences) >= topCooccurrences {
				break
			}
			s.TopCooccurrences = append(s.TopCooccurrences, PairCount{
				A:      nodeLabel(g, edge.Source),
				B:      nodeLabel(g, edge.Target),
				Weight: edge.Weight,
			})
		}
	}
	return s
}

func emptyCategoryHistogram() map[string]int {
	categories := []timeline.Category{
		timeline.CategoryPost, timeline.CategoryComment, timeline.CategoryShare,
		timeline.CategoryReaction, timeline.CategoryCodeCommit, timeline.CategoryCodeCreate,
		timeline.CategoryCodePush, timeline.CategoryCodePR, timeline.CategoryBlogPost,
		timeline.CategoryArticle, timeline.CategoryPaste, timeline.CategorySnippet,
		timeline.CategoryOther,
	}
	hist := make(map[string]int, len(categories))
	for _, c := range categories {
		hist[string(c)] = 0
	}
	return hist
}

// topN returns the n highest counts, sorted by descending count with ties
// broken by ascending label. The tie-break is arbitrary but deterministic.
func topN(counts map[string]int, n int) []Count {
	result := make([]Count, 0, len(counts))
	for label, count := range counts {
		result = append(result, Count{Label: label, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Label < result[j].Label
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nodeLabel(g *graph.Graph, key graph.NodeKey) string {
	if node, ok := g.Node(key); ok && node.Label != "" {
		return node.Label
	}
	return key.Identifier
}
