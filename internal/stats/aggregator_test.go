package stats

import (
	"math"
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/enrich/graph"
	"github.com/footprintlab/timeline-engine/internal/timeline"
)

func statEvent(id string, platform timeline.Platform, ts time.Time) timeline.Event {
	return timeline.Event{
		ID:        id,
		Platform:  platform,
		Category:  timeline.CategoryPost,
		Timestamp: ts,
		Username:  "alice",
	}
}

func TestComputeEmptyInputPreInitializedBuckets(t *testing.T) {
	s := Compute(nil, nil, 0)
	if s.TotalEvents != 0 {
		t.Errorf("total = %d, want 0", s.TotalEvents)
	}
	if len(s.ByHour) != 24 || len(s.ByWeekday) != 7 || len(s.ByMonth) != 12 {
		t.Fatalf("histogram sizes %d/%d/%d, want 24/7/12",
			len(s.ByHour), len(s.ByWeekday), len(s.ByMonth))
	}
	for i, v := range s.ByHour {
		if v != 0 {
			t.Errorf("hour %d = %d, want 0", i, v)
		}
	}
	if len(s.ByCategory) != 13 {
		t.Errorf("category histogram has %d buckets, want all 13", len(s.ByCategory))
	}
	if s.ByCategory["post"] != 0 {
		t.Errorf("category post = %d, want pre-initialized 0", s.ByCategory["post"])
	}
}

func TestComputeActivityHistograms(t *testing.T) {
	// Wednesday 2025-03-12 at 14:xx.
	ts := time.Date(2025, 3, 12, 14, 5, 0, 0, time.UTC)
	events := []timeline.Event{
		statEvent("a", timeline.PlatformTwitter, ts),
		statEvent("b", timeline.PlatformTwitter, ts.Add(10*time.Minute)),
		statEvent("c", timeline.PlatformGitHub, ts.Add(24*time.Hour)),
	}

	s := Compute(events, nil, 0)
	if s.TotalEvents != 3 {
		t.Errorf("total = %d, want 3", s.TotalEvents)
	}
	if s.ByPlatform["twitter"] != 2 || s.ByPlatform["github"] != 1 {
		t.Errorf("by platform = %v", s.ByPlatform)
	}
	if s.ByHour[14] != 3 {
		t.Errorf("hour 14 = %d, want 3", s.ByHour[14])
	}
	if s.ByWeekday[int(time.Wednesday)] != 2 || s.ByWeekday[int(time.Thursday)] != 1 {
		t.Errorf("by weekday = %v", s.ByWeekday)
	}
	if s.ByMonth[2] != 3 { // March
		t.Errorf("march = %d, want 3", s.ByMonth[2])
	}
}

func TestComputeSentiment(t *testing.T) {
	jan := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)

	e1 := statEvent("a", timeline.PlatformTwitter, jan)
	e1.Sentiment = &timeline.Sentiment{Score: 0.5, Label: timeline.SentimentPositive}
	e2 := statEvent("b", timeline.PlatformTwitter, jan)
	e2.Sentiment = &timeline.Sentiment{Score: -0.5, Label: timeline.SentimentNegative}
	e3 := statEvent("c", timeline.PlatformTwitter, feb)
	e3.Sentiment = &timeline.Sentiment{Score: 0.2, Label: timeline.SentimentPositive}
	e4 := statEvent("d", timeline.PlatformTwitter, feb) // unscored

	s := Compute([]timeline.Event{e1, e2, e3, e4}, nil, 0)
	if s.Sentiment.Positive != 2 || s.Sentiment.Negative != 1 || s.Sentiment.Neutral != 0 {
		t.Errorf("distribution = %+v", s.Sentiment)
	}
	// (0.5 - 0.5 + 0.2) over the 3 scored events; the unscored one is excluded.
	if math.Abs(s.Sentiment.AverageScore-0.2/3) > 1e-9 {
		t.Errorf("average = %v, want %v", s.Sentiment.AverageScore, 0.2/3)
	}
	if len(s.Sentiment.MonthlyAverage) != 2 {
		t.Fatalf("monthly trend = %v, want 2 months", s.Sentiment.MonthlyAverage)
	}
	if s.Sentiment.MonthlyAverage[0].Month != "2025-01" || s.Sentiment.MonthlyAverage[1].Month != "2025-02" {
		t.Errorf("months not sorted: %v", s.Sentiment.MonthlyAverage)
	}
	if s.Sentiment.MonthlyAverage[0].Value != 0 {
		t.Errorf("january average = %v, want 0", s.Sentiment.MonthlyAverage[0].Value)
	}
}

func TestComputeTopTopicsTieBreak(t *testing.T) {
	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	e1 := statEvent("a", timeline.PlatformTwitter, ts)
	e1.Topics = []string{"zebra", "alpha"}
	e2 := statEvent("b", timeline.PlatformTwitter, ts)
	e2.Topics = []string{"zebra", "mango"}

	s := Compute([]timeline.Event{e1, e2}, nil, 10)
	if len(s.TopTopics) != 3 {
		t.Fatalf("topics = %v, want 3", s.TopTopics)
	}
	if s.TopTopics[0].Label != "zebra" || s.TopTopics[0].Count != 2 {
		t.Errorf("top topic = %+v, want zebra/2", s.TopTopics[0])
	}
	// Ties order by ascending label.
	if s.TopTopics[1].Label != "alpha" || s.TopTopics[2].Label != "mango" {
		t.Errorf("tie order = %v, want alpha before mango", s.TopTopics)
	}
}

func TestComputeTopicTrends(t *testing.T) {
	jan := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	e1 := statEvent("a", timeline.PlatformTwitter, jan)
	e1.Topics = []string{"golang"}
	e2 := statEvent("b", timeline.PlatformTwitter, mar)
	e2.Topics = []string{"golang"}

	s := Compute([]timeline.Event{e1, e2}, nil, 10)
	if len(s.TopicTrends) != 1 {
		t.Fatalf("trends = %v, want 1", s.TopicTrends)
	}
	trend := s.TopicTrends[0]
	if trend.Topic != "golang" || len(trend.Monthly) != 2 {
		t.Fatalf("trend = %+v", trend)
	}
	if trend.Monthly[0].Month != "2025-01" || trend.Monthly[0].Count != 1 {
		t.Errorf("trend january = %+v", trend.Monthly[0])
	}
}

func TestComputeEntitiesByType(t *testing.T) {
	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	e := statEvent("a", timeline.PlatformTwitter, ts)
	e.Entities = []timeline.Entity{
		{Text: "golang", Type: timeline.EntityHashtag, Confidence: 0.9},
		{Text: "golang", Type: timeline.EntityHashtag, Confidence: 0.9},
		{Text: "Acme Corp", Type: timeline.EntityOrganization, Confidence: 0.75},
	}

	s := Compute([]timeline.Event{e, e}, nil, 0)
	hashtags := s.EntitiesByType["hashtag"]
	if len(hashtags) != 1 || hashtags[0].Count != 4 {
		t.Errorf("hashtags = %v, want golang counted 4 times", hashtags)
	}
	if len(s.EntitiesByType["organization"]) != 1 {
		t.Errorf("organizations = %v", s.EntitiesByType["organization"])
	}
}

func TestComputeCooccurrencesFromGraph(t *testing.T) {
	g := graph.New()
	a := graph.EntityKey("hashtag", "golang")
	b := graph.EntityKey("organization", "Acme Corp")
	g.Touch(a, "golang", 1)
	g.Touch(b, "Acme Corp", 1)
	g.Connect(a, b, graph.EdgeCooccurs, nil)
	g.Connect(a, b, graph.EdgeCooccurs, nil)
	g.Connect(a, b, graph.EdgeMentioned, nil) // other types excluded

	s := Compute(nil, g, 0)
	if len(s.TopCooccurrences) != 1 {
		t.Fatalf("cooccurrences = %v, want 1", s.TopCooccurrences)
	}
	pair := s.TopCooccurrences[0]
	if pair.Weight != 2 {
		t.Errorf("weight = %d, want 2", pair.Weight)
	}
	if pair.A != "golang" || pair.B != "Acme Corp" {
		t.Errorf("pair = %+v, want node labels", pair)
	}
}
