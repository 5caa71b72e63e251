package enrich

import (
	"github.com/footprintlab/timeline-engine/internal/timeline"
)

var positiveWords = toSet(
	"good", "great", "awesome", "amazing", "excellent", "love", "loved",
	"wonderful", "fantastic", "brilliant", "happy", "glad", "best",
	"beautiful", "perfect", "nice", "thanks", "thank", "impressive",
	"enjoy", "enjoyed", "excited", "exciting", "win", "won", "success",
	"successful", "helpful", "useful", "fast", "solid", "clean", "cool",
	"neat", "elegant", "powerful", "reliable", "stable", "improved",
	"improvement", "fixed", "works", "working", "congrats", "congratulations",
)

var negativeWords = toSet(
	"bad", "terrible", "awful", "horrible", "hate", "hated", "worst",
	"broken", "breaks", "bug", "bugs", "buggy", "fail", "failed",
	"failure", "failing", "crash", "crashed", "crashes", "slow",
	"useless", "annoying", "angry", "sad", "disappointed",
	"disappointing", "wrong", "error", "errors", "problem", "problems",
	"issue", "issues", "ugly", "painful", "pain", "regression",
	"unstable", "unreliable", "confusing", "frustrating", "frustrated",
)

// SentimentScorer attaches a lexicon-based sentiment to events. The score
// formula deliberately dampens magnitude on short texts with few
// sentiment-bearing words; the +5 smoothing term is load-bearing for test
// parity and must not change.
type SentimentScorer struct{}

// NewSentimentScorer creates the stage.
func NewSentimentScorer() *SentimentScorer {
	return &SentimentScorer{}
}

func (s *SentimentScorer) Name() string { return "sentiment" }

// Annotate scores the event text:
//
//	score = (pos - neg) / min(totalTokens, pos+neg+5), clamped to [-1, 1]
//
// label is positive above 0.1, negative below -0.1, neutral otherwise. A
// text with zero lexicon matches scores exactly 0 and labels neutral.
func (s *SentimentScorer) Annotate(ev timeline.Event) (timeline.Event, error) {
	tokens := tokenize(ev.Text())
	pos, neg := 0, 0
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}

	denominator := len(tokens)
	if smoothed := pos + neg + 5; smoothed < denominator {
		denominator = smoothed
	}

	score := 0.0
	magnitude := 0.0
	if denominator > 0 {
		score = float64(pos-neg) / float64(denominator)
		magnitude = float64(pos+neg) / float64(denominator)
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	label := timeline.SentimentNeutral
	switch {
	case score > 0.1:
		label = timeline.SentimentPositive
	case score < -0.1:
		label = timeline.SentimentNegative
	}

	ev.Sentiment = &timeline.Sentiment{
		Score:     score,
		Magnitude: magnitude,
		Label:     label,
	}
	return ev, nil
}
