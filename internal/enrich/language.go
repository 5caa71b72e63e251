package enrich

import (
	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

// functionWords holds a small set of high-frequency function words per
// language. The detector scores each language by the fraction of an event's
// tokens found in its set; the best ratio wins if it clears the floor.
var functionWords = map[string]map[string]struct{}{
	"en": toSet("the", "and", "is", "in", "to", "of", "it", "that", "for",
		"with", "was", "this", "are", "not", "have", "from", "they", "you"),
	"es": toSet("el", "la", "de", "que", "y", "en", "un", "una", "los",
		"las", "por", "con", "para", "es", "no", "del", "se", "su"),
	"fr": toSet("le", "la", "les", "de", "des", "et", "est", "en", "un",
		"une", "que", "qui", "dans", "pour", "pas", "sur", "avec", "ce"),
	"de": toSet("der", "die", "das", "und", "ist", "in", "den", "von",
		"zu", "mit", "nicht", "ein", "eine", "auf", "sich", "auch", "dem"),
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// LanguageDetector assigns a best-effort language code. Texts too short or
// too ambiguous are left unset rather than guessed.
type LanguageDetector struct {
	minRatio float64
}

// NewLanguageDetector creates the stage from its configuration.
func NewLanguageDetector(cfg config.LanguageConfig) *LanguageDetector {
	minRatio := cfg.MinRatio
	if minRatio <= 0 {
		minRatio = 0.08
	}
	return &LanguageDetector{minRatio: minRatio}
}

func (d *LanguageDetector) Name() string { return "language" }

// Annotate sets Language to the code whose function-word ratio is highest,
// provided it clears the configured floor.
func (d *LanguageDetector) Annotate(ev timeline.Event) (timeline.Event, error) {
	tokens := tokenize(ev.Text())
	if len(tokens) == 0 {
		return ev, nil
	}

	best := ""
	bestRatio := 0.0
	for lang, words := range functionWords {
		hits := 0
		for _, tok := range tokens {
			if _, ok := words[tok]; ok {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(tokens))
		if ratio > bestRatio || (ratio == bestRatio && best != "" && lang < best) {
			best = lang
			bestRatio = ratio
		}
	}
	if bestRatio >= d.minRatio {
		ev.Language = best
	}
	return ev, nil
}
