package enrich

import (
	"regexp"
	"strings"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

// Per-pattern confidence constants. These are fixed heuristics, not model
// scores: structural patterns (URLs, emails) are near-certain, name-shaped
// token runs much less so.
const (
	confURL          = 0.95
	confEmail        = 0.95
	confHashtag      = 0.90
	confMention      = 0.90
	confOrganization = 0.75
	confPerson       = 0.70
)

var (
	urlRe     = regexp.MustCompile(`https?://[^\s<>"')\]]+`)
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	hashtagRe = regexp.MustCompile(`#[\pL\d_]+`)
	mentionRe = regexp.MustCompile(`@[A-Za-z0-9_]+`)
	orgRe     = regexp.MustCompile(`\b([A-Z][A-Za-z0-9]*) (Inc|Corp|Corporation|Company|LLC|Ltd|Labs|Systems|Software|Technologies|Foundation|Group)\b`)
	personRe  = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
)

// EntityExtractor attaches pattern-based entities to events. Extraction is
// purely lexical; a configurable confidence floor drops weak candidates
// before they reach the event.
type EntityExtractor struct {
	minConfidence float64
}

// NewEntityExtractor creates the stage from its configuration.
func NewEntityExtractor(cfg config.EntitiesConfig) *EntityExtractor {
	return &EntityExtractor{minConfidence: cfg.MinConfidence}
}

func (x *EntityExtractor) Name() string { return "entities" }

// Annotate extracts entities from the event text. Structural patterns are
// masked out before the name-shaped scans so an email never doubles as a
// mention and an organization never doubles as a person name.
func (x *EntityExtractor) Annotate(ev timeline.Event) (timeline.Event, error) {
	text := ev.Text()
	if text == "" {
		return ev, nil
	}

	var found []timeline.Entity
	seen := make(map[string]struct{})
	add := func(raw string, typ timeline.EntityType, confidence float64) {
		if confidence < x.minConfidence {
			return
		}
		key := string(typ) + ":" + strings.ToLower(raw)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		found = append(found, timeline.Entity{Text: raw, Type: typ, Confidence: confidence})
	}

	for _, m := range urlRe.FindAllString(text, -1) {
		add(m, timeline.EntityURL, confURL)
	}
	text = urlRe.ReplaceAllString(text, " ")

	for _, m := range emailRe.FindAllString(text, -1) {
		add(m, timeline.EntityEmail, confEmail)
	}
	text = emailRe.ReplaceAllString(text, " ")

	for _, m := range hashtagRe.FindAllString(text, -1) {
		add(strings.TrimPrefix(m, "#"), timeline.EntityHashtag, confHashtag)
	}
	for _, m := range mentionRe.FindAllString(text, -1) {
		add(strings.TrimPrefix(m, "@"), timeline.EntityMention, confMention)
	}
	text = hashtagRe.ReplaceAllString(text, " ")
	text = mentionRe.ReplaceAllString(text, " ")

	for _, m := range orgRe.FindAllString(text, -1) {
		add(m, timeline.EntityOrganization, confOrganization)
	}
	text = orgRe.ReplaceAllString(text, " ")

	for _, m := range personRe.FindAllString(text, -1) {
		add(m, timeline.EntityPerson, confPerson)
	}

	if len(found) > 0 {
		ev.Entities = append(ev.Entities, found...)
	}
	return ev, nil
}
