package enrich

import (
	"regexp"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

// capitalizedRe matches single or double capitalized words, the only
// content tokens worth a gazetteer probe.
var capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)?\b`)

// GeoTagger resolves an event location without any network geocoding.
// Resolution order, first match wins: explicit coordinates in metadata,
// platform structured geo metadata, a location-typed entity above the
// confidence floor, then a capitalized-token scan of the content. An
// unresolved location is left unset, never guessed.
type GeoTagger struct {
	gazetteer     *Gazetteer
	minConfidence float64
}

// NewGeoTagger creates the stage from its configuration.
func NewGeoTagger(cfg config.GeoConfig) *GeoTagger {
	return &GeoTagger{
		gazetteer:     NewGazetteer(cfg.Gazetteer),
		minConfidence: cfg.MinConfidence,
	}
}

func (g *GeoTagger) Name() string { return "geo" }

// Annotate resolves the event's location. Events that already carry an
// adapter-supplied location are left untouched.
func (g *GeoTagger) Annotate(ev timeline.Event) (timeline.Event, error) {
	if ev.Location != nil {
		return ev, nil
	}
	if loc, ok := g.fromExplicitCoords(ev.Metadata); ok {
		ev.Location = loc
		return ev, nil
	}
	if loc, ok := g.fromStructuredGeo(ev.Metadata); ok {
		ev.Location = loc
		return ev, nil
	}
	if loc, ok := g.fromLocationEntity(ev.Entities); ok {
		ev.Location = loc
		return ev, nil
	}
	if loc, ok := g.fromContentScan(ev.Text()); ok {
		ev.Location = loc
		return ev, nil
	}
	return ev, nil
}

// fromExplicitCoords reads top-level lat/lng metadata keys.
func (g *GeoTagger) fromExplicitCoords(metadata map[string]any) (*timeline.GeoLocation, bool) {
	lat, okLat := asFloat(metadata["lat"])
	lng, okLng := asFloat(metadata["lng"])
	if !okLat || !okLng {
		return nil, false
	}
	loc := &timeline.GeoLocation{Lat: lat, Lng: lng}
	if name, ok := metadata["location_name"].(string); ok {
		loc.Name = name
	}
	return loc, true
}

// fromStructuredGeo reads a platform-specific geo object
// (metadata["geo"] with lat/lng and optional name/country fields).
func (g *GeoTagger) fromStructuredGeo(metadata map[string]any) (*timeline.GeoLocation, bool) {
	geo, ok := metadata["geo"].(map[string]any)
	if !ok {
		return nil, false
	}
	lat, okLat := asFloat(geo["lat"])
	lng, okLng := asFloat(geo["lng"])
	if !okLat || !okLng {
		return nil, false
	}
	loc := &timeline.GeoLocation{Lat: lat, Lng: lng}
	if name, ok := geo["name"].(string); ok {
		loc.Name = name
	}
	if cc, ok := geo["country_code"].(string); ok {
		loc.CountryCode = cc
	}
	return loc, true
}

func (g *GeoTagger) fromLocationEntity(entities []timeline.Entity) (*timeline.GeoLocation, bool) {
	for _, ent := range entities {
		if ent.Type != timeline.EntityLocation || ent.Confidence < g.minConfidence {
			continue
		}
		if loc, ok := g.gazetteer.Lookup(ent.Text); ok {
			return &loc, true
		}
	}
	return nil, false
}

// fromContentScan probes capitalized single and double words against the
// gazetteer. Double-word candidates are tried before their parts so that
// "New York" does not fall through to "York".
func (g *GeoTagger) fromContentScan(text string) (*timeline.GeoLocation, bool) {
	for _, candidate := range capitalizedRe.FindAllString(text, -1) {
		if loc, ok := g.gazetteer.Lookup(candidate); ok {
			return &loc, true
		}
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
