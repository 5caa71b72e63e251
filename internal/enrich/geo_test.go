package enrich

import (
	"testing"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

func newTestGeoTagger() *GeoTagger {
	return NewGeoTagger(config.GeoConfig{Enabled: true, MinConfidence: 0.5})
}

func TestGeoExplicitCoordinatesWin(t *testing.T) {
	g := newTestGeoTagger()
	ev, err := g.Annotate(timeline.Event{
		Content:  "checking in from Berlin",
		Metadata: map[string]any{"lat": 35.0, "lng": 139.0, "location_name": "Somewhere"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Location == nil {
		t.Fatal("location not set")
	}
	if ev.Location.Lat != 35.0 || ev.Location.Lng != 139.0 || ev.Location.Name != "Somewhere" {
		t.Errorf("location = %+v, want explicit metadata coordinates", ev.Location)
	}
}

func TestGeoStructuredMetadata(t *testing.T) {
	g := newTestGeoTagger()
	ev, _ := g.Annotate(timeline.Event{
		Content: "no places in the text",
		Metadata: map[string]any{
			"geo": map[string]any{"lat": 48.85, "lng": 2.35, "name": "Paris", "country_code": "FR"},
		},
	})
	if ev.Location == nil {
		t.Fatal("location not set")
	}
	if ev.Location.Name != "Paris" || ev.Location.CountryCode != "FR" {
		t.Errorf("location = %+v, want structured geo metadata", ev.Location)
	}
}

func TestGeoLocationEntity(t *testing.T) {
	g := newTestGeoTagger()
	ev, _ := g.Annotate(timeline.Event{
		Content:  "airport chaos again",
		Entities: []timeline.Entity{{Text: "Tokyo", Type: timeline.EntityLocation, Confidence: 0.9}},
	})
	if ev.Location == nil {
		t.Fatal("location not set")
	}
	if ev.Location.Name != "Tokyo" || ev.Location.CountryCode != "JP" {
		t.Errorf("location = %+v, want Tokyo from gazetteer", ev.Location)
	}
}

func TestGeoContentScan(t *testing.T) {
	g := newTestGeoTagger()
	ev, _ := g.Annotate(timeline.Event{Content: "flew back to Berlin yesterday"})
	if ev.Location == nil {
		t.Fatal("location not set")
	}
	if ev.Location.Name != "Berlin" {
		t.Errorf("location = %+v, want Berlin", ev.Location)
	}

	ev, _ = g.Annotate(timeline.Event{Content: "meetup happening in New York soon"})
	if ev.Location == nil || ev.Location.Name != "New York" {
		t.Errorf("location = %+v, want New York (double word before parts)", ev.Location)
	}
}

func TestGeoNeverFabricates(t *testing.T) {
	g := newTestGeoTagger()
	ev, _ := g.Annotate(timeline.Event{Content: "nothing resembling a place name here"})
	if ev.Location != nil {
		t.Errorf("location fabricated: %+v", ev.Location)
	}
}

func TestGeoExistingLocationUntouched(t *testing.T) {
	g := newTestGeoTagger()
	original := &timeline.GeoLocation{Lat: 1, Lng: 2, Name: "Adapter Supplied"}
	ev, _ := g.Annotate(timeline.Event{Content: "in Berlin today", Location: original})
	if ev.Location != original {
		t.Errorf("adapter-supplied location replaced: %+v", ev.Location)
	}
}

func TestGazetteerConfigExtension(t *testing.T) {
	gz := NewGazetteer(map[string]config.GeoPoint{
		"Springfield": {Lat: 39.78, Lng: -89.65, Country: "US"},
	})
	loc, ok := gz.Lookup("springfield")
	if !ok {
		t.Fatal("configured place not found")
	}
	if loc.CountryCode != "US" {
		t.Errorf("country = %q, want US", loc.CountryCode)
	}
	// Built-ins survive the extension.
	if _, ok := gz.Lookup("London"); !ok {
		t.Error("built-in place lost after extension")
	}
}
