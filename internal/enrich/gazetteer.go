package enrich

import (
	"strings"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

// Gazetteer is a static, read-only table mapping place names to
// coordinates. The core ships a fixed default set loaded at init;
// configuration may extend it, never shrink it.
type Gazetteer struct {
	places map[string]timeline.GeoLocation
}

// builtinPlaces is the default city/country table. Names are stored
// lowercase; lookup is exact and case-insensitive, nothing fuzzier.
var builtinPlaces = map[string]timeline.GeoLocation{
	"london":        {Lat: 51.5074, Lng: -0.1278, Name: "London", CountryCode: "GB"},
	"paris":         {Lat: 48.8566, Lng: 2.3522, Name: "Paris", CountryCode: "FR"},
	"berlin":        {Lat: 52.5200, Lng: 13.4050, Name: "Berlin", CountryCode: "DE"},
	"madrid":        {Lat: 40.4168, Lng: -3.7038, Name: "Madrid", CountryCode: "ES"},
	"rome":          {Lat: 41.9028, Lng: 12.4964, Name: "Rome", CountryCode: "IT"},
	"amsterdam":     {Lat: 52.3676, Lng: 4.9041, Name: "Amsterdam", CountryCode: "NL"},
	"lisbon":        {Lat: 38.7223, Lng: -9.1393, Name: "Lisbon", CountryCode: "PT"},
	"dublin":        {Lat: 53.3498, Lng: -6.2603, Name: "Dublin", CountryCode: "IE"},
	"vienna":        {Lat: 48.2082, Lng: 16.3738, Name: "Vienna", CountryCode: "AT"},
	"zurich":        {Lat: 47.3769, Lng: 8.5417, Name: "Zurich", CountryCode: "CH"},
	"stockholm":     {Lat: 59.3293, Lng: 18.0686, Name: "Stockholm", CountryCode: "SE"},
	"oslo":          {Lat: 59.9139, Lng: 10.7522, Name: "Oslo", CountryCode: "NO"},
	"copenhagen":    {Lat: 55.6761, Lng: 12.5683, Name: "Copenhagen", CountryCode: "DK"},
	"helsinki":      {Lat: 60.1699, Lng: 24.9384, Name: "Helsinki", CountryCode: "FI"},
	"warsaw":        {Lat: 52.2297, Lng: 21.0122, Name: "Warsaw", CountryCode: "PL"},
	"prague":        {Lat: 50.0755, Lng: 14.4378, Name: "Prague", CountryCode: "CZ"},
	"moscow":        {Lat: 55.7558, Lng: 37.6173, Name: "Moscow", CountryCode: "RU"},
	"istanbul":      {Lat: 41.0082, Lng: 28.9784, Name: "Istanbul", CountryCode: "TR"},
	"new york":      {Lat: 40.7128, Lng: -74.0060, Name: "New York", CountryCode: "US"},
	"san francisco": {Lat: 37.7749, Lng: -122.4194, Name: "San Francisco", CountryCode: "US"},
	"los angeles":   {Lat: 34.0522, Lng: -118.2437, Name: "Los Angeles", CountryCode: "US"},
	"chicago":       {Lat: 41.8781, Lng: -87.6298, Name: "Chicago", CountryCode: "US"},
	"seattle":       {Lat: 47.6062, Lng: -122.3321, Name: "Seattle", CountryCode: "US"},
	"austin":        {Lat: 30.2672, Lng: -97.7431, Name: "Austin", CountryCode: "US"},
	"boston":        {Lat: 42.3601, Lng: -71.0589, Name: "Boston", CountryCode: "US"},
	"toronto":       {Lat: 43.6532, Lng: -79.3832, Name: "Toronto", CountryCode: "CA"},
	"vancouver":     {Lat: 49.2827, Lng: -123.1207, Name: "Vancouver", CountryCode: "CA"},
	"mexico city":   {Lat: 19.4326, Lng: -99.1332, Name: "Mexico City", CountryCode: "MX"},
	"sao paulo":     {Lat: -23.5505, Lng: -46.6333, Name: "Sao Paulo", CountryCode: "BR"},
	"buenos aires":  {Lat: -34.6037, Lng: -58.3816, Name: "Buenos Aires", CountryCode: "AR"},
	"tokyo":         {Lat: 35.6762, Lng: 139.6503, Name: "Tokyo", CountryCode: "JP"},
	"osaka":         {Lat: 34.6937, Lng: 135.5023, Name: "Osaka", CountryCode: "JP"},
	"seoul":         {Lat: 37.5665, Lng: 126.9780, Name: "Seoul", CountryCode: "KR"},
	"beijing":       {Lat: 39.9042, Lng: 116.4074, Name: "Beijing", CountryCode: "CN"},
	"shanghai":      {Lat: 31.2304, Lng: 121.4737, Name: "Shanghai", CountryCode: "CN"},
	"hong kong":     {Lat: 22.3193, Lng: 114.1694, Name: "Hong Kong", CountryCode: "HK"},
	"singapore":     {Lat: 1.3521, Lng: 103.8198, Name: "Singapore", CountryCode: "SG"},
	"sydney":        {Lat: -33.8688, Lng: 151.2093, Name: "Sydney", CountryCode: "AU"},
	"melbourne":     {Lat: -37.8136, Lng: 144.9631, Name: "Melbourne", CountryCode: "AU"},
	"auckland":      {Lat: -36.8509, Lng: 174.7645, Name: "Auckland", CountryCode: "NZ"},
	"mumbai":        {Lat: 19.0760, Lng: 72.8777, Name: "Mumbai", CountryCode: "IN"},
	"bangalore":     {Lat: 12.9716, Lng: 77.5946, Name: "Bangalore", CountryCode: "IN"},
	"delhi":         {Lat: 28.7041, Lng: 77.1025, Name: "Delhi", CountryCode: "IN"},
	"dubai":         {Lat: 25.2048, Lng: 55.2708, Name: "Dubai", CountryCode: "AE"},
	"tel aviv":      {Lat: 32.0853, Lng: 34.7818, Name: "Tel Aviv", CountryCode: "IL"},
	"cairo":         {Lat: 30.0444, Lng: 31.2357, Name: "Cairo", CountryCode: "EG"},
	"lagos":         {Lat: 6.5244, Lng: 3.3792, Name: "Lagos", CountryCode: "NG"},
	"nairobi":       {Lat: -1.2921, Lng: 36.8219, Name: "Nairobi", CountryCode: "KE"},
	"cape town":     {Lat: -33.9249, Lng: 18.4241, Name: "Cape Town", CountryCode: "ZA"},
}

// NewGazetteer builds the lookup table: the built-in set plus any
// configured extensions.
func NewGazetteer(extra map[string]config.GeoPoint) *Gazetteer {
	places := make(map[string]timeline.GeoLocation, len(builtinPlaces)+len(extra))
	for name, loc := range builtinPlaces {
		places[name] = loc
	}
	for name, p := range extra {
		places[strings.ToLower(name)] = timeline.GeoLocation{
			Lat:         p.Lat,
			Lng:         p.Lng,
			Name:        name,
			CountryCode: p.Country,
		}
	}
	return &Gazetteer{places: places}
}

// Lookup resolves a place name with an exact, case-insensitive match.
func (g *Gazetteer) Lookup(name string) (timeline.GeoLocation, bool) {
	loc, ok := g.places[strings.ToLower(strings.TrimSpace(name))]
	return loc, ok
}
