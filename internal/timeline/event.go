// Package timeline defines the core data model shared by every pipeline
// stage: the Event record, its enrichment annotations, and the Warning type
// used to report partial failures without aborting a run.
package timeline

import "time"

// Platform identifies the source a record came from. The set of platforms in
// a run is closed by the configured adapters.
type Platform string

const (
	PlatformTwitter    Platform = "twitter"
	PlatformGitHub     Platform = "github"
	PlatformReddit     Platform = "reddit"
	PlatformMastodon   Platform = "mastodon"
	PlatformHackerNews Platform = "hackernews"
	PlatformBlog       Platform = "blog"
	PlatformPastebin   Platform = "pastebin"
)

// Category classifies what kind of activity an event records.
type Category string

const (
	CategoryPost       Category = "post"
	CategoryComment    Category = "comment"
	CategoryShare      Category = "share"
	CategoryReaction   Category = "reaction"
	CategoryCodeCommit Category = "code_commit"
	CategoryCodeCreate Category = "code_create"
	CategoryCodePush   Category = "code_push"
	CategoryCodePR     Category = "code_pr"
	CategoryBlogPost   Category = "blog_post"
	CategoryArticle    Category = "article"
	CategoryPaste      Category = "paste"
	CategorySnippet    Category = "snippet"
	CategoryOther      Category = "other"
)

// EntityType is the coarse class assigned by the entity extractor. Location
// entities are only ever adapter-supplied.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityURL          EntityType = "url"
	EntityEmail        EntityType = "email"
	EntityHashtag      EntityType = "hashtag"
	EntityMention      EntityType = "mention"
	EntityLocation     EntityType = "location"
)

// Entity is a single extracted reference with a heuristic confidence.
type Entity struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"`
}

// SentimentLabel buckets a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment is the lexicon-based score attached by the sentiment stage.
// Score is always within [-1, 1].
type Sentiment struct {
	Score     float64        `json:"score"`
	Magnitude float64        `json:"magnitude"`
	Label     SentimentLabel `json:"label"`
}

// GeoLocation is a resolved coordinate. It is only ever produced from an
// explicit source signal or a gazetteer match, never guessed.
type GeoLocation struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Name        string  `json:"name,omitempty"`
	Address     string  `json:"address,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
}

// Media is an attachment reference supplied by an adapter.
type Media struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Engagement holds per-platform interaction counts.
type Engagement struct {
	Likes    int `json:"likes,omitempty"`
	Shares   int `json:"shares,omitempty"`
	Comments int `json:"comments,omitempty"`
	Views    int `json:"views,omitempty"`
}

// Relation links an event to another record on the same platform
// (reply-to, fork-of, and similar adapter-supplied relationships).
type Relation struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id"`
}

// Event is the unit of record. It is immutable after ingestion except for
// the annotation fields appended by enrichment stages; each stage owns only
// the fields it writes.
type Event struct {
	ID                string         `json:"id"`
	Platform          Platform       `json:"platform"`
	Category          Category       `json:"category"`
	Timestamp         time.Time      `json:"timestamp"`
	OriginalTimestamp string         `json:"original_timestamp,omitempty"`
	Title             string         `json:"title,omitempty"`
	Content           string         `json:"content"`
	URL               string         `json:"url,omitempty"`
	Username          string         `json:"username"`
	Location          *GeoLocation   `json:"location,omitempty"`
	Media             []Media        `json:"media,omitempty"`
	Metrics           *Engagement    `json:"metrics,omitempty"`
	Relations         []Relation     `json:"relations,omitempty"`
	Entities          []Entity       `json:"entities,omitempty"`
	Sentiment         *Sentiment     `json:"sentiment,omitempty"`
	Topics            []string       `json:"topics,omitempty"`
	Language          string         `json:"language,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// DateRange bounds an ingestion request. A zero Start or End means
// unbounded on that side.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Text returns the searchable text of the event: title and content joined.
// Enrichment stages operate on this rather than on Content alone so that
// title-only events (commits, blog posts) are still annotated.
func (e *Event) Text() string {
	if e.Title == "" {
		return e.Content
	}
	if e.Content == "" {
		return e.Title
	}
	return e.Title + "\n" + e.Content
}
