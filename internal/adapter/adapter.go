// Package adapter defines the source contract consumed by the ingestion
// orchestrator and ships the built-in sources (NDJSON file exports, Kafka
// topics, blog index pages). Each adapter returns events in its source's
// native timezone; the orchestrator re-zones them.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
)

// Adapter is the capability interface every source implements. Ingest
// returns raw events for the target within the optional date range;
// TestConnection is a best-effort reachability probe whose failure only
// produces a warning.
type Adapter interface {
	Platform() timeline.Platform
	Ingest(ctx context.Context, target string, dateRange *timeline.DateRange) ([]timeline.Event, error)
	TestConnection(ctx context.Context) error
}

var validCategories = map[timeline.Category]struct{}{
	timeline.CategoryPost:       {},
	timeline.CategoryComment:    {},
	timeline.CategoryShare:      {},
	timeline.CategoryReaction:   {},
	timeline.CategoryCodeCommit: {},
	timeline.CategoryCodeCreate: {},
	timeline.CategoryCodePush:   {},
	timeline.CategoryCodePR:     {},
	timeline.CategoryBlogPost:   {},
	timeline.CategoryArticle:    {},
	timeline.CategoryPaste:      {},
	timeline.CategorySnippet:    {},
	timeline.CategoryOther:      {},
}

// timestampLayouts are tried in order when parsing a source's raw timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// rawRecord is the wire shape of a source export line or Kafka message.
type rawRecord struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Timestamp string         `json:"timestamp"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	URL       string         `json:"url"`
	Username  string         `json:"username"`
	Metadata  map[string]any `json:"metadata"`
}

// decodeRecord parses one raw JSON record into an Event. Records missing a
// required field (id, timestamp, username) are rejected; the caller drops
// them individually without aborting its batch.
func decodeRecord(platform timeline.Platform, data []byte) (timeline.Event, error) {
	var rec rawRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return timeline.Event{}, fmt.Errorf("decoding record: %w", err)
	}
	if rec.ID == "" {
		return timeline.Event{}, fmt.Errorf("record missing id")
	}
	if rec.Username == "" {
		return timeline.Event{}, fmt.Errorf("record %s missing username", rec.ID)
	}
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return timeline.Event{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	category := timeline.Category(rec.Category)
	if _, ok := validCategories[category]; !ok {
		category = timeline.CategoryOther
	}
	return timeline.Event{
		ID:                fmt.Sprintf("%s:%s", platform, rec.ID),
		Platform:          platform,
		Category:          category,
		Timestamp:         ts,
		OriginalTimestamp: rec.Timestamp,
		Title:             rec.Title,
		Content:           rec.Content,
		URL:               rec.URL,
		Username:          rec.Username,
		Metadata:          rec.Metadata,
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("record missing timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

// matchesTarget reports whether a record belongs to the requested target.
// Handles match the author, hashtags match the text, emails match either.
func matchesTarget(target string, ev *timeline.Event) bool {
	if target == "" {
		return true
	}
	lowered := strings.ToLower(target)
	text := strings.ToLower(ev.Text())
	switch {
	case strings.HasPrefix(lowered, "#"):
		return strings.Contains(text, lowered)
	case strings.Contains(lowered, "@") && !strings.HasPrefix(lowered, "@"):
		// Email target.
		return strings.EqualFold(ev.Username, lowered) || strings.Contains(text, lowered)
	default:
		handle := strings.TrimPrefix(lowered, "@")
		return strings.EqualFold(ev.Username, handle) || strings.Contains(text, "@"+handle)
	}
}
