package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
	"github.com/footprintlab/timeline-engine/pkg/resilience"
)

const defaultItemSelector = "article"

// BlogAdapter scrapes post entries from an HTML index page (the target's own
// blog or a mirror), producing blog_post events. Fetch retries are adapter
// policy; the orchestrator never retries.
type BlogAdapter struct {
	cfg    config.BlogAdapterConfig
	client *http.Client
	logger *slog.Logger
}

// NewBlog creates a BlogAdapter; a nil client gets a 20s-timeout default.
func NewBlog(cfg config.BlogAdapterConfig, client *http.Client) *BlogAdapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.ItemSelector == "" {
		cfg.ItemSelector = defaultItemSelector
	}
	return &BlogAdapter{
		cfg:    cfg,
		client: client,
		logger: slog.Default().With("component", "blog-adapter", "platform", cfg.Platform),
	}
}

// Platform returns the platform this adapter ingests for.
func (a *BlogAdapter) Platform() timeline.Platform {
	return timeline.Platform(a.cfg.Platform)
}

// TestConnection issues a HEAD request against the index page.
func (a *BlogAdapter) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, a.cfg.IndexURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching %s: %w", a.cfg.IndexURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("index page %s returned %d", a.cfg.IndexURL, resp.StatusCode)
	}
	return nil
}

// Ingest fetches the index page and extracts one event per post entry.
// Entries missing a link or an unparseable date are skipped individually.
func (a *BlogAdapter) Ingest(ctx context.Context, target string, dateRange *timeline.DateRange) ([]timeline.Event, error) {
	var doc *goquery.Document
	err := resilience.Retry(ctx, "blog-fetch", resilience.RetryConfig{MaxAttempts: a.cfg.MaxRetries}, func() error {
		var fetchErr error
		doc, fetchErr = a.fetchDocument(ctx, a.cfg.IndexURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	username := strings.TrimPrefix(target, "@")
	var events []timeline.Event
	skipped := 0
	doc.Find(a.cfg.ItemSelector).Each(func(i int, sel *goquery.Selection) {
		ev, ok := a.extractEntry(sel, username)
		if !ok {
			skipped++
			return
		}
		if dateRange.Contains(ev.Timestamp) {
			events = append(events, ev)
		}
	})
	a.logger.Info("index page scraped", "events", len(events), "skipped", skipped)
	return events, nil
}

func (a *BlogAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return doc, nil
}

// extractEntry pulls title, link, date, and summary out of one index item.
func (a *BlogAdapter) extractEntry(sel *goquery.Selection, username string) (timeline.Event, bool) {
	link := sel.Find("a").First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return timeline.Event{}, false
	}
	absolute := a.resolveURL(href)

	title := strings.TrimSpace(link.Text())
	if title == "" {
		title = strings.TrimSpace(sel.Find("h1,h2,h3").First().Text())
	}

	rawDate := ""
	dateSel := sel.Find("time").First()
	if dt, ok := dateSel.Attr("datetime"); ok {
		rawDate = dt
	} else {
		rawDate = strings.TrimSpace(dateSel.Text())
	}
	ts, err := a.parseDate(rawDate)
	if err != nil {
		a.logger.Debug("skipping entry with unparseable date", "url", absolute, "raw", rawDate)
		return timeline.Event{}, false
	}

	summary := strings.TrimSpace(sel.Find("p").First().Text())
	return timeline.Event{
		ID:                fmt.Sprintf("%s:%s", a.cfg.Platform, absolute),
		Platform:          timeline.Platform(a.cfg.Platform),
		Category:          timeline.CategoryBlogPost,
		Timestamp:         ts,
		OriginalTimestamp: rawDate,
		Title:             title,
		Content:           summary,
		URL:               absolute,
		Username:          username,
		Metadata:          map[string]any{"index_url": a.cfg.IndexURL},
	}, true
}

func (a *BlogAdapter) parseDate(raw string) (time.Time, error) {
	if a.cfg.DateFormat != "" {
		if ts, err := time.Parse(a.cfg.DateFormat, raw); err == nil {
			return ts, nil
		}
	}
	return parseTimestamp(raw)
}

func (a *BlogAdapter) resolveURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(a.cfg.IndexURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
