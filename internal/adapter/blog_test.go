package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/footprintlab/timeline-engine/internal/timeline"
	"github.com/footprintlab/timeline-engine/pkg/config"
)

const blogIndex = `<html><body>
<article>
  <h2><a href="/posts/first">First Post</a></h2>
  <time datetime="2025-03-01T09:00:00Z">March 1</time>
  <p>An opening summary.</p>
</article>
<article>
  <h2><a href="/posts/second">Second Post</a></h2>
  <time datetime="2025-04-15T09:00:00Z">April 15</time>
  <p>Another summary.</p>
</article>
<article>
  <h2><a href="/posts/broken">No Date Post</a></h2>
  <p>This one has no time element.</p>
</article>
</body></html>`

func TestBlogAdapterIngest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blogIndex)
	}))
	defer srv.Close()

	a := NewBlog(config.BlogAdapterConfig{
		Platform: "blog",
		IndexURL: srv.URL + "/posts/",
	}, srv.Client())

	events, err := a.Ingest(context.Background(), "@alice", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (undated entry skipped)", len(events))
	}

	first := events[0]
	if first.Category != timeline.CategoryBlogPost {
		t.Errorf("category = %q, want blog_post", first.Category)
	}
	if first.Title != "First Post" {
		t.Errorf("title = %q", first.Title)
	}
	if first.URL != srv.URL+"/posts/first" {
		t.Errorf("url = %q, want resolved against index", first.URL)
	}
	if first.Content != "An opening summary." {
		t.Errorf("content = %q", first.Content)
	}
	if first.Username != "alice" {
		t.Errorf("username = %q, want target handle", first.Username)
	}
}

func TestBlogAdapterDateRangeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, blogIndex)
	}))
	defer srv.Close()

	a := NewBlog(config.BlogAdapterConfig{Platform: "blog", IndexURL: srv.URL}, srv.Client())
	dateRange := &timeline.DateRange{
		Start: mustParse(t, "2025-04-01T00:00:00Z"),
	}
	events, err := a.Ingest(context.Background(), "@alice", dateRange)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Second Post" {
		t.Errorf("events = %v, want only the April post", events)
	}
}

func TestBlogAdapterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewBlog(config.BlogAdapterConfig{Platform: "blog", IndexURL: srv.URL, MaxRetries: 2}, srv.Client())
	if _, err := a.Ingest(context.Background(), "@alice", nil); err == nil {
		t.Error("expected error from failing index page")
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := parseTimestamp(s)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}
