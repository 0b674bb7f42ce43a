package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ainewsag/internal/config"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Test AI Feed</title>
  <link>https://example.com</link>
  <item>
    <title>AI Startup Raises $2B</title>
    <link>https://example.com/funding</link>
    <description>&lt;p&gt;A &lt;b&gt;huge&lt;/b&gt; funding   round.&lt;/p&gt;</description>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  </item>
  <item>
    <title>Model Benchmarks Questioned</title>
    <link>https://example.com/benchmarks</link>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
</channel>
</rss>`

func rssServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
}

func TestFetchAll_NormalizesEntries(t *testing.T) {
	server := rssServer(t, sampleRSS)
	defer server.Close()

	f := New(5*time.Second, 15)
	feeds := []config.FeedConfig{{Name: "Test AI Feed", URL: server.URL}}

	entries, reports := f.FetchAll(context.Background(), feeds)

	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}
	if reports[0].Error != "" {
		t.Errorf("Expected no error, got %q", reports[0].Error)
	}
	if reports[0].Entries != 2 {
		t.Errorf("Expected 2 usable entries reported, got %d", reports[0].Entries)
	}

	// The entry without a title must have been dropped
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Source != "Test AI Feed" {
		t.Errorf("Expected source 'Test AI Feed', got %q", first.Source)
	}
	if first.Title != "AI Startup Raises $2B" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.Link != "https://example.com/funding" {
		t.Errorf("Unexpected link %q", first.Link)
	}
	if first.Summary != "A huge funding round." {
		t.Errorf("Expected HTML stripped and whitespace collapsed, got %q", first.Summary)
	}
	if first.PublishedAt == nil {
		t.Fatal("Expected a published timestamp")
	}
	if first.PublishedAt.Year() != 2006 {
		t.Errorf("Unexpected published year %d", first.PublishedAt.Year())
	}

	// Second entry has no pubDate
	if entries[1].PublishedAt != nil {
		t.Errorf("Expected nil published timestamp, got %v", entries[1].PublishedAt)
	}
}

func TestFetchAll_FaultIsolation(t *testing.T) {
	good := rssServer(t, sampleRSS)
	defer good.Close()

	bad := rssServer(t, "this is not xml {")
	defer bad.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	f := New(5*time.Second, 15)
	feeds := []config.FeedConfig{
		{Name: "good", URL: good.URL},
		{Name: "bad", URL: bad.URL},
		{Name: "down", URL: down.URL},
	}

	entries, reports := f.FetchAll(context.Background(), feeds)

	if len(entries) != 2 {
		t.Errorf("Expected 2 entries from the healthy feed, got %d", len(entries))
	}

	if len(reports) != 3 {
		t.Fatalf("Expected 3 reports, got %d", len(reports))
	}

	// Reports keep the configured feed order
	if reports[0].Feed != "good" || reports[0].Error != "" {
		t.Errorf("Expected feed 'good' to succeed, got %+v", reports[0])
	}
	if reports[1].Feed != "bad" || reports[1].Error == "" {
		t.Errorf("Expected feed 'bad' to fail, got %+v", reports[1])
	}
	if reports[2].Feed != "down" || reports[2].Error == "" {
		t.Errorf("Expected feed 'down' to fail, got %+v", reports[2])
	}
}

func TestFetchAll_MaxPerFeed(t *testing.T) {
	server := rssServer(t, sampleRSS)
	defer server.Close()

	f := New(5*time.Second, 1)
	feeds := []config.FeedConfig{{Name: "capped", URL: server.URL}}

	entries, reports := f.FetchAll(context.Background(), feeds)

	if len(entries) != 1 {
		t.Errorf("Expected entries capped at 1, got %d", len(entries))
	}
	if reports[0].Entries != 1 {
		t.Errorf("Expected report to count 1 entry, got %d", reports[0].Entries)
	}
}

func TestFetchAll_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer slow.Close()

	f := New(100*time.Millisecond, 15)
	feeds := []config.FeedConfig{{Name: "slow", URL: slow.URL}}

	start := time.Now()
	entries, reports := f.FetchAll(context.Background(), feeds)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected fetch to respect its timeout, took %v", elapsed)
	}

	if len(entries) != 0 {
		t.Errorf("Expected no entries from a timed-out feed, got %d", len(entries))
	}
	if reports[0].Error == "" {
		t.Error("Expected a failure reason for the timed-out feed")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>one</p><p>two</p>", "onetwo"},
		{"<div>spaced   <b>out</b>\n\ttext</div>", "spaced out text"},
	}

	for _, tt := range tests {
		if got := stripHTML(tt.input); got != tt.expected {
			t.Errorf("stripHTML(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
