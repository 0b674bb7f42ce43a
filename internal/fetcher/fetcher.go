package fetcher

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"ainewsag/internal/config"
	"ainewsag/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const maxSummaryLength = 3000

// Fetcher retrieves configured RSS feeds and normalizes their entries.
// Feeds are fetched in parallel and failures are isolated per feed.
type Fetcher struct {
	parser     *gofeed.Parser
	timeout    time.Duration
	maxPerFeed int
}

func New(timeout time.Duration, maxPerFeed int) *Fetcher {
	return &Fetcher{
		parser:     gofeed.NewParser(),
		timeout:    timeout,
		maxPerFeed: maxPerFeed,
	}
}

type feedResult struct {
	index   int
	entries []models.Entry
	report  models.FeedReport
}

// FetchAll fetches every configured feed and returns the normalized entries
// together with a per-feed report. A feed that is unreachable or fails to
// parse contributes no entries and a report with the failure reason; it never
// aborts the remaining feeds.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []config.FeedConfig) ([]models.Entry, []models.FeedReport) {
	var wg sync.WaitGroup
	results := make(chan feedResult, len(feeds))

	for i, feed := range feeds {
		wg.Add(1)
		go func(index int, feed config.FeedConfig) {
			defer wg.Done()
			results <- f.fetchFeed(ctx, index, feed)
		}(i, feed)
	}

	wg.Wait()
	close(results)

	// Re-order results to match the configured feed order
	ordered := make([]feedResult, len(feeds))
	for result := range results {
		ordered[result.index] = result
	}

	var entries []models.Entry
	reports := make([]models.FeedReport, 0, len(feeds))
	for _, result := range ordered {
		entries = append(entries, result.entries...)
		reports = append(reports, result.report)
	}

	return entries, reports
}

func (f *Fetcher) fetchFeed(ctx context.Context, index int, feed config.FeedConfig) feedResult {
	report := models.FeedReport{Feed: feed.Name, URL: feed.URL}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(feed.URL, fetchCtx)
	if err != nil {
		log.Printf("fetcher: feed %q failed: %v", feed.Name, err)
		report.Error = err.Error()
		return feedResult{index: index, report: report}
	}

	var entries []models.Entry
	for _, item := range parsed.Items {
		if len(entries) >= f.maxPerFeed {
			break
		}

		entry, ok := normalizeItem(feed.Name, item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	report.Entries = len(entries)
	return feedResult{index: index, entries: entries, report: report}
}

// normalizeItem maps a parsed feed item onto the fixed Entry shape.
// Entries without a title or link are unusable and dropped; a missing
// summary or timestamp is tolerated.
func normalizeItem(source string, item *gofeed.Item) (models.Entry, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return models.Entry{}, false
	}

	summary := item.Content
	if summary == "" {
		summary = item.Description
	}
	summary = stripHTML(summary)
	if len(summary) > maxSummaryLength {
		summary = summary[:maxSummaryLength]
	}

	var published *time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed
	}

	return models.Entry{
		Source:      source,
		Title:       title,
		Link:        link,
		Summary:     summary,
		PublishedAt: published,
	}, true
}

// stripHTML reduces feed HTML to plain text with collapsed whitespace.
func stripHTML(content string) string {
	if content == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
