package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Sentiment values the analyzer is allowed to produce
const (
	SentimentBullish = "Bullish"
	SentimentNeutral = "Neutral"
	SentimentBearish = "Bearish"
)

// ValidSentiment reports whether s is one of the three allowed sentiment values
func ValidSentiment(s string) bool {
	return s == SentimentBullish || s == SentimentNeutral || s == SentimentBearish
}

// Entry represents a single item parsed from a feed before persistence
type Entry struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary"`
	PublishedAt *time.Time `json:"published_at"`
}

// Analysis is the structured classification produced by the model for one article
type Analysis struct {
	Sentiment           string    `json:"sentiment"`
	SentimentScore      float64   `json:"sentiment_score"`
	Category            string    `json:"category"`
	BubbleIndicators    []string  `json:"bubble_indicators"`
	AISummary           string    `json:"ai_summary"`
	InvestmentRelevance string    `json:"investment_relevance"`
	AnalyzedAt          time.Time `json:"analyzed_at"`
}

// Article is the persisted, deduplicated representation of an entry,
// optionally enriched with an analysis
type Article struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary"`
	PublishedAt *time.Time `json:"published_at"`
	FetchedAt   time.Time  `json:"fetched_at"`
	IsRead      bool       `json:"is_read"`
	Analysis    *Analysis  `json:"analysis,omitempty"`
}

// Pending reports whether the article still awaits analysis
func (a *Article) Pending() bool {
	return a.Analysis == nil
}

// ArticleFilter narrows article listings
type ArticleFilter struct {
	Sentiment string `json:"sentiment,omitempty"`
	Category  string `json:"category,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// FeedReport records the outcome of fetching a single feed
type FeedReport struct {
	Feed    string `json:"feed"`
	URL     string `json:"url"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// RefreshReport summarizes one refresh run
type RefreshReport struct {
	FeedsAttempted int          `json:"feeds_attempted"`
	FeedsFailed    int          `json:"feeds_failed"`
	ArticlesNew    int          `json:"articles_new"`
	Feeds          []FeedReport `json:"feeds"`
	CompletedAt    time.Time    `json:"completed_at"`
}

// ArticleFailure records why a single article could not be analyzed
type ArticleFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// AnalyzeReport summarizes one analysis batch
type AnalyzeReport struct {
	Attempted     int              `json:"attempted"`
	Succeeded     int              `json:"succeeded"`
	Failed        int              `json:"failed"`
	Failures      []ArticleFailure `json:"failures,omitempty"`
	NotConfigured bool             `json:"not_configured,omitempty"`
	CompletedAt   time.Time        `json:"completed_at"`
}

// Stats holds sentiment and category counts for the dashboard
type Stats struct {
	Total      int            `json:"total"`
	Analyzed   int            `json:"analyzed"`
	Sentiment  map[string]int `json:"sentiment"`
	Categories map[string]int `json:"categories"`
}

// ArticleID derives the stable identity of an article from its link and title.
// The title is lower-cased with whitespace collapsed so incidental formatting
// differences between feeds still map to the same identity. IDs are never
// regenerated once stored.
func ArticleID(link, title string) string {
	normalized := strings.TrimSpace(link) + "|" + strings.Join(strings.Fields(strings.ToLower(title)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
