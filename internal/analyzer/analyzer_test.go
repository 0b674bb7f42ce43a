package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ainewsag/internal/config"
	"ainewsag/internal/models"
)

func testClient(endpoint string, retries int) *Client {
	return NewClient(config.ClaudeConfig{
		APIKey:     "test-key",
		Endpoint:   endpoint,
		Model:      "claude-test",
		MaxTokens:  600,
		Timeout:    2 * time.Second,
		MaxRetries: retries,
	}, 1000)
}

func modelResponse(text string) string {
	escaped := strings.ReplaceAll(text, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return fmt.Sprintf(`{"content":[{"type":"text","text":"%s"}]}`, escaped)
}

func testArticle() models.Article {
	return models.Article{
		ID:      "abc123",
		Title:   "AI Startup Raises $2B",
		Summary: "A huge funding round at a steep valuation.",
	}
}

const validClassification = `{
	"summary": "A startup raised a very large round.",
	"category": "Funding",
	"sentiment": "Bullish",
	"sentiment_score": 0.7,
	"bubble_indicators": ["overvaluation"],
	"investment_relevance": "Signals investor appetite."
}`

func TestAnalyze_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}
		w.Write([]byte(modelResponse("Here is the analysis:\n" + validClassification)))
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	analysis, err := client.Analyze(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Sentiment != models.SentimentBullish {
		t.Errorf("Expected Bullish, got %q", analysis.Sentiment)
	}
	if analysis.Category != "Funding" {
		t.Errorf("Expected category Funding, got %q", analysis.Category)
	}
	if analysis.SentimentScore != 0.7 {
		t.Errorf("Expected score 0.7, got %f", analysis.SentimentScore)
	}
	if len(analysis.BubbleIndicators) != 1 || analysis.BubbleIndicators[0] != "overvaluation" {
		t.Errorf("Unexpected bubble indicators %v", analysis.BubbleIndicators)
	}
	if analysis.AISummary == "" {
		t.Error("Expected a summary")
	}
	if analysis.AnalyzedAt.IsZero() {
		t.Error("Expected analyzed_at to be set")
	}
}

func TestAnalyze_MissingSentimentIsParseFailure(t *testing.T) {
	response := `{"summary": "something", "category": "AI Market", "bubble_indicators": []}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse(response)))
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindParse) {
		t.Errorf("Expected parse failure, got %v", err)
	}
}

func TestAnalyze_InvalidSentimentIsParseFailure(t *testing.T) {
	response := `{"summary": "something", "category": "AI Market", "sentiment": "Sideways"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse(response)))
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindParse) {
		t.Errorf("Expected parse failure, got %v", err)
	}
}

func TestAnalyze_NoJSONIsParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(modelResponse("I cannot analyze this article.")))
	}))
	defer server.Close()

	client := testClient(server.URL, 0)

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindParse) {
		t.Errorf("Expected parse failure, got %v", err)
	}
}

func TestAnalyze_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(modelResponse(validClassification)))
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	analysis, err := client.Analyze(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if analysis.Sentiment != models.SentimentBullish {
		t.Errorf("Unexpected sentiment %q", analysis.Sentiment)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
}

func TestAnalyze_TransientExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindTransient) {
		t.Errorf("Expected transient failure, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 requests (1 + 2 retries), got %d", got)
	}
}

func TestAnalyze_AuthFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindAuth) {
		t.Errorf("Expected auth failure, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 request, got %d", got)
	}
}

func TestAnalyze_BadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := testClient(server.URL, 2)

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindInvalidRequest) {
		t.Errorf("Expected invalid request failure, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 request, got %d", got)
	}
}

func TestAnalyze_NotConfigured(t *testing.T) {
	client := NewClient(config.ClaudeConfig{
		Endpoint: "https://api.anthropic.com/v1/messages",
		Model:    "claude-test",
		Timeout:  time.Second,
	}, 1)

	if client.Configured() {
		t.Error("Expected client without API key to report not configured")
	}

	_, err := client.Analyze(context.Background(), testArticle())
	if !IsKind(err, KindNotConfigured) {
		t.Errorf("Expected not-configured failure, got %v", err)
	}
}

func TestBuildPrompt_Truncation(t *testing.T) {
	article := models.Article{
		Title:   "Long Article",
		Summary: strings.Repeat("x", maxContentLength) + "OVERFLOW",
	}

	prompt := buildPrompt(article)

	if !strings.Contains(prompt, "Long Article") {
		t.Error("Expected prompt to contain the title")
	}
	if strings.Contains(prompt, "OVERFLOW") {
		t.Error("Expected summary to be truncated before the overflow marker")
	}

	// Deterministic: same input, same prompt
	if prompt != buildPrompt(article) {
		t.Error("Expected identical prompts for identical input")
	}
}

func TestParseAnalysis_NilIndicatorsNormalized(t *testing.T) {
	analysis, err := parseAnalysis(`{"summary": "s", "category": "AI Market", "sentiment": "Neutral"}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if analysis.BubbleIndicators == nil || len(analysis.BubbleIndicators) != 0 {
		t.Errorf("Expected empty non-nil indicators, got %v", analysis.BubbleIndicators)
	}
}
