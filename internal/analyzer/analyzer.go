package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ainewsag/internal/config"
	"ainewsag/internal/models"

	"golang.org/x/time/rate"
)

const (
	anthropicVersion = "2023-06-01"
	maxContentLength = 2500
	baseBackoff      = 500 * time.Millisecond
)

// Client calls the Anthropic Messages API to classify articles from an
// AI-investment perspective. It is safe for concurrent use; the only shared
// state is the configuration and the rate limiter.
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	maxTokens  int
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg config.ClaudeConfig, ratePerSecond float64) *Client {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}

	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

// Configured reports whether an API key is present. Without one, Analyze
// fails with KindNotConfigured instead of attempting a request.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Analyze classifies a single article. Transient failures (timeouts, rate
// limits, 5xx) are retried with exponential backoff up to the configured
// retry count; auth and malformed-request failures are surfaced immediately.
// A response that does not match the required schema is a parse failure,
// never coerced into a default classification.
func (c *Client) Analyze(ctx context.Context, article models.Article) (*models.Analysis, error) {
	if !c.Configured() {
		return nil, &Error{Kind: KindNotConfigured, Err: fmt.Errorf("no API key configured")}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindTransient, Err: err}
	}

	prompt := buildPrompt(article)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, &Error{Kind: KindTransient, Err: err}
			}
			log.Printf("analyzer: retrying article %s (attempt %d/%d)", article.ID, attempt, c.maxRetries)
		}

		text, err := c.invoke(ctx, prompt)
		if err != nil {
			lastErr = err
			if IsKind(err, KindTransient) {
				continue
			}
			return nil, err
		}

		return parseAnalysis(text)
	}

	return nil, lastErr
}

// invoke performs one Messages API call and returns the text content.
func (c *Client) invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransient, Err: fmt.Errorf("model request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("model error %s: %s", resp.Status, strings.TrimSpace(string(detail)))

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return "", &Error{Kind: KindTransient, Err: err}
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", &Error{Kind: KindAuth, Err: err}
		default:
			return "", &Error{Kind: KindInvalidRequest, Err: err}
		}
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &Error{Kind: KindParse, Err: fmt.Errorf("decode response: %w", err)}
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", &Error{Kind: KindParse, Err: fmt.Errorf("response contains no text content")}
}

// buildPrompt produces the deterministic classification prompt. Title and
// summary are truncated so long articles stay within model input limits.
func buildPrompt(article models.Article) string {
	content := article.Summary
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	return fmt.Sprintf(`Analyze this AI news article from an INVESTMENT perspective, focusing on AI bubble indicators.

ARTICLE TITLE: %s
CONTENT: %s

Respond with JSON only, using exactly this schema:
{
    "summary": "1-3 sentence summary of the key points",
    "category": "One of: AI Funding | AI Valuations | AI Layoffs | AI Products | AI Research | AI Regulation | AI Market",
    "sentiment": "exactly one of: Bullish, Neutral, Bearish",
    "sentiment_score": -1.0 to 1.0 (bearish to bullish),
    "bubble_indicators": ["list", "of", "bubble", "warning", "signs", "if", "any"],
    "investment_relevance": "Brief note on why this matters for AI investors"
}

Focus on identifying:
- Overvaluation signals (excessive funding, unrealistic valuations)
- Market correction signs (layoffs, funding pullback, failed products)
- Hype vs reality gaps
- Sustainable growth indicators`, article.Title, content)
}

// modelPayload is the untrusted shape the model is asked to return.
type modelPayload struct {
	Summary             string   `json:"summary"`
	Category            string   `json:"category"`
	Sentiment           string   `json:"sentiment"`
	SentimentScore      float64  `json:"sentiment_score"`
	BubbleIndicators    []string `json:"bubble_indicators"`
	InvestmentRelevance string   `json:"investment_relevance"`
}

// parseAnalysis extracts and validates the JSON classification from the
// model's text response. Validation failures are parse failures: a missing
// or out-of-range sentiment is rejected, never defaulted.
func parseAnalysis(text string) (*models.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("no JSON object in response")}
	}

	var payload modelPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	if !models.ValidSentiment(payload.Sentiment) {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("sentiment %q outside allowed set", payload.Sentiment)}
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("missing summary")}
	}
	if strings.TrimSpace(payload.Category) == "" {
		return nil, &Error{Kind: KindParse, Err: fmt.Errorf("missing category")}
	}

	indicators := payload.BubbleIndicators
	if indicators == nil {
		indicators = []string{}
	}

	return &models.Analysis{
		Sentiment:           payload.Sentiment,
		SentimentScore:      payload.SentimentScore,
		Category:            payload.Category,
		BubbleIndicators:    indicators,
		AISummary:           payload.Summary,
		InvestmentRelevance: payload.InvestmentRelevance,
		AnalyzedAt:          time.Now().UTC(),
	}, nil
}

func sleepBackoff(ctx context.Context, attempt int) error {
	delay := baseBackoff << (attempt - 1)

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
