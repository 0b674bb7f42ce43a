package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ainewsag/internal/analyzer"
	"ainewsag/internal/cache"
	"ainewsag/internal/config"
	"ainewsag/internal/metrics"
	"ainewsag/internal/models"
	"ainewsag/internal/storage"
)

// Fetcher retrieves and normalizes the configured feeds.
type Fetcher interface {
	FetchAll(ctx context.Context, feeds []config.FeedConfig) ([]models.Entry, []models.FeedReport)
}

// Analyzer produces a structured classification for one article.
type Analyzer interface {
	Configured() bool
	Analyze(ctx context.Context, article models.Article) (*models.Analysis, error)
}

// Pipeline coordinates fetch → dedupe/store → analyze. Refresh and Analyze
// are independent: they may run interleaved because every store write is
// atomic per article.
type Pipeline struct {
	fetcher     Fetcher
	store       storage.Storage
	analyzer    Analyzer
	cache       *cache.Manager
	metrics     *metrics.Collector
	feeds       []config.FeedConfig
	batchSize   int
	concurrency int
}

func New(
	fetcher Fetcher,
	store storage.Storage,
	analyzer Analyzer,
	cacheManager *cache.Manager,
	collector *metrics.Collector,
	feeds []config.FeedConfig,
	batchSize int,
	concurrency int,
) *Pipeline {
	if batchSize <= 0 {
		batchSize = 5
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Pipeline{
		fetcher:     fetcher,
		store:       store,
		analyzer:    analyzer,
		cache:       cacheManager,
		metrics:     collector,
		feeds:       feeds,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// Refresh fetches all configured feeds and stores entries not seen before.
// Per-feed failures are reported, never fatal; a store failure aborts the
// operation and is returned to the caller.
func (p *Pipeline) Refresh(ctx context.Context) (*models.RefreshReport, error) {
	entries, reports := p.fetcher.FetchAll(ctx, p.feeds)

	report := &models.RefreshReport{
		FeedsAttempted: len(reports),
		Feeds:          reports,
	}
	for _, feedReport := range reports {
		p.metrics.RecordFeedFetch(feedReport.Feed, feedReport.Error == "")
		if feedReport.Error != "" {
			report.FeedsFailed++
		}
	}

	newCount, err := p.store.UpsertNew(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to store entries: %w", err)
	}

	report.ArticlesNew = newCount
	report.CompletedAt = time.Now().UTC()
	p.metrics.RecordArticlesNew(newCount)

	if newCount > 0 {
		p.cache.Flush()
	}

	log.Printf("pipeline: refresh complete: %d feeds (%d failed), %d new articles",
		report.FeedsAttempted, report.FeedsFailed, report.ArticlesNew)

	return report, nil
}

// Analyze classifies a bounded batch of pending articles, oldest first.
// Parse failures skip the article and keep going; an auth failure stops the
// batch since it affects every remaining call. Cancelling ctx stops the
// batch between items; in-flight items finish and their results persist.
func (p *Pipeline) Analyze(ctx context.Context, batchSize int) (*models.AnalyzeReport, error) {
	report := &models.AnalyzeReport{}

	if !p.analyzer.Configured() {
		report.NotConfigured = true
		report.CompletedAt = time.Now().UTC()
		log.Printf("pipeline: analyze skipped: no API key configured")
		return report, nil
	}

	if batchSize <= 0 {
		batchSize = p.batchSize
	}

	pending, err := p.store.GetPending(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending articles: %w", err)
	}
	if len(pending) == 0 {
		report.CompletedAt = time.Now().UTC()
		return report, nil
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, p.concurrency)
	)

	for _, article := range pending {
		// Stop picking up new items once the batch is aborted
		if batchCtx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(article models.Article) {
			defer wg.Done()
			defer func() { <-sem }()

			failure, stop := p.analyzeOne(batchCtx, article, &mu, report)
			if failure != nil {
				mu.Lock()
				report.Failures = append(report.Failures, *failure)
				report.Failed++
				mu.Unlock()
			}
			if stop {
				cancel()
			}
		}(article)
	}

	wg.Wait()

	report.CompletedAt = time.Now().UTC()
	if report.Succeeded > 0 {
		p.cache.Flush()
	}

	log.Printf("pipeline: analyze complete: %d attempted, %d succeeded, %d failed",
		report.Attempted, report.Succeeded, report.Failed)

	return report, nil
}

// analyzeOne classifies a single article and persists the result. The stop
// return requests batch abort (auth or configuration failure).
func (p *Pipeline) analyzeOne(ctx context.Context, article models.Article, mu *sync.Mutex, report *models.AnalyzeReport) (*models.ArticleFailure, bool) {
	mu.Lock()
	report.Attempted++
	mu.Unlock()

	start := time.Now()
	analysis, err := p.analyzer.Analyze(ctx, article)
	p.metrics.ObserveAnalyzeDuration(time.Since(start))

	if err != nil {
		p.metrics.RecordAnalysis("failed")
		log.Printf("pipeline: analysis failed for %s: %v", article.ID, err)

		stop := analyzer.IsKind(err, analyzer.KindAuth) || analyzer.IsKind(err, analyzer.KindNotConfigured)
		return &models.ArticleFailure{ID: article.ID, Reason: err.Error()}, stop
	}

	if err := p.store.RecordAnalysis(ctx, article.ID, *analysis); err != nil {
		p.metrics.RecordAnalysis("store_failed")
		log.Printf("pipeline: failed to persist analysis for %s: %v", article.ID, err)
		return &models.ArticleFailure{ID: article.ID, Reason: err.Error()}, false
	}

	p.metrics.RecordAnalysis("succeeded")
	mu.Lock()
	report.Succeeded++
	mu.Unlock()

	return nil, false
}

// Reanalyze overwrites the analysis of a single article, analyzed or not.
// Re-analysis is deliberately a separate operation: Analyze never touches
// articles that already have a result.
func (p *Pipeline) Reanalyze(ctx context.Context, id string) (*models.Article, error) {
	article, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	analysis, err := p.analyzer.Analyze(ctx, *article)
	if err != nil {
		return nil, err
	}

	if err := p.store.RecordAnalysis(ctx, id, *analysis); err != nil {
		return nil, err
	}

	p.cache.Flush()
	return p.store.Get(ctx, id)
}
