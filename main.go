// Copyright (c) 2024 cblomart
// Licensed under the MIT License

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ainewsag/internal/analyzer"
	"ainewsag/internal/api"
	"ainewsag/internal/cache"
	"ainewsag/internal/config"
	"ainewsag/internal/fetcher"
	"ainewsag/internal/metrics"
	"ainewsag/internal/pipeline"
	"ainewsag/internal/poller"
	"ainewsag/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize cache for hot data
	cacheManager := cache.NewManager(cfg.CacheTTL)

	// Initialize persistent storage
	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer store.Close()

	// Prometheus registry for pipeline metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Feed fetcher and sentiment analyzer
	feedFetcher := fetcher.New(cfg.FetchTimeout, cfg.MaxPerFeed)
	claude := analyzer.NewClient(cfg.Claude, cfg.AnalyzeRatePerSec)
	if !claude.Configured() {
		log.Println("Warning: ANTHROPIC_API_KEY not set, sentiment analysis disabled")
	}

	// Pipeline ties fetch, store and analysis together
	pipe := pipeline.New(feedFetcher, store, claude, cacheManager, collector,
		cfg.Feeds, cfg.AnalyzeBatchSize, cfg.AnalyzeConcurrency)

	// Background poller runs refresh-then-analyze cycles
	backgroundPoller := poller.New(pipe, cfg.PollInterval)
	backgroundPoller.Start()

	// Initialize API server
	server := api.NewServer(store, pipe, backgroundPoller, claude, cacheManager, registry, cfg)

	log.Printf("Starting AI News Aggregator server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Cache TTL: %v", cfg.CacheTTL)
	log.Printf("Configured feeds: %d", len(cfg.Feeds))
	log.Printf("Background polling interval: %v", cfg.PollInterval)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start signal handler in goroutine
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		backgroundPoller.Stop()
		cancel()
	}()

	// Start the server with context for graceful shutdown
	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}
