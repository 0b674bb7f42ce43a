// Package metrics collects and exposes Prometheus metrics for the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector aggregates pipeline counters. All methods are safe on a nil
// receiver so tests can wire a pipeline without metrics.
type Collector struct {
	feedFetch       *prometheus.CounterVec
	articlesNew     prometheus.Counter
	analysisTotal   *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
}

// NewCollector registers the pipeline metrics with the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		feedFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ainewsag_feed_fetch_total",
			Help: "Feed fetch attempts by feed name and outcome",
		}, []string{"feed", "outcome"}),
		articlesNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ainewsag_articles_new_total",
			Help: "Articles newly inserted by refresh runs",
		}),
		analysisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ainewsag_analysis_total",
			Help: "Article analysis attempts by result",
		}, []string{"result"}),
		analyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ainewsag_analyze_duration_seconds",
			Help:    "Latency of single-article analysis calls",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.feedFetch, c.articlesNew, c.analysisTotal, c.analyzeDuration)
	return c
}

func (c *Collector) RecordFeedFetch(feed string, success bool) {
	if c == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.feedFetch.WithLabelValues(feed, outcome).Inc()
}

func (c *Collector) RecordArticlesNew(count int) {
	if c == nil || count <= 0 {
		return
	}
	c.articlesNew.Add(float64(count))
}

func (c *Collector) RecordAnalysis(result string) {
	if c == nil {
		return
	}
	c.analysisTotal.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveAnalyzeDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.analyzeDuration.Observe(d.Seconds())
}
