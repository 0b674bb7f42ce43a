package cache

import (
	"fmt"
	"time"

	"ainewsag/internal/models"

	"github.com/patrickmn/go-cache"
)

// Manager caches hot read paths (article listings, stats) between pipeline
// runs. The pipeline flushes it whenever stored data changes.
type Manager struct {
	cache *cache.Cache
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

// ArticleListKey builds the cache key for a filtered article listing.
func ArticleListKey(filter models.ArticleFilter) string {
	return fmt.Sprintf("articles:%s:%s:%d", filter.Sentiment, filter.Category, filter.Limit)
}

// StatsKey is the cache key for dashboard statistics.
const StatsKey = "stats"

func (m *Manager) Get(key string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	return m.cache.Get(key)
}

func (m *Manager) Set(key string, value interface{}, ttl time.Duration) {
	if m == nil {
		return
	}
	m.cache.Set(key, value, ttl)
}

func (m *Manager) Delete(key string) {
	if m == nil {
		return
	}
	m.cache.Delete(key)
}

// Flush drops every cached value. Safe on a nil manager so callers without
// caching configured need no guards.
func (m *Manager) Flush() {
	if m == nil {
		return
	}
	m.cache.Flush()
}
