package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "AINEWSAG_CONFIG"

// FeedConfig describes a single RSS source
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ClaudeConfig defines how to contact the Anthropic Messages API
type ClaudeConfig struct {
	APIKey     string
	Endpoint   string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
}

// SecurityConfig represents security configuration for the API server
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

type Config struct {
	Port     int
	DataDir  string
	CacheTTL time.Duration

	Feeds        []FeedConfig
	MaxPerFeed   int
	FetchTimeout time.Duration

	PollInterval       time.Duration
	AnalyzeBatchSize   int
	AnalyzeConcurrency int
	AnalyzeRatePerSec  float64

	Claude ClaudeConfig

	EnableSPA     bool
	EnableSwagger bool
	Security      SecurityConfig
}

// fileConfig is the optional YAML overlay; env vars win over file values.
type fileConfig struct {
	Feeds  []FeedConfig `yaml:"feeds"`
	Claude struct {
		APIKey    string `yaml:"apiKey"`
		Endpoint  string `yaml:"endpoint"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"maxTokens"`
	} `yaml:"claude"`
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8080),
		DataDir:            getEnv("DATA_DIR", "./data"),
		CacheTTL:           getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		MaxPerFeed:         getEnvAsInt("MAX_ARTICLES_PER_FEED", 15),
		FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 15*time.Second),
		PollInterval:       getEnvAsDuration("POLL_INTERVAL", 15*time.Minute),
		AnalyzeBatchSize:   getEnvAsInt("ANALYZE_BATCH_SIZE", 5),
		AnalyzeConcurrency: getEnvAsInt("ANALYZE_CONCURRENCY", 2),
		AnalyzeRatePerSec:  getEnvAsFloat("ANALYZE_RATE_PER_SECOND", 1.0),
		EnableSPA:          getEnvAsBool("ENABLE_SPA", true),
		EnableSwagger:      getEnvAsBool("ENABLE_SWAGGER", true),
		Security:           loadSecurityConfig(),
	}

	// Optional YAML config file for feeds and model settings
	if path := os.Getenv(configPathEnv); path != "" {
		applyConfigFile(cfg, path)
	}

	cfg.Claude = loadClaudeConfig(cfg.Claude)

	// Feeds from environment override the file
	if feeds := loadFeedsFromEnv(); len(feeds) > 0 {
		cfg.Feeds = feeds
	}
	if len(cfg.Feeds) == 0 {
		cfg.Feeds = getDefaultFeeds()
	}

	return cfg
}

func applyConfigFile(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("config: cannot read %s: %v (ignoring)", path, err)
		return
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		log.Printf("config: cannot parse %s: %v (ignoring)", path, err)
		return
	}

	if len(fc.Feeds) > 0 {
		cfg.Feeds = fc.Feeds
	}
	cfg.Claude.APIKey = fc.Claude.APIKey
	cfg.Claude.Endpoint = fc.Claude.Endpoint
	cfg.Claude.Model = fc.Claude.Model
	if fc.Claude.MaxTokens > 0 {
		cfg.Claude.MaxTokens = fc.Claude.MaxTokens
	}
}

func loadClaudeConfig(base ClaudeConfig) ClaudeConfig {
	maxTokens := 600
	if base.MaxTokens > 0 {
		maxTokens = base.MaxTokens
	}

	return ClaudeConfig{
		APIKey:     getEnv("ANTHROPIC_API_KEY", base.APIKey),
		Endpoint:   getEnv("ANTHROPIC_ENDPOINT", firstNonEmpty(base.Endpoint, "https://api.anthropic.com/v1/messages")),
		Model:      getEnv("ANTHROPIC_MODEL", firstNonEmpty(base.Model, "claude-sonnet-4-20250514")),
		MaxTokens:  getEnvAsInt("ANTHROPIC_MAX_TOKENS", maxTokens),
		Timeout:    getEnvAsDuration("ANTHROPIC_TIMEOUT", 30*time.Second),
		MaxRetries: getEnvAsInt("ANTHROPIC_MAX_RETRIES", 2),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 1<<20), // 1MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

func loadFeedsFromEnv() []FeedConfig {
	var feeds []FeedConfig

	// Look for NEWS_FEED_* environment variables with "Name|URL" values
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "NEWS_FEED_") {
			continue
		}

		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}

		name, url := parseFeedValue(parts[1])
		if url == "" {
			log.Printf("config: ignoring %s: expected \"Name|URL\"", parts[0])
			continue
		}

		feeds = append(feeds, FeedConfig{Name: name, URL: url})
	}

	return feeds
}

func parseFeedValue(value string) (string, string) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return "", ""
	}

	name := strings.TrimSpace(parts[0])
	url := strings.TrimSpace(parts[1])
	if name == "" || url == "" {
		return "", ""
	}

	return name, url
}

func getDefaultFeeds() []FeedConfig {
	return []FeedConfig{
		{Name: "TechCrunch AI", URL: "https://techcrunch.com/category/artificial-intelligence/feed/"},
		{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/"},
		{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml"},
		{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/technology-lab"},
		{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/"},
		{Name: "Hacker News AI", URL: "https://hnrss.org/newest?q=AI+OR+artificial+intelligence+OR+LLM+OR+OpenAI"},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		origins := strings.Split(val, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return origins
	}
	return defaultVal
}
