package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ainewsag/internal/analyzer"
	"ainewsag/internal/cache"
	"ainewsag/internal/config"
	"ainewsag/internal/models"
	"ainewsag/internal/poller"
	"ainewsag/internal/security"
	"ainewsag/internal/storage"
	"ainewsag/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Orchestrator is what the HTTP layer needs from the pipeline.
type Orchestrator interface {
	Refresh(ctx context.Context) (*models.RefreshReport, error)
	Analyze(ctx context.Context, batchSize int) (*models.AnalyzeReport, error)
	Reanalyze(ctx context.Context, id string) (*models.Article, error)
}

type Server struct {
	router        *gin.Engine
	store         storage.Storage
	pipeline      Orchestrator
	poller        *poller.Poller
	analyzer      *analyzer.Client
	cacheManager  *cache.Manager
	registry      *prometheus.Registry
	cfg           *config.Config
	spaServer     *web.SPAServer
	swaggerServer *web.SwaggerServer
}

func NewServer(
	store storage.Storage,
	pipe Orchestrator,
	poll *poller.Poller,
	an *analyzer.Client,
	cacheManager *cache.Manager,
	registry *prometheus.Registry,
	cfg *config.Config,
) *Server {
	router := gin.Default()

	// Load HTML templates from filesystem (only if SPA is enabled)
	if cfg.EnableSPA {
		router.LoadHTMLGlob("internal/web/templates/*")
	}

	security.SetupSecurityMiddleware(router, cfg.Security)

	server := &Server{
		router:        router,
		store:         store,
		pipeline:      pipe,
		poller:        poll,
		analyzer:      an,
		cacheManager:  cacheManager,
		registry:      registry,
		cfg:           cfg,
		spaServer:     web.NewSPAServer(cfg.EnableSPA),
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Prometheus metrics
	if s.registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/articles", s.listArticles)
		api.GET("/articles/:id", s.getArticle)
		api.POST("/articles/:id/reanalyze", s.reanalyzeArticle)
		api.GET("/stats", s.getStats)
		api.GET("/config", s.getConfig)

		api.POST("/refresh", s.refresh)
		api.POST("/analyze", s.analyze)

		// Poller control endpoints
		api.GET("/poller/status", s.getPollerStatus)
		api.POST("/poller/force-poll", s.forcePoll)
	}

	// Register web interfaces
	s.spaServer.RegisterRoutes(s.router)
	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.cfg.Port))
}

// StartWithContext serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.cfg.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "ai-news-aggregator",
		"poller_active": s.poller.IsPolling(),
	})
}

func (s *Server) listArticles(c *gin.Context) {
	filter := models.ArticleFilter{
		Sentiment: c.Query("sentiment"),
		Category:  c.Query("category"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	cacheKey := cache.ArticleListKey(filter)
	if cached, found := s.cacheManager.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	articles, err := s.store.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	response := gin.H{
		"articles": articles,
		"count":    len(articles),
	}
	s.cacheManager.Set(cacheKey, response, s.cfg.CacheTTL)

	c.JSON(http.StatusOK, response)
}

// getArticle returns one article and marks it read. Reads through the
// dashboard always mark; there is no peek variant.
func (s *Server) getArticle(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	article, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !article.IsRead {
		if err := s.store.MarkRead(ctx, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		article.IsRead = true
		s.cacheManager.Flush()
	}

	c.JSON(http.StatusOK, article)
}

func (s *Server) reanalyzeArticle(c *gin.Context) {
	id := c.Param("id")

	article, err := s.pipeline.Reanalyze(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		if analyzer.IsKind(err, analyzer.KindNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis is not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, article)
}

func (s *Server) getStats(c *gin.Context) {
	if cached, found := s.cacheManager.Get(cache.StatsKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.cacheManager.Set(cache.StatsKey, stats, s.cfg.CacheTTL)
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getConfig(c *gin.Context) {
	feeds := make([]gin.H, 0, len(s.cfg.Feeds))
	for _, feed := range s.cfg.Feeds {
		feeds = append(feeds, gin.H{"name": feed.Name, "url": feed.URL})
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":         feeds,
		"poll_interval": s.cfg.PollInterval.String(),
		"model":         s.cfg.Claude.Model,
		"has_api_key":   s.analyzer != nil && s.analyzer.Configured(),
	})
}

func (s *Server) refresh(c *gin.Context) {
	report, err := s.pipeline.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) analyze(c *gin.Context) {
	batchSize := 0
	if batchStr := c.Query("batch_size"); batchStr != "" {
		if batch, err := strconv.Atoi(batchStr); err == nil {
			batchSize = batch
		}
	}

	report, err := s.pipeline.Analyze(c.Request.Context(), batchSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if report.NotConfigured {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) getPollerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.poller.Status())
}

func (s *Server) forcePoll(c *gin.Context) {
	go s.poller.ForcePoll()

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Force poll initiated",
		"requested": time.Now().UTC(),
	})
}
