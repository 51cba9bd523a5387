// Package server exposes the analysis engine and its host collaborators over
// a gin HTTP API.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/seo-optimizer/contentscore/analyzer"
	"github.com/seo-optimizer/contentscore/cache"
	"github.com/seo-optimizer/contentscore/config"
	"github.com/seo-optimizer/contentscore/logging"
	"github.com/seo-optimizer/contentscore/middleware"
	"github.com/seo-optimizer/contentscore/redirects"
	"github.com/seo-optimizer/contentscore/stats"
	"github.com/seo-optimizer/contentscore/store"
)

// Server wires the HTTP routes to the analyzer, the store and the caches
type Server struct {
	cfg      config.Config
	analyzer *analyzer.Analyzer
	store    *store.Store
	cache    *cache.Cache
	monthly  *stats.Storage
	usage    *logging.Statistics
	limiter  *middleware.RateLimiter
	router   *gin.Engine

	mu      sync.RWMutex
	matcher *redirects.Matcher
}

// New creates the server and loads the redirect rules from the store
func New(cfg config.Config, st *store.Store, reports *cache.Cache, monthly *stats.Storage, usage *logging.Statistics) (*Server, error) {
	s := &Server{
		cfg: cfg,
		analyzer: analyzer.New(
			analyzer.WithSiteOrigin(cfg.SiteOrigin),
			analyzer.WithKeywordIndex(st),
			analyzer.WithDocumentLookup(st),
			analyzer.WithLogger(log.Logger),
		),
		store:   st,
		cache:   reports,
		monthly: monthly,
		usage:   usage,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
	if err := s.reloadRedirects(); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(s.limiter.RateLimit())
	r.Use(cors())
	r.Use(middleware.Stats(s.usage))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		api.POST("/analyze", s.analyze)

		api.GET("/documents", s.listDocuments)
		api.GET("/documents/:id", s.getDocument)
		api.PUT("/documents/:id", s.putDocument)
		api.DELETE("/documents/:id", s.deleteDocument)
		api.POST("/documents/:id/analyze", s.analyzeDocument)
		api.GET("/documents/:id/report", s.getReport)

		api.GET("/redirects", s.listRedirects)
		api.POST("/redirects", s.createRedirect)
		api.GET("/redirects/resolve", s.resolveRedirect)
		api.DELETE("/redirects/:id", s.deleteRedirect)
		api.GET("/not-found", s.listNotFound)

		api.GET("/statistics", s.statistics)
		api.GET("/cache", func(c *gin.Context) {
			c.JSON(http.StatusOK, s.cache.Stats())
		})
	}
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// reloadRedirects rebuilds the matcher from the stored rules
func (s *Server) reloadRedirects() error {
	rules, err := s.store.ListRedirects()
	if err != nil {
		return fmt.Errorf("load redirects: %w", err)
	}
	m, err := redirects.NewMatcher(rules)
	if err != nil {
		return fmt.Errorf("build redirect matcher: %w", err)
	}
	s.mu.Lock()
	s.matcher = m
	s.mu.Unlock()
	return nil
}

func (s *Server) currentMatcher() *redirects.Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matcher
}

// fail writes the error response for err. Unexpected errors are attached to
// the context so ErrorHandler logs them.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, analyzer.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, redirects.ErrInvalidPattern),
		errors.Is(err, redirects.ErrInvalidStatus),
		errors.Is(err, redirects.ErrMissingTarget):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
