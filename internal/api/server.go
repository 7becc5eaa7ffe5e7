// Package api serves the crust score HTTP endpoints alongside health,
// readiness and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"loan-intake-workers/internal/common/logger"
	"loan-intake-workers/internal/common/metrics"
	"loan-intake-workers/internal/models"
	"loan-intake-workers/pkg/crustscore"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScoreStore is implemented by *scorestore.Store.
type ScoreStore interface {
	SaveScore(ctx context.Context, userID string, result *crustscore.Result) (*models.ScoreRecord, error)
	GetScore(ctx context.Context, userID string) (*models.ScoreSummary, error)
	Ping(ctx context.Context) error
}

// CheckFunc is a named readiness probe.
type CheckFunc func(ctx context.Context) error

type Options struct {
	Store    ScoreStore
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Checks   map[string]CheckFunc
	Logger   logger.Logger
}

type Server struct {
	store  ScoreStore
	checks map[string]CheckFunc
	logger logger.Logger
	engine *gin.Engine
}

func NewServer(opts Options) *Server {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		store:  opts.Store,
		checks: opts.Checks,
		logger: opts.Logger.WithFields(map[string]interface{}{"component": "api"}),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), s.observe())

	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	user := s.engine.Group("/api/user")
	user.POST("/:id/crust-score", s.calculateScore)
	user.GET("/:id/crust-score", s.getScore)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		s.logger.Debug("request served", map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	if err := s.store.Ping(ctx); err != nil {
		failures["store"] = err.Error()
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failures": failures})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "failures": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
