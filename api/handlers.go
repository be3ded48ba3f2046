// Package api exposes rankings, comparisons and jobs over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-rank-compare/internal/logging"
	"github.com/gcbaptista/go-rank-compare/services"
)

// API holds dependencies for API handlers, primarily the comparison service.
type API struct {
	service services.Service
	logger  *logging.Logger
}

// RouteOption configures SetupRoutes.
type RouteOption func(*routeConfig)

type routeConfig struct {
	logger         *logging.Logger
	metricsHandler http.Handler
	httpMetrics    *HTTPMetrics
	rateLimiter    *RateLimiter
	maxBodyBytes   int64
}

// WithLogger logs every request and handler diagnostics.
func WithLogger(logger *logging.Logger) RouteOption {
	return func(cfg *routeConfig) {
		cfg.logger = logger
	}
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) RouteOption {
	return func(cfg *routeConfig) {
		cfg.metricsHandler = h
	}
}

// WithHTTPMetrics records request counts and durations.
func WithHTTPMetrics(m *HTTPMetrics) RouteOption {
	return func(cfg *routeConfig) {
		cfg.httpMetrics = m
	}
}

// WithRateLimiter limits requests per client IP.
func WithRateLimiter(rl *RateLimiter) RouteOption {
	return func(cfg *routeConfig) {
		cfg.rateLimiter = rl
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) RouteOption {
	return func(cfg *routeConfig) {
		cfg.maxBodyBytes = n
	}
}

// DefaultMaxBodyBytes bounds uploaded rankings.
const DefaultMaxBodyBytes = 64 << 20

// NewAPI creates a new API handler structure.
func NewAPI(service services.Service, logger *logging.Logger) *API {
	if logger == nil {
		logger = logging.Nop()
	}
	return &API{service: service, logger: logger}
}

// SetupRoutes defines all the API routes of the comparison service.
func SetupRoutes(router *gin.Engine, service services.Service, opts ...RouteOption) {
	cfg := &routeConfig{maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(cfg)
	}
	apiHandler := NewAPI(service, cfg.logger)

	router.Use(RequestIDMiddleware())
	if cfg.logger != nil {
		router.Use(LoggingMiddleware(cfg.logger))
	}
	if cfg.httpMetrics != nil {
		router.Use(cfg.httpMetrics.Middleware())
	}
	router.Use(CORSMiddleware())

	// Health and metrics stay reachable when clients are throttled
	router.GET("/health", apiHandler.HealthCheckHandler)
	if cfg.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.metricsHandler))
	}

	limited := router.Group("")
	if cfg.rateLimiter != nil {
		limited.Use(cfg.rateLimiter.Middleware())
	}
	limited.Use(RequestSizeLimitMiddleware(cfg.maxBodyBytes))

	// Ranking management routes
	rankingRoutes := limited.Group("/rankings")
	{
		rankingRoutes.GET("", apiHandler.ListRankingsHandler)           // List ranking summaries
		rankingRoutes.PUT("/:name", apiHandler.PutRankingHandler)       // Create or replace a ranking (TSV or JSON)
		rankingRoutes.GET("/:name", apiHandler.GetRankingHandler)       // Get entries and statistics
		rankingRoutes.DELETE("/:name", apiHandler.DeleteRankingHandler) // Delete a ranking
	}

	// Comparison routes
	comparisonRoutes := limited.Group("/comparisons")
	{
		comparisonRoutes.POST("", apiHandler.CreateComparisonHandler)       // Run a comparison, ?async=true for a job
		comparisonRoutes.GET("", apiHandler.ListComparisonsHandler)         // List report summaries
		comparisonRoutes.GET("/:id", apiHandler.GetComparisonHandler)       // Get a report, ?format=json|text|latex
		comparisonRoutes.DELETE("/:id", apiHandler.DeleteComparisonHandler) // Delete a report
	}

	// Job management routes
	jobRoutes := limited.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)              // List jobs, ?status=
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
		jobRoutes.DELETE("/:jobId", apiHandler.CancelJobHandler)   // Cancel a pending or running job
	}
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-rank-compare",
		"rankings":  len(api.service.ListRankings()),
		"timestamp": time.Now().Unix(),
	})
}
