package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/api"
	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/comparison"
	"github.com/gcbaptista/go-rank-compare/internal/engine"
	"github.com/gcbaptista/go-rank-compare/internal/jobs"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
)

const (
	rateLimiterIdle    = 10 * time.Minute
	rateLimiterCleanup = time.Minute
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP comparison service",
		Long: `Serve exposes rankings, comparisons and background jobs over HTTP, with
Prometheus metrics on /metrics. Rankings and reports are persisted in the
data directory and reloaded on start.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.IntP("port", "p", 0, "port to listen on (overrides config)")
	flags.String("data-dir", "", "directory for ranking and report snapshots (overrides config)")
	flags.StringSlice("load", nil, "ranking files or directories to import on start")
	flags.String("prefix", "", "only load directory files starting with this prefix")
	flags.String("ext", engine.DefaultExtension, "only load directory files with this extension")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg.Server)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eng, httpMetrics, err := newServiceEngine(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error(context.Background(), "Failed to write final snapshot", zap.Error(err))
		}
	}()

	if paths, _ := cmd.Flags().GetStringSlice("load"); len(paths) > 0 {
		prefix, _ := cmd.Flags().GetString("prefix")
		ext, _ := cmd.Flags().GetString("ext")
		jobID, err := eng.LoadRankingsAsync(paths, engine.DiscoverOptions{Prefix: prefix, Extension: ext})
		if err != nil {
			return fmt.Errorf("failed to load rankings: %w", err)
		}
		logger.Info(ctx, "Loading rankings in the background", zap.String("job_id", jobID), zap.Strings("paths", paths))
	}

	routeOpts := []api.RouteOption{
		api.WithLogger(logger.Named("api")),
		api.WithHTTPMetrics(httpMetrics),
		api.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	}
	if cfg.Server.RateLimit > 0 {
		limiter := api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, rateLimiterIdle)
		go limiter.Run(ctx, rateLimiterCleanup)
		routeOpts = append(routeOpts, api.WithRateLimiter(limiter))
		logger.Info(ctx, "Rate limiting enabled",
			zap.Float64("requests_per_second", cfg.Server.RateLimit),
			zap.Int("burst", cfg.Server.RateBurst))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, eng, routeOpts...)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting server",
			zap.String("version", version),
			zap.Int("port", cfg.Server.Port),
			zap.String("data_dir", cfg.Server.DataDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newServiceEngine builds the engine with its comparator and job manager
// reporting to reg, and returns the HTTP metrics registered alongside them.
func newServiceEngine(cfg *config.Config, logger *logging.Logger, reg prometheus.Registerer) (*engine.Engine, *api.HTTPMetrics, error) {
	comparisonMetrics := comparison.NewMetrics()
	jobMetrics := jobs.NewJobMetrics()
	httpMetrics := api.NewHTTPMetrics()
	for _, register := range []func(prometheus.Registerer) error{
		comparisonMetrics.Register,
		jobMetrics.Register,
		httpMetrics.Register,
	} {
		if err := register(reg); err != nil {
			return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	comparator := comparison.New(
		comparison.WithLogger(logger.Named("comparison")),
		comparison.WithMetrics(comparisonMetrics),
	)
	manager := jobs.NewManager(cfg.Server.MaxConcurrent,
		jobs.WithLogger(logger.Named("jobs")),
		jobs.WithMetrics(jobMetrics),
	)
	eng := engine.NewEngine(cfg.Server.DataDir,
		engine.WithLogger(logger.Named("engine")),
		engine.WithComparator(comparator),
		engine.WithJobManager(manager),
		engine.WithDefaults(cfg.Compare),
	)
	return eng, httpMetrics, nil
}

func applyServeFlags(cmd *cobra.Command, server *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("data-dir") {
		server.DataDir, _ = flags.GetString("data-dir")
	}
}
