// Package engine ties the ranking and report stores, the comparator and the
// job manager together and persists the stores to a data directory.
package engine

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/comparison"
	"github.com/gcbaptista/go-rank-compare/internal/jobs"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
	"github.com/gcbaptista/go-rank-compare/services"
	"github.com/gcbaptista/go-rank-compare/store"
)

const dataDirPerm = 0755

// Engine manages stored rankings and runs comparisons on them.
// It implements the services.RankingManager, services.Comparer,
// services.ReportReader and services.JobManager interfaces.
type Engine struct {
	persistMu  sync.Mutex
	rankings   *store.RankingStore
	reports    *store.ReportStore
	comparator *comparison.Comparator
	jobManager *jobs.Manager
	dataDir    string
	defaults   config.CompareSettings
	maxReports int
	logger     *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithComparator replaces the default comparator.
func WithComparator(c *comparison.Comparator) Option {
	return func(e *Engine) {
		e.comparator = c
	}
}

// WithJobManager replaces the default job manager. The engine starts and
// stops it.
func WithJobManager(m *jobs.Manager) Option {
	return func(e *Engine) {
		e.jobManager = m
	}
}

// WithDefaults sets the settings requests are applied on top of.
func WithDefaults(settings config.CompareSettings) Option {
	return func(e *Engine) {
		e.defaults = settings
	}
}

// WithMaxReports bounds the number of reports kept.
func WithMaxReports(n int) Option {
	return func(e *Engine) {
		e.maxReports = n
	}
}

// NewEngine creates an engine persisting to dataDir and loads any snapshot
// found there. An empty dataDir disables persistence.
func NewEngine(dataDir string, opts ...Option) *Engine {
	e := &Engine{
		dataDir:  dataDir,
		defaults: config.DefaultCompareSettings(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.comparator == nil {
		e.comparator = comparison.New(comparison.WithLogger(e.logger))
	}
	if e.jobManager == nil {
		e.jobManager = jobs.NewManager(2, jobs.WithLogger(e.logger))
	}
	e.rankings = store.NewRankingStore()
	e.reports = store.NewReportStore(e.maxReports)

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
			e.logger.Warn(context.Background(), "Could not create data directory, proceeding without persistence",
				zap.String("data_dir", dataDir), zap.Error(err))
		}
		e.loadFromDisk()
	}

	e.jobManager.Start()
	return e
}

// Defaults returns the settings requests are applied on top of.
func (e *Engine) Defaults() config.CompareSettings {
	return e.defaults
}

// Close stops the job manager, cancelling running comparisons, and writes a
// final snapshot.
func (e *Engine) Close() error {
	e.jobManager.Stop()
	if err := e.persistRankings(); err != nil {
		return err
	}
	return e.persistReports()
}

var _ services.Service = (*Engine)(nil)
