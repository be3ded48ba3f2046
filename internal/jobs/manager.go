// Package jobs runs long comparisons in the background and tracks their status.
package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
	"github.com/gcbaptista/go-rank-compare/model"
)

// JobFunc is the work of one job. It receives a snapshot of the job and must
// return promptly once ctx is cancelled.
type JobFunc func(ctx context.Context, job model.Job) error

// Manager handles background job execution and tracking
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	cancels  map[string]context.CancelFunc
	workers  chan struct{} // Limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *JobMetrics
	logger   *logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics collector, so it can be registered by the caller.
func WithMetrics(metrics *JobMetrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int, opts ...Option) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	m := &Manager{
		jobs:     make(map[string]*model.Job),
		cancels:  make(map[string]context.CancelFunc),
		workers:  make(chan struct{}, maxWorkers),
		stopChan: make(chan struct{}),
		metrics:  NewJobMetrics(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins the background cleanup of old jobs.
func (m *Manager) Start() {
	m.logger.Info(context.Background(), "Job manager started", zap.Int("max_workers", cap(m.workers)))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.cleanupRoutine()
	}()
}

// Stop cancels running jobs and waits for them to return.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, cancel := range m.cancels {
			cancel()
		}
		m.mu.Unlock()

		m.wg.Wait()
		m.logger.Info(context.Background(), "Job manager stopped")
	})
}

// CreateJob creates a new pending job and returns its ID.
func (m *Manager) CreateJob(jobType model.JobType, gold string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Gold:      gold,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	m.logger.Info(context.Background(), "Created job",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("gold", gold))
	return job.ID
}

// GetJob retrieves a copy of a job by ID.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns all jobs, newest first, optionally filtered by status.
func (m *Manager) ListJobs(status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status == nil || job.Status == *status {
			result = append(result, copyJob(job))
		}
	}
	slices.SortFunc(result, func(a, b *model.Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result
}

// ExecuteJob runs jobFunc in the background once a worker slot is free.
// The job stays pending until then.
func (m *Manager) ExecuteJob(jobID string, jobFunc JobFunc) error {
	select {
	case <-m.stopChan:
		return fmt.Errorf("job manager is shutting down")
	default:
	}

	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}
	if _, scheduled := m.cancels[jobID]; scheduled {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is already scheduled", jobID)
	}
	ctx, cancel := context.WithCancel(logging.WithJobID(context.Background(), jobID))
	m.cancels[jobID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.forget(jobID)

		// Acquire worker slot
		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			m.finish(jobID, model.JobStatusCancelled, "job cancelled before it started", 0)
			return
		}
		defer func() { <-m.workers }()

		snapshot, ok := m.markRunning(jobID)
		if !ok {
			return
		}

		startTime := time.Now()
		err := jobFunc(ctx, snapshot)
		executionTime := time.Since(startTime)

		switch {
		case err == nil:
			m.finish(jobID, model.JobStatusCompleted, "", executionTime)
			m.logger.Info(ctx, "Job completed", zap.Duration("took", executionTime))
		case stderrors.Is(err, context.Canceled):
			m.finish(jobID, model.JobStatusCancelled, err.Error(), executionTime)
			m.logger.Warn(ctx, "Job cancelled", zap.Duration("took", executionTime))
		default:
			m.finish(jobID, model.JobStatusFailed, err.Error(), executionTime)
			m.logger.Error(ctx, "Job failed", zap.Duration("took", executionTime), zap.Error(err))
		}
	}()

	return nil
}

// CancelJob cancels a pending or running job.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return errors.NewJobNotFoundError(jobID)
	}
	cancel, scheduled := m.cancels[jobID]
	if !scheduled || (job.Status != model.JobStatusPending && job.Status != model.JobStatusRunning) {
		return fmt.Errorf("job with ID '%s' cannot be cancelled (current: %s)", jobID, job.Status)
	}
	cancel()
	return nil
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message

	if m.logger.Enabled(zapcore.DebugLevel) {
		m.logger.Debug(logging.WithJobID(context.Background(), jobID), "Job progress",
			zap.Float64("percent", job.Progress.GetProgressPercentage()),
			zap.String("message", message))
	}
}

// SetReportID records the report produced by a job.
func (m *Manager) SetReportID(jobID, reportID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.ReportID = reportID
	}
}

func (m *Manager) markRunning(jobID string) (model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return model.Job{}, false
	}
	now := time.Now()
	job.Status = model.JobStatusRunning
	job.StartedAt = &now
	m.metrics.RecordJobStatusChange(model.JobStatusPending, model.JobStatusRunning)
	return *copyJob(job), true
}

func (m *Manager) finish(jobID string, status model.JobStatus, errorMsg string, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	now := time.Now()
	job.CompletedAt = &now

	m.metrics.RecordJobStatusChange(oldStatus, status)
	m.metrics.RecordJobFinished(job.Type, status, executionTime)
}

func (m *Manager) forget(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.cancels[jobID]; ok {
		cancel()
		delete(m.cancels, jobID)
	}
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.logger.Info(context.Background(), "Cleaned up old jobs", zap.Int("count", cleaned))
	}
	return cleaned
}

// Metrics returns the manager's metrics collector.
func (m *Manager) Metrics() *JobMetrics {
	return m.metrics
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	if job.Metadata != nil {
		jobCopy.Metadata = make(map[string]string, len(job.Metadata))
		for k, v := range job.Metadata {
			jobCopy.Metadata[k] = v
		}
	}
	return &jobCopy
}
