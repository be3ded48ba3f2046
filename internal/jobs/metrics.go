package jobs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-rank-compare/model"
)

// Metrics names as constants for consistency.
const (
	MetricJobsTotal    = "rankcompare_jobs_total"
	MetricJobsDuration = "rankcompare_jobs_duration_seconds"
	MetricJobsActive   = "rankcompare_jobs_active"
)

// recentDurations is the number of execution times kept per job type.
const recentDurations = 100

// JobMetricsData is a snapshot of the job statistics, served by /jobs/metrics.
type JobMetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	JobsCancelled        int64                     `json:"jobs_cancelled"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	AverageByType        map[model.JobType]int64   `json:"average_execution_time_by_type_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	SuccessRate          float64                   `json:"success_rate"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// JobMetrics keeps in-process job statistics and mirrors them to Prometheus
// collectors. The collectors are not registered; call Register.
type JobMetrics struct {
	mu           sync.RWMutex
	created      int64
	completed    int64
	failed       int64
	cancelled    int64
	totalTime    time.Duration
	byType       map[model.JobType]int64
	byStatus     map[model.JobStatus]int64
	recentByType map[model.JobType][]time.Duration
	lastUpdated  time.Time

	jobsTotal *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	active    prometheus.Gauge
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		byType:       make(map[model.JobType]int64),
		byStatus:     make(map[model.JobStatus]int64),
		recentByType: make(map[model.JobType][]time.Duration),
		lastUpdated:  time.Now(),
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricJobsTotal,
				Help: "Total number of finished background jobs by type and status",
			},
			[]string{"job_type", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricJobsDuration,
				Help:    "Histogram of background job duration in seconds by job type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0},
			},
			[]string{"job_type"},
		),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricJobsActive,
				Help: "Number of pending or running background jobs",
			},
		),
	}
}

// Register registers the Prometheus collectors with the given registry.
func (m *JobMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *JobMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.jobsTotal, m.duration, m.active}
}

// RecordJobCreated counts a new pending job.
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	m.byType[jobType]++
	m.byStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
	m.active.Inc()
}

// RecordJobStatusChange moves one job between status counters.
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.byStatus[oldStatus] > 0 {
		m.byStatus[oldStatus]--
	}
	m.byStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordJobFinished records the final status and duration of a job.
func (m *JobMetrics) RecordJobFinished(jobType model.JobType, status model.JobStatus, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch status {
	case model.JobStatusCompleted:
		m.completed++
		m.totalTime += executionTime
		recent := append(m.recentByType[jobType], executionTime)
		if len(recent) > recentDurations {
			recent = recent[1:]
		}
		m.recentByType[jobType] = recent
	case model.JobStatusFailed:
		m.failed++
	case model.JobStatusCancelled:
		m.cancelled++
	}
	m.lastUpdated = time.Now()

	m.jobsTotal.WithLabelValues(string(jobType), string(status)).Inc()
	m.duration.WithLabelValues(string(jobType)).Observe(executionTime.Seconds())
	m.active.Dec()
}

// GetMetrics returns a snapshot of the current statistics.
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := JobMetricsData{
		JobsCreated:   m.created,
		JobsCompleted: m.completed,
		JobsFailed:    m.failed,
		JobsCancelled: m.cancelled,
		AverageByType: make(map[model.JobType]int64, len(m.recentByType)),
		JobsByType:    make(map[model.JobType]int64, len(m.byType)),
		JobsByStatus:  make(map[model.JobStatus]int64, len(m.byStatus)),
		SuccessRate:   m.successRate(),
		LastUpdated:   m.lastUpdated,
	}
	if m.completed > 0 {
		data.AverageExecutionTime = m.totalTime / time.Duration(m.completed)
	}
	for jobType, times := range m.recentByType {
		data.AverageByType[jobType] = int64(average(times))
	}
	for k, v := range m.byType {
		data.JobsByType[k] = v
	}
	for k, v := range m.byStatus {
		data.JobsByStatus[k] = v
	}
	return data
}

// GetSuccessRate returns the share of finished jobs that completed (0.0 to 1.0).
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRate()
}

func (m *JobMetrics) successRate() float64 {
	finished := m.completed + m.failed
	if finished == 0 {
		return 1.0
	}
	return float64(m.completed) / float64(finished)
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byStatus[model.JobStatusPending] + m.byStatus[model.JobStatusRunning]
}

func average(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}
	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}
