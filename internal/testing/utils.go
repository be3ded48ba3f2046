// Package testing provides fixtures and helpers for testing the comparison service.
package testing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/engine"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/services"
)

// Fixture rankings. Compared with DeterministicSettings, system scores a mean
// Spearman of 0.35 against gold and 100.0 MAP at k=2.
const (
	GoldTSV   = "A\t10\nB\t8\nC\t8\nD\t1\n"
	SystemTSV = "B\t5\nA\t4\nD\t2\nC\t0\n"
)

// DeterministicSettings returns settings producing a single, reproducible
// trial: no zero-tie shuffling, averaged gold ties, a fixed seed and k=2.
func DeterministicSettings() config.CompareSettings {
	settings := config.DefaultCompareSettings()
	settings.ShuffleZeroTies = false
	settings.GoldConsiderTies = true
	settings.Seed = 7
	settings.Cutoffs = []int{2}
	return settings
}

// CreateTestEngine creates an engine persisting to a temporary directory,
// with DeterministicSettings as defaults. It is closed when the test ends.
func CreateTestEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{engine.WithDefaults(DeterministicSettings())}, opts...)
	eng := engine.NewEngine(t.TempDir(), opts...)
	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Errorf("Failed to close engine: %v", err)
		}
	})
	return eng
}

// LoadTestRankings stores GoldTSV as "gold" and SystemTSV as "system".
func LoadTestRankings(t *testing.T, rankings services.RankingManager) {
	t.Helper()
	for name, content := range map[string]string{"gold": GoldTSV, "system": SystemTSV} {
		_, err := rankings.ImportRanking(name, strings.NewReader(content))
		require.NoError(t, err, "Failed to import ranking %s", name)
	}
}

// WriteRankingFile writes content to dir/fileName and returns the path.
func WriteRankingFile(t *testing.T, dir, fileName, content string) string {
	t.Helper()
	path := filepath.Join(dir, fileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "Failed to write ranking file")
	return path
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 5 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJobCompletion polls a job until it completes or times out. A failed
// or cancelled job fails the test.
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted:
				if opts.LogProgress {
					t.Logf("Job %s completed successfully in %v", jobID, job.CompletedAt.Sub(job.CreatedAt))
				}
				return job
			case model.JobStatusFailed, model.JobStatusCancelled:
				t.Fatalf("Job %s ended as %s: %s", jobID, job.Status, job.Error)
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID,
						job.Progress.Current,
						job.Progress.Total,
						job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedGold string) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedGold, job.Gold, "Job gold ranking should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// ComparisonTestCase is a comparison request with the expected mean
// Spearman of every candidate, keyed by candidate name.
type ComparisonTestCase struct {
	Name         string
	Request      model.ComparisonRequest
	ExpectedRhos map[string]float64
	ValidateFunc func(t *testing.T, report *model.Report)
}

// RunComparisonTests runs a suite of comparisons against a service
func RunComparisonTests(t *testing.T, comparer services.Comparer, tests []ComparisonTestCase) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			report, err := comparer.Compare(context.Background(), tt.Request)
			require.NoError(t, err, "Comparison should not fail")
			require.Len(t, report.Entries, len(tt.ExpectedRhos), "Entry count should match")

			for _, entry := range report.Entries {
				expected, ok := tt.ExpectedRhos[entry.Name]
				require.True(t, ok, "Unexpected candidate %s", entry.Name)
				assert.InDelta(t, expected, entry.MeanSpearman.Float(), 1e-9, "Mean Spearman of %s", entry.Name)
			}

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, report)
			}
		})
	}
}
