package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/gcbaptista/go-rank-compare/config"
	apperrors "github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
	"github.com/gcbaptista/go-rank-compare/internal/report"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

const (
	goldTSV   = "A\t10\nB\t8\nC\t8\nD\t1\n"
	systemTSV = "B\t5\nA\t4\nD\t2\nC\t0\n"
)

func deterministicDefaults() config.CompareSettings {
	settings := config.DefaultCompareSettings()
	settings.ShuffleZeroTies = false
	settings.GoldConsiderTies = true
	settings.Seed = 7
	settings.Cutoffs = []int{2}
	return settings
}

func newTestEngine(t *testing.T, dataDir string) *Engine {
	t.Helper()
	e := NewEngine(dataDir, WithDefaults(deterministicDefaults()))
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Logf("Failed to close engine: %v", err)
		}
	})
	return e
}

func importScenario(t *testing.T, e *Engine) {
	t.Helper()
	_, err := e.ImportRanking("gold", strings.NewReader(goldTSV))
	require.NoError(t, err)
	_, err = e.ImportRanking("system", strings.NewReader(systemTSV))
	require.NoError(t, err)
}

func waitForJob(t *testing.T, e *Engine, jobID string) *model.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := e.GetJob(jobID)
		require.NoError(t, err)
		switch job.Status {
		case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Job %s did not finish", jobID)
	return nil
}

func TestEngine_ImportRanking(t *testing.T) {
	logger := logging.NewTestLogger()
	e := NewEngine("", WithLogger(logger.Logger))
	defer e.Close()

	imported, err := e.ImportRanking("sys", strings.NewReader("A\t1\nbroken\nB\t2\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, imported.Summary.Size)
	require.Len(t, imported.Skipped, 1)
	assert.Contains(t, imported.Skipped[0], "line 2")
	assert.Equal(t, []int{3}, imported.Unsorted)

	logger.AssertLogged(t, zapcore.WarnLevel, "Skipped ranking line")
	logger.AssertLogged(t, zapcore.WarnLevel, "Ranking is not sorted by descending score")
	logger.AssertLogged(t, zapcore.InfoLevel, "Stored ranking")

	_, err = e.ImportRanking("empty", strings.NewReader("\n\n"))
	assert.True(t, errors.Is(err, apperrors.ErrEmptyRanking))
}

func TestEngine_PutEntries(t *testing.T) {
	logger := logging.NewTestLogger()
	e := NewEngine("", WithLogger(logger.Logger))
	defer e.Close()

	imported, err := e.PutEntries("sys", []ranking.Entry{
		{ID: " A ", Score: 1},
		{ID: "B", Score: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, imported.Summary.Size)
	assert.Equal(t, []int{2}, imported.Unsorted)
	assert.Empty(t, imported.Skipped)
	logger.AssertLogged(t, zapcore.WarnLevel, "Ranking is not sorted by descending score")

	source, err := e.GetRanking("sys")
	require.NoError(t, err)
	assert.Equal(t, "A", source.Entries[0].ID)
}

func TestEngine_RankingCRUD(t *testing.T) {
	e := newTestEngine(t, "")

	summary, err := e.PutRanking("gold", []ranking.Entry{{ID: "A", Score: 2}, {ID: "B", Score: 0}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NonZeroEntries)

	source, err := e.GetRanking("gold")
	require.NoError(t, err)
	assert.Len(t, source.Entries, 2)

	got, err := e.GetRankingSummary("gold")
	require.NoError(t, err)
	assert.Equal(t, summary, got)
	assert.Len(t, e.ListRankings(), 1)

	require.NoError(t, e.DeleteRanking("gold"))
	assert.True(t, errors.Is(e.DeleteRanking("gold"), apperrors.ErrRankingNotFound))
	assert.Empty(t, e.ListRankings())
}

func TestEngine_Compare(t *testing.T) {
	e := newTestEngine(t, "")
	importScenario(t, e)

	r, err := e.Compare(context.Background(), model.ComparisonRequest{
		Gold:       "gold",
		Candidates: []string{"system"},
	})
	require.NoError(t, err)

	require.Len(t, r.Entries, 1)
	assert.InDelta(t, 0.35, r.Entries[0].MeanSpearman.Float(), 1e-9)
	assert.Equal(t, []int{2}, r.Settings.Cutoffs)

	stored, err := e.GetReport(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, stored.ID)

	list := e.ListReports()
	require.Len(t, list, 1)
	assert.Equal(t, "system", list[0].Best)

	var buf bytes.Buffer
	require.NoError(t, e.RenderReport(&buf, r.ID, report.FormatLaTeX))
	assert.Contains(t, buf.String(), "system & 3 & 0.3500 & 0.0000 & 100.0 \\\\")

	require.NoError(t, e.DeleteReport(r.ID))
	_, err = e.GetReport(r.ID)
	assert.True(t, errors.Is(err, apperrors.ErrReportNotFound))
}

func TestEngine_CompareOverrides(t *testing.T) {
	e := newTestEngine(t, "")
	importScenario(t, e)

	sortByRho := false
	cutoffs := []int{}
	r, err := e.Compare(context.Background(), model.ComparisonRequest{
		Gold:       "gold",
		Candidates: []string{"system", "gold"},
		Settings:   &config.SettingsOverride{SortByRho: &sortByRho, Cutoffs: &cutoffs},
	})
	require.NoError(t, err)

	require.Len(t, r.Entries, 2)
	assert.Equal(t, "system", r.Entries[0].Name, "input order is kept without sorting")
	assert.Empty(t, r.Settings.Cutoffs)
	assert.Empty(t, e.ListReports()[0].Best)
}

func TestEngine_CompareErrors(t *testing.T) {
	e := newTestEngine(t, "")
	importScenario(t, e)

	zero := 0
	tests := []struct {
		name   string
		req    model.ComparisonRequest
		target error
	}{
		{"missing gold name", model.ComparisonRequest{Candidates: []string{"system"}}, apperrors.ErrInvalidInput},
		{"no candidates", model.ComparisonRequest{Gold: "gold"}, apperrors.ErrInvalidInput},
		{"blank candidate", model.ComparisonRequest{Gold: "gold", Candidates: []string{""}}, apperrors.ErrInvalidInput},
		{"unknown gold", model.ComparisonRequest{Gold: "nope", Candidates: []string{"system"}}, apperrors.ErrRankingNotFound},
		{"unknown candidate", model.ComparisonRequest{Gold: "gold", Candidates: []string{"nope"}}, apperrors.ErrRankingNotFound},
		{"invalid override", model.ComparisonRequest{
			Gold: "gold", Candidates: []string{"system"},
			Settings: &config.SettingsOverride{NumberShuffles: &zero},
		}, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Compare(context.Background(), tt.req)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)

			_, err = e.CompareAsync(tt.req)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
	assert.Empty(t, e.ListJobs(nil), "invalid requests must not create jobs")
}

func TestEngine_CompareAsync(t *testing.T) {
	e := newTestEngine(t, "")
	importScenario(t, e)

	jobID, err := e.CompareAsync(model.ComparisonRequest{Gold: "gold", Candidates: []string{"system"}})
	require.NoError(t, err)

	job := waitForJob(t, e, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeCompare, job.Type)
	assert.Equal(t, "gold", job.Gold)
	require.NotNil(t, job.Progress)
	assert.Equal(t, job.Progress.Total, job.Progress.Current)

	r, err := e.GetReport(job.ReportID)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, r.Entries[0].MeanSpearman.Float(), 1e-9)

	metrics := e.GetJobMetrics()
	assert.Equal(t, int64(1), metrics.JobsCompleted)
}

func TestEngine_CancelJob(t *testing.T) {
	e := newTestEngine(t, "")
	assert.True(t, errors.Is(e.CancelJob("missing"), apperrors.ErrJobNotFound))
}

func TestEngine_LoadRankingsAsync(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sys_one.txt"), []byte(systemTSV), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sys_two.txt"), []byte(goldTSV), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0600))

	e := newTestEngine(t, "")
	jobID, err := e.LoadRankingsAsync([]string{dir}, DiscoverOptions{Prefix: "sys"})
	require.NoError(t, err)

	job := waitForJob(t, e, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeLoadRankings, job.Type)

	names := []string{}
	for _, summary := range e.ListRankings() {
		names = append(names, summary.Name)
	}
	assert.Equal(t, []string{"sys-one", "sys-two"}, names)

	_, err = e.LoadRankingsAsync([]string{filepath.Join(dir, "missing")}, DiscoverOptions{})
	assert.Error(t, err)
}

func TestEngine_PersistsAcrossRestarts(t *testing.T) {
	dataDir := t.TempDir()

	first := NewEngine(dataDir, WithDefaults(deterministicDefaults()))
	importScenario(t, first)
	r, err := first.Compare(context.Background(), model.ComparisonRequest{Gold: "gold", Candidates: []string{"system"}})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	assert.FileExists(t, filepath.Join(dataDir, rankingsFile))
	assert.FileExists(t, filepath.Join(dataDir, reportsFile))

	second := newTestEngine(t, dataDir)
	assert.Len(t, second.ListRankings(), 2)
	restored, err := second.GetReport(r.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.35, restored.Entries[0].MeanSpearman.Float(), 1e-9)
}

func TestEngine_CorruptedSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, rankingsFile), []byte("garbage"), 0600))

	logger := logging.NewTestLogger()
	e := NewEngine(dataDir, WithLogger(logger.Logger))
	defer e.Close()

	assert.Empty(t, e.ListRankings())
	logger.AssertLogged(t, zapcore.WarnLevel, "Failed to load ranking snapshot, starting empty")
	logger.AssertLogged(t, zapcore.InfoLevel, "Report snapshot not found, starting empty")
}
