package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/comparison"
	"github.com/gcbaptista/go-rank-compare/internal/report"
	"github.com/gcbaptista/go-rank-compare/model"
)

// comparisonInput is a request resolved against the ranking store.
type comparisonInput struct {
	settings   config.CompareSettings
	gold       model.RankingSource
	candidates []model.RankingSource
}

// resolve validates req and fetches the rankings it names. Settings are the
// engine defaults with the request's overrides applied.
func (e *Engine) resolve(req model.ComparisonRequest) (*comparisonInput, error) {
	if err := config.ValidateStruct(req); err != nil {
		return nil, err
	}

	settings := req.Settings.Apply(e.defaults)
	settings.ApplyDefaults()
	if err := config.ValidateStruct(settings); err != nil {
		return nil, err
	}

	gold, err := e.rankings.Get(req.Gold)
	if err != nil {
		return nil, err
	}
	candidates, err := e.rankings.GetMany(req.Candidates)
	if err != nil {
		return nil, err
	}
	return &comparisonInput{settings: settings, gold: gold, candidates: candidates}, nil
}

// Compare runs a comparison synchronously and stores its report.
func (e *Engine) Compare(ctx context.Context, req model.ComparisonRequest) (*model.Report, error) {
	input, err := e.resolve(req)
	if err != nil {
		return nil, err
	}
	return e.runComparison(ctx, input, nil)
}

// CompareAsync validates req and runs the comparison in a background job.
// The job's ReportID is set once the report is stored.
func (e *Engine) CompareAsync(req model.ComparisonRequest) (string, error) {
	input, err := e.resolve(req)
	if err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypeCompare, req.Gold, map[string]string{
		"candidates": strings.Join(req.Candidates, ","),
		"trials":     strconv.Itoa(input.settings.Trials()),
	})

	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, _ model.Job) error {
		r, err := e.runComparison(ctx, input, func(done, total int) {
			e.jobManager.UpdateJobProgress(jobID, done, total, "Running trials")
		})
		if err != nil {
			return err
		}
		e.jobManager.SetReportID(jobID, r.ID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start comparison job: %w", err)
	}
	return jobID, nil
}

func (e *Engine) runComparison(ctx context.Context, input *comparisonInput, progress comparison.ProgressFunc) (*model.Report, error) {
	r, err := e.comparator.CompareWithProgress(ctx, input.settings, input.gold, input.candidates, progress)
	if err != nil {
		return nil, err
	}

	for _, evicted := range e.reports.Put(r) {
		e.logger.Debug(ctx, "Evicted report", zap.String("report_id", evicted))
	}
	if err := e.persistReports(); err != nil {
		e.logger.Warn(ctx, "Failed to persist reports", zap.Error(err))
	}
	return r, nil
}

// GetReport returns the report with the given ID.
func (e *Engine) GetReport(id string) (*model.Report, error) {
	return e.reports.Get(id)
}

// ListReports returns the summaries of all stored reports, newest first.
func (e *Engine) ListReports() []model.ReportSummary {
	return e.reports.List()
}

// DeleteReport removes the report with the given ID.
func (e *Engine) DeleteReport(id string) error {
	if err := e.reports.Delete(id); err != nil {
		return err
	}
	return e.persistReports()
}

// RenderReport writes the report with the given ID in format.
func (e *Engine) RenderReport(w io.Writer, id string, format report.Format) error {
	r, err := e.reports.Get(id)
	if err != nil {
		return err
	}
	return report.Render(w, r, format)
}
