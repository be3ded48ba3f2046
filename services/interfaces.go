// Package services declares the interfaces the HTTP layer depends on.
package services

import (
	"context"
	"io"

	"github.com/gcbaptista/go-rank-compare/internal/jobs"
	"github.com/gcbaptista/go-rank-compare/internal/report"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// RankingManager stores named ranking sources.
type RankingManager interface {
	PutRanking(name string, entries []ranking.Entry) (model.RankingSummary, error)
	PutEntries(name string, entries []ranking.Entry) (model.RankingImport, error)
	ImportRanking(name string, r io.Reader) (model.RankingImport, error)
	GetRanking(name string) (model.RankingSource, error)
	GetRankingSummary(name string) (model.RankingSummary, error)
	ListRankings() []model.RankingSummary
	DeleteRanking(name string) error
}

// Comparer runs comparisons of stored rankings.
type Comparer interface {
	Compare(ctx context.Context, req model.ComparisonRequest) (*model.Report, error)
	CompareAsync(req model.ComparisonRequest) (string, error)
}

// ReportReader gives access to stored comparison reports.
type ReportReader interface {
	GetReport(id string) (*model.Report, error)
	ListReports() []model.ReportSummary
	DeleteReport(id string) error
	RenderReport(w io.Writer, id string, format report.Format) error
}

// JobManager handles async job operations
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
	CancelJob(jobID string) error
	GetJobMetrics() jobs.JobMetricsData
}

// Service is everything the HTTP API needs.
type Service interface {
	RankingManager
	Comparer
	ReportReader
	JobManager
}
