package model

import (
	"time"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// RankingSource is a named list of scored items sorted by descending score.
type RankingSource struct {
	Name    string          `json:"name"`
	Entries []ranking.Entry `json:"entries"`
}

// RankingSummary describes a stored ranking without its entries.
type RankingSummary struct {
	Name           string    `json:"name"`
	Size           int       `json:"size"`
	NonZeroEntries int       `json:"non_zero_entries"`
	MinimumScore   float64   `json:"minimum_score"`
	MaximumScore   float64   `json:"maximum_score"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RankingImport is the outcome of reading a ranking source. For entries that
// were not read from the tab-separated format, line numbers are 1-based
// entry positions.
type RankingImport struct {
	Summary  RankingSummary `json:"summary"`
	Path     string         `json:"path,omitempty"`
	Skipped  []string       `json:"skipped,omitempty"`  // Malformed or duplicate lines, one message each
	Unsorted []int          `json:"unsorted,omitempty"` // Lines whose score rises above the previous line's
}

// TrialResult holds the metrics of one comparison of gold against one
// randomized rebuild of a candidate.
type TrialResult struct {
	Trial       int      `json:"trial"`
	Seed        uint64   `json:"seed"`
	CommonItems int      `json:"common_items"`
	Spearman    Metric   `json:"spearman"`
	Precision   []Metric `json:"precision"` // P@k, one per cutoff
	Recall      []Metric `json:"recall"`    // R@k, one per cutoff
	MAP         []Metric `json:"map"`       // MAP over the top-k relevant set, one per cutoff
	Errors      []string `json:"errors,omitempty"`
	// PrecisionCurve is the precision at every position k of the aligned
	// rankings. It is empty when the aligned rankings differ in size.
	PrecisionCurve []Metric `json:"precision_curve,omitempty"`
}

// CutoffStats aggregates the per-trial metrics of one cutoff k.
type CutoffStats struct {
	K         int    `json:"k"`
	Precision Metric `json:"precision"`
	Recall    Metric `json:"recall"`
	MAP       Metric `json:"map"`
	Defined   int    `json:"defined"` // Trials contributing to the MAP mean
}

// ReportEntry is the aggregated result of one candidate.
type ReportEntry struct {
	Name           string        `json:"name"`
	Size           int           `json:"size"`
	NonZeroEntries int           `json:"non_zero_entries"`
	CommonItems    int           `json:"common_items"`
	Trials         int           `json:"trials"`
	Excluded       int           `json:"excluded"` // Trials with undefined Spearman left out of the mean
	MeanSpearman   Metric        `json:"mean_spearman"`
	StdDevSpearman Metric        `json:"stddev_spearman"`
	Cutoffs        []CutoffStats `json:"cutoffs"`
	PrecisionCurve []Metric      `json:"precision_curve,omitempty"` // Mean precision at every position k
	Skipped        bool          `json:"skipped,omitempty"`
	SkipReason     string        `json:"skip_reason,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// PairwiseMatrix holds the Spearman correlation between every pair of
// candidates, computed on their first trial. Rho is symmetric with ones on
// the diagonal.
type PairwiseMatrix struct {
	Names []string   `json:"names"`
	Rho   [][]Metric `json:"rho"`
}

// Report is the outcome of comparing a set of candidates against a gold ranking.
type Report struct {
	ID        string                 `json:"id"`
	Gold      string                 `json:"gold"`
	GoldSize  int                    `json:"gold_size"`
	Settings  config.CompareSettings `json:"settings"`
	Entries   []ReportEntry          `json:"entries"`
	Pairwise  *PairwiseMatrix        `json:"pairwise,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Took      int64                  `json:"took"` // Milliseconds
}

// ReportSummary describes a stored report without its entries.
type ReportSummary struct {
	ID         string    `json:"id"`
	Gold       string    `json:"gold"`
	Candidates int       `json:"candidates"`
	Best       string    `json:"best,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns the listing form of r. Best is the first entry with a
// defined mean Spearman, so it is only the winner when sorted by rho.
func (r *Report) Summary() ReportSummary {
	summary := ReportSummary{
		ID:         r.ID,
		Gold:       r.Gold,
		Candidates: len(r.Entries),
		CreatedAt:  r.CreatedAt,
	}
	if r.Settings.SortByRho {
		for _, entry := range r.Entries {
			if entry.MeanSpearman.Defined() {
				summary.Best = entry.Name
				break
			}
		}
	}
	return summary
}

// ComparisonRequest asks for a comparison of stored rankings.
type ComparisonRequest struct {
	Gold       string                   `json:"gold" validate:"required"`
	Candidates []string                 `json:"candidates" validate:"required,min=1,dive,required"`
	Settings   *config.SettingsOverride `json:"settings,omitempty"`
}
