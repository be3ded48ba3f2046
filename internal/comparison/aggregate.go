package comparison

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/gcbaptista/go-rank-compare/model"
)

// meanStdDev returns the mean and the population standard deviation of the
// defined values. Both are undefined when no value is defined.
func meanStdDev(values []model.Metric) (mean, stdDev model.Metric) {
	xs := defined(values)
	if len(xs) == 0 {
		return model.Undefined(), model.Undefined()
	}
	return model.Metric(stat.Mean(xs, nil)), model.Metric(math.Sqrt(stat.PopVariance(xs, nil)))
}

// meanOf returns the mean of the defined values and how many there were.
func meanOf(values []model.Metric) (model.Metric, int) {
	xs := defined(values)
	if len(xs) == 0 {
		return model.Undefined(), 0
	}
	return model.Metric(stat.Mean(xs, nil)), len(xs)
}

func defined(values []model.Metric) []float64 {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Defined() {
			xs = append(xs, v.Float())
		}
	}
	return xs
}

// aggregate folds the trials of one candidate into its report entry.
// Undefined trial values are left out of every mean and counted instead.
func aggregate(run *candidateRun, cutoffs []int) model.ReportEntry {
	entry := model.ReportEntry{
		Name:           run.source.Name,
		Size:           run.size,
		NonZeroEntries: run.nonZero,
		CommonItems:    run.commonItems,
		Trials:         len(run.trials),
		Cutoffs:        []model.CutoffStats{},
		Warnings:       run.warnings,
	}

	if run.skipErr != nil {
		entry.Skipped = true
		entry.SkipReason = run.skipErr.Error()
		entry.Trials = 0
		entry.MeanSpearman, entry.StdDevSpearman = model.Undefined(), model.Undefined()
		return entry
	}

	rhos := make([]model.Metric, len(run.trials))
	for i, trial := range run.trials {
		rhos[i] = trial.result.Spearman
	}
	entry.MeanSpearman, entry.StdDevSpearman = meanStdDev(rhos)
	entry.Excluded = len(rhos) - len(defined(rhos))
	if entry.Excluded > 0 {
		entry.Warnings = append(entry.Warnings,
			fmt.Sprintf("%d of %d trials had an undefined Spearman coefficient", entry.Excluded, len(rhos)))
	}

	for ci, k := range cutoffs {
		precisions := make([]model.Metric, len(run.trials))
		recalls := make([]model.Metric, len(run.trials))
		maps := make([]model.Metric, len(run.trials))
		for i, trial := range run.trials {
			precisions[i] = trial.result.Precision[ci]
			recalls[i] = trial.result.Recall[ci]
			maps[i] = trial.result.MAP[ci]
		}

		stats := model.CutoffStats{K: k}
		stats.Precision, _ = meanOf(precisions)
		stats.Recall, _ = meanOf(recalls)
		stats.MAP, stats.Defined = meanOf(maps)
		entry.Cutoffs = append(entry.Cutoffs, stats)
	}

	entry.PrecisionCurve = meanCurve(run.trials)
	return entry
}

// meanCurve averages the precision curves of the trials position by position.
// A position only counts the trials whose curve reaches it.
func meanCurve(trials []trialOutcome) []model.Metric {
	length := 0
	for _, trial := range trials {
		length = max(length, len(trial.result.PrecisionCurve))
	}
	if length == 0 {
		return nil
	}

	curve := make([]model.Metric, length)
	column := make([]model.Metric, 0, len(trials))
	for k := range curve {
		column = column[:0]
		for _, trial := range trials {
			if k < len(trial.result.PrecisionCurve) {
				column = append(column, trial.result.PrecisionCurve[k])
			}
		}
		curve[k], _ = meanOf(column)
	}
	return curve
}

// sortByRho orders entries by descending mean Spearman. Entries without a
// defined mean go last; equal means keep their input order.
func sortByRho(entries []model.ReportEntry) {
	slices.SortStableFunc(entries, func(a, b model.ReportEntry) int {
		aDefined, bDefined := a.MeanSpearman.Defined(), b.MeanSpearman.Defined()
		switch {
		case aDefined && !bDefined:
			return -1
		case !aDefined && bDefined:
			return 1
		case !aDefined && !bDefined:
			return 0
		}
		return cmp.Compare(b.MeanSpearman, a.MeanSpearman)
	})
}
