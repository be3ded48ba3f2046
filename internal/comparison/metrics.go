package comparison

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
)

// Metrics names as constants for consistency.
const (
	MetricComparisonsTotal      = "rankcompare_comparisons_total"
	MetricComparisonDuration    = "rankcompare_comparison_duration_seconds"
	MetricTrialsTotal           = "rankcompare_trials_total"
	MetricUndefinedMetricsTotal = "rankcompare_undefined_metrics_total"
	MetricCandidatesSkipped     = "rankcompare_candidates_skipped_total"
)

// Status and outcome label values.
const (
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	OutcomeDefined   = "defined"
	OutcomeUndefined = "undefined"
)

// Metrics contains Prometheus metrics for comparison runs.
// All operations are thread-safe and a nil *Metrics records nothing.
type Metrics struct {
	comparisonsTotal  *prometheus.CounterVec
	duration          prometheus.Histogram
	trialsTotal       *prometheus.CounterVec
	undefinedMetrics  *prometheus.CounterVec
	candidatesSkipped *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		comparisonsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricComparisonsTotal,
				Help: "Total number of comparison runs by status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricComparisonDuration,
				Help:    "Histogram of comparison run duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		trialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTrialsTotal,
				Help: "Total number of candidate trials by Spearman outcome",
			},
			[]string{"outcome"},
		),
		undefinedMetrics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricUndefinedMetricsTotal,
				Help: "Total number of undefined metric values by metric and reason",
			},
			[]string{"metric", "reason"},
		),
		candidatesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCandidatesSkipped,
				Help: "Total number of candidates skipped before scoring by reason",
			},
			[]string{"reason"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.comparisonsTotal,
		m.duration,
		m.trialsTotal,
		m.undefinedMetrics,
		m.candidatesSkipped,
	}
}

// ObserveComparison records a finished comparison run.
func (m *Metrics) ObserveComparison(status string, seconds float64) {
	if m == nil {
		return
	}
	m.comparisonsTotal.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

// IncTrials counts one trial by outcome.
func (m *Metrics) IncTrials(outcome string) {
	if m == nil {
		return
	}
	m.trialsTotal.WithLabelValues(outcome).Inc()
}

// IncUndefined counts one undefined metric value.
func (m *Metrics) IncUndefined(metric string, err error) {
	if m == nil {
		return
	}
	m.undefinedMetrics.WithLabelValues(metric, Reason(err)).Inc()
}

// IncSkipped counts one skipped candidate.
func (m *Metrics) IncSkipped(err error) {
	if m == nil {
		return
	}
	m.candidatesSkipped.WithLabelValues(Reason(err)).Inc()
}

// Reason classifies err into a short label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case stderrors.Is(err, errors.ErrSizeMismatch):
		return "size_mismatch"
	case stderrors.Is(err, errors.ErrDegenerateRanking):
		return "degenerate_ranking"
	case stderrors.Is(err, errors.ErrCutoffTooLarge):
		return "cutoff_too_large"
	case stderrors.Is(err, errors.ErrNoRelevantRetrieved):
		return "no_relevant_retrieved"
	case stderrors.Is(err, errors.ErrItemMismatch):
		return "item_mismatch"
	case stderrors.Is(err, errors.ErrNoCommonItems):
		return "no_common_items"
	case stderrors.Is(err, errors.ErrEmptyRanking):
		return "empty_ranking"
	case stderrors.Is(err, errors.ErrDuplicateItem):
		return "duplicate_item"
	default:
		return "other"
	}
}
