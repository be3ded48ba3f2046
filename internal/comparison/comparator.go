// Package comparison scores candidate rankings against a gold ranking.
//
// Each candidate is rebuilt once per trial with its own random source, so
// zero-score ties are broken differently in every trial. Trials run
// concurrently on private copies of the gold ranking and are folded into one
// report entry per candidate.
package comparison

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-rank-compare/config"
	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
	"github.com/gcbaptista/go-rank-compare/internal/scoring"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// ProgressFunc is called after every finished trial. Calls are serialized and
// done increases by one on every call.
type ProgressFunc func(done, total int)

// Comparator runs comparisons. It holds no per-run state and is safe for
// concurrent use.
type Comparator struct {
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Comparator) {
		c.logger = logger
	}
}

// WithMetrics sets the Prometheus metrics the comparator records to.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Comparator) {
		c.metrics = metrics
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Comparator) {
		c.now = now
	}
}

// New creates a Comparator.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type candidateRun struct {
	index       int
	source      model.RankingSource
	size        int
	nonZero     int
	commonItems int
	skipErr     error
	warnings    []string
	trials      []trialOutcome
}

type trialOutcome struct {
	result  model.TrialResult
	aligned *ranking.Ranking
}

// Compare scores every candidate against gold and returns the report.
func (c *Comparator) Compare(ctx context.Context, settings config.CompareSettings, gold model.RankingSource, candidates []model.RankingSource) (*model.Report, error) {
	return c.CompareWithProgress(ctx, settings, gold, candidates, nil)
}

// CompareWithProgress is Compare reporting progress after every trial.
// Failures local to one candidate or trial are recorded in the report; an
// error is returned only for invalid settings, an unusable gold ranking or a
// cancelled context.
func (c *Comparator) CompareWithProgress(ctx context.Context, settings config.CompareSettings, gold model.RankingSource, candidates []model.RankingSource, progress ProgressFunc) (report *model.Report, err error) {
	start := c.now()
	defer func() {
		status := StatusSuccess
		if err != nil {
			status = StatusFailure
		}
		c.metrics.ObserveComparison(status, c.now().Sub(start).Seconds())
	}()

	settings.ApplyDefaults()
	if conflicts := settings.Validate(); len(conflicts) > 0 {
		return nil, errors.NewValidationError("settings", strings.Join(conflicts, "; "))
	}
	settings.Cutoffs = settings.SortedCutoffs()
	if settings.Seed == 0 {
		settings.Seed = uint64(start.UnixNano())
	}

	goldRanking, err := ranking.Build(gold.Name, gold.Entries, settings.GoldPolicy())
	if err != nil {
		return nil, fmt.Errorf("gold ranking %s: %w", gold.Name, err)
	}
	if goldRanking.Size() == 0 {
		return nil, fmt.Errorf("gold ranking %s: %w", gold.Name, errors.ErrEmptyRanking)
	}

	c.logger.Info(ctx, "Starting comparison",
		zap.String("gold", gold.Name),
		zap.Int("gold_size", goldRanking.Size()),
		zap.Int("candidates", len(candidates)),
		zap.Int("trials", settings.Trials()),
		zap.Uint64("seed", settings.Seed))

	runs := make([]*candidateRun, len(candidates))
	total := 0
	for i, candidate := range candidates {
		runs[i] = c.prepare(ctx, i, candidate, goldRanking, &settings)
		total += len(runs[i].trials)
	}

	var (
		progressMu sync.Mutex
		done       int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(settings.Parallelism)
	for _, run := range runs {
		for t := range run.trials {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				run.trials[t] = c.runTrial(gctx, run, t, goldRanking, &settings)
				if progress != nil {
					progressMu.Lock()
					done++
					progress(done, total)
					progressMu.Unlock()
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("comparison cancelled: %w", err)
	}

	report = &model.Report{
		ID:        uuid.New().String(),
		Gold:      gold.Name,
		GoldSize:  goldRanking.Size(),
		Settings:  settings,
		Entries:   make([]model.ReportEntry, 0, len(runs)),
		CreatedAt: start,
	}
	for _, run := range runs {
		report.Entries = append(report.Entries, aggregate(run, settings.Cutoffs))
	}
	if settings.SortByRho {
		sortByRho(report.Entries)
	}
	if settings.Intercorrelations {
		report.Pairwise = c.pairwise(ctx, runs)
	}
	report.Took = c.now().Sub(start).Milliseconds()

	c.logger.Info(ctx, "Comparison finished",
		zap.String("report_id", report.ID),
		zap.String("gold", gold.Name),
		zap.Int64("took_ms", report.Took))
	return report, nil
}

// prepare checks a candidate once before its trials are scheduled. A
// candidate that cannot be scored gets no trials and a skip error.
func (c *Comparator) prepare(ctx context.Context, index int, source model.RankingSource, gold *ranking.Ranking, settings *config.CompareSettings) *candidateRun {
	run := &candidateRun{index: index, source: source}

	plain, err := ranking.Build(source.Name, source.Entries, ranking.Policy{})
	if err == nil && plain.Size() == 0 {
		err = errors.ErrEmptyRanking
	}
	if err == nil {
		run.size = plain.Size()
		run.nonZero = plain.NonZeroEntries()
		for _, el := range plain.Elements() {
			if gold.Contains(el.Content) {
				run.commonItems++
			}
		}
		if run.commonItems == 0 {
			err = errors.ErrNoCommonItems
		}
	}

	if err != nil {
		run.skipErr = err
		c.metrics.IncSkipped(err)
		c.logger.Warn(ctx, "Skipping candidate",
			zap.String("candidate", source.Name),
			zap.Error(err))
		return run
	}

	if !settings.FilterAllCommon && (run.commonItems != gold.Size() || run.size != gold.Size()) {
		run.warnings = append(run.warnings,
			fmt.Sprintf("candidate and gold differ in items (%d shared, %d in candidate, %d in gold) and are not filtered", run.commonItems, run.size, gold.Size()))
	}

	run.trials = make([]trialOutcome, settings.Trials())
	return run
}

// runTrial rebuilds the candidate with the trial's seed, aligns it with a
// private copy of gold and scores the pair.
func (c *Comparator) runTrial(ctx context.Context, run *candidateRun, trial int, gold *ranking.Ranking, settings *config.CompareSettings) trialOutcome {
	seed := TrialSeed(settings.Seed, run.index, trial)
	result := model.TrialResult{
		Trial:     trial,
		Seed:      seed,
		Precision: make([]model.Metric, 0, len(settings.Cutoffs)),
		Recall:    make([]model.Metric, 0, len(settings.Cutoffs)),
		MAP:       make([]model.Metric, 0, len(settings.Cutoffs)),
	}

	// prepare already built this source successfully
	system, _ := ranking.Build(run.source.Name, run.source.Entries, settings.CandidatePolicy(), ranking.WithSeed(seed))
	goldCopy := gold.Clone()

	if settings.FilterAllCommon {
		result.CommonItems = ranking.FilterCommon(goldCopy, system)
	} else {
		result.CommonItems = run.commonItems
	}

	rho, err := scoring.Spearman(goldCopy, system)
	result.Spearman = model.Metric(rho)
	if err != nil {
		c.undefined(ctx, &result, run.source.Name, "spearman", err)
		c.metrics.IncTrials(OutcomeUndefined)
	} else {
		c.metrics.IncTrials(OutcomeDefined)
		c.logDisplacement(ctx, goldCopy, system, trial)
	}

	if goldCopy.Size() == system.Size() {
		// Sizes were checked, so PRAtK cannot fail here.
		curve, _ := scoring.PRAtK(goldCopy, system)
		result.PrecisionCurve = make([]model.Metric, len(curve))
		for i, p := range curve {
			result.PrecisionCurve[i] = model.Metric(p)
		}
	}

	for _, k := range settings.Cutoffs {
		precision, recall, meanAP := model.Undefined(), model.Undefined(), model.Undefined()

		curve, err := scoring.PRAtFixedK(goldCopy, system, k)
		if err != nil {
			c.undefined(ctx, &result, run.source.Name, fmt.Sprintf("pr@%d", k), err)
		} else {
			precision = model.Metric(scoring.PrecisionAt(curve, k))
			recall = model.Metric(scoring.RecallAt(curve, k))

			value, err := scoring.MAP(curve)
			meanAP = model.Metric(value)
			if err != nil {
				c.undefined(ctx, &result, run.source.Name, fmt.Sprintf("map@%d", k), err)
			}
		}

		result.Precision = append(result.Precision, precision)
		result.Recall = append(result.Recall, recall)
		result.MAP = append(result.MAP, meanAP)
	}

	return trialOutcome{result: result, aligned: system}
}

// logDisplacement reports the item whose rank moved the most, which usually
// explains a low correlation.
func (c *Comparator) logDisplacement(ctx context.Context, gold, system *ranking.Ranking, trial int) {
	if !c.logger.Enabled(zapcore.DebugLevel) {
		return
	}
	item, _, _, ok := scoring.LargestDisplacement(gold, system)
	if !ok {
		return
	}
	c.logger.Debug(ctx, "Largest rank displacement",
		zap.String("candidate", system.Name),
		zap.Int("trial", trial),
		zap.String("gold", gold.Element(item).LongString()),
		zap.String("system", system.Element(item).LongString()))
}

func (c *Comparator) undefined(ctx context.Context, result *model.TrialResult, candidate, metric string, err error) {
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", metric, err))
	c.metrics.IncUndefined(strings.SplitN(metric, "@", 2)[0], err)
	c.logger.Warn(ctx, "Metric undefined",
		zap.String("candidate", candidate),
		zap.Int("trial", result.Trial),
		zap.String("metric", metric),
		zap.Error(err))
}
