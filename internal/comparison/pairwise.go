package comparison

import (
	"context"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-rank-compare/internal/scoring"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// pairwise correlates the first trial of every scored candidate with every
// other one. Names keep the input order. Each pair is aligned on copies, so
// the matrix is also defined when candidates were not filtered against gold.
func (c *Comparator) pairwise(ctx context.Context, runs []*candidateRun) *model.PairwiseMatrix {
	var names []string
	var firsts []*ranking.Ranking
	for _, run := range runs {
		if run.skipErr != nil || len(run.trials) == 0 {
			continue
		}
		names = append(names, run.source.Name)
		firsts = append(firsts, run.trials[0].aligned)
	}

	matrix := &model.PairwiseMatrix{
		Names: names,
		Rho:   make([][]model.Metric, len(names)),
	}
	for i := range matrix.Rho {
		matrix.Rho[i] = make([]model.Metric, len(names))
		matrix.Rho[i][i] = 1
	}

	for i := range firsts {
		for j := i + 1; j < len(firsts); j++ {
			a, b := firsts[i].Clone(), firsts[j].Clone()
			ranking.FilterCommon(a, b)

			rho, err := scoring.Spearman(a, b)
			if err != nil {
				c.metrics.IncUndefined("pairwise", err)
				c.logger.Warn(ctx, "Pairwise correlation undefined",
					zap.String("first", names[i]),
					zap.String("second", names[j]),
					zap.Error(err))
			}
			matrix.Rho[i][j] = model.Metric(rho)
			matrix.Rho[j][i] = model.Metric(rho)
		}
	}
	return matrix
}
