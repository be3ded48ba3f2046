package scoring

import (
	"math"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// MAP calculates the mean average precision of a precision/recall curve:
// the precision is sampled each time recall rises (one more relevant item has
// been retrieved) and the samples are averaged. A curve on which recall never
// rises has no defined MAP.
func MAP(curve []PRPoint) (float64, error) {
	currentRecall := 0.0
	sum := 0.0
	found := 0
	for _, pt := range curve {
		if pt.Recall != currentRecall {
			sum += pt.Precision
			found++
			currentRecall = pt.Recall
		}
	}
	if found == 0 {
		return math.NaN(), errors.ErrNoRelevantRetrieved
	}
	return sum / float64(found), nil
}

// PRAtK calculates, for every position k, the precision of the system ranking
// against the gold ranking read up to the same position. An item the system
// places before gold does is counted as correct once gold reaches it, and vice
// versa. The rankings must have the same size.
func PRAtK(gold, system *ranking.Ranking) ([]float64, error) {
	if gold.Size() != system.Size() {
		return nil, errors.NewSizeMismatchError(gold.Name, gold.Size(), system.Name, system.Size())
	}

	goldOrder := gold.ByRank()
	systemOrder := system.ByRank()

	tp, fp := 0, 0
	missedGold := make(map[string]struct{})  // gold items the system has not placed yet
	extraSystem := make(map[string]struct{}) // system items gold has not reached yet

	precisions := make([]float64, 0, len(goldOrder))
	for k := range goldOrder {
		g, s := goldOrder[k], systemOrder[k]

		if g.Equal(s) {
			tp++
		} else {
			if _, ok := missedGold[s.Content]; ok {
				tp++
				delete(missedGold, s.Content)
			} else {
				fp++
				extraSystem[s.Content] = struct{}{}
			}

			if _, ok := extraSystem[g.Content]; ok {
				tp++
				fp--
				delete(extraSystem, g.Content)
			} else {
				missedGold[g.Content] = struct{}{}
			}
		}
		precisions = append(precisions, precision(tp, fp))
	}
	return precisions, nil
}
