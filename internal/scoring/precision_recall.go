package scoring

import (
	"math"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// PRPoint is the precision and recall, in percent, after one position of the
// system ranking has been read.
type PRPoint struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// PRAtFixedK calculates the precision/recall curve of the system ranking when
// the top k items of the gold ranking are the relevant ones. The curve has one
// point per position 1..|gold| of the system ranking.
func PRAtFixedK(gold, system *ranking.Ranking, k int) ([]PRPoint, error) {
	if k < 1 {
		return nil, errors.NewValidationError("k", "cutoff must be at least 1")
	}
	if gold.Size() < k {
		return nil, errors.NewCutoffError(k, gold.Size())
	}
	if system.Size() < gold.Size() {
		return nil, errors.NewSizeMismatchError(gold.Name, gold.Size(), system.Name, system.Size())
	}

	relevant := make(map[string]struct{}, k)
	for _, el := range gold.ByRank()[:k] {
		relevant[el.Content] = struct{}{}
	}

	systemOrder := system.ByRank()
	curve := make([]PRPoint, 0, gold.Size())
	tp, fp := 0, 0
	for j := 0; j < gold.Size(); j++ {
		if _, ok := relevant[systemOrder[j].Content]; ok {
			tp++
		} else {
			fp++
		}
		fn := k - tp
		curve = append(curve, PRPoint{
			Precision: precision(tp, fp),
			Recall:    recall(tp, fn),
		})
	}
	return curve, nil
}

// PrecisionAt returns the precision after k positions, or NaN if the curve is shorter.
func PrecisionAt(curve []PRPoint, k int) float64 {
	if k < 1 || k > len(curve) {
		return math.NaN()
	}
	return curve[k-1].Precision
}

// RecallAt returns the recall after k positions, or NaN if the curve is shorter.
func RecallAt(curve []PRPoint, k int) float64 {
	if k < 1 || k > len(curve) {
		return math.NaN()
	}
	return curve[k-1].Recall
}

func precision(tp, fp int) float64 {
	if tp == 0 {
		return 0
	}
	return float64(tp*100) / float64(tp+fp)
}

func recall(tp, fn int) float64 {
	if tp == 0 {
		return 0
	}
	return float64(tp*100) / float64(tp+fn)
}
