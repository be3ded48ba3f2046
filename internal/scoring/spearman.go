// Package scoring compares a system ranking against a gold ranking.
//
// Every function expects both rankings to hold the same items. Undefined
// results are returned as NaN together with an error describing the violated
// precondition, so callers can keep them out of averages.
package scoring

import (
	"fmt"
	"math"
	"slices"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// Spearman calculates Spearman's rank correlation coefficient
//
//	rho = 1 - 6 * sum(d_i^2) / (n * (n^2 - 1))
//
// where d_i is the difference between the gold and system rank of item i.
// The rankings must have the same size and items; fewer than two items make
// the coefficient undefined.
func Spearman(gold, system *ranking.Ranking) (float64, error) {
	if gold.Size() != system.Size() {
		return math.NaN(), errors.NewSizeMismatchError(gold.Name, gold.Size(), system.Name, system.Size())
	}

	n := gold.Size()
	if n <= 1 {
		return math.NaN(), fmt.Errorf("%w: %d item(s)", errors.ErrDegenerateRanking, n)
	}

	// Summing in item order makes Spearman(a, b) and Spearman(b, a) bit-identical.
	items := gold.Elements()
	slices.SortFunc(items, (*ranking.Element).Compare)

	sumSquared := 0.0
	for _, el := range items {
		systemRank, ok := system.Rank(el.Content)
		if !ok {
			return math.NaN(), errors.NewItemMismatchError(el.Content, system.Name)
		}
		d := el.Rank - systemRank
		sumSquared += d * d
	}

	nf := float64(n)
	return 1 - (6*sumSquared)/(nf*(nf*nf-1)), nil
}

// LargestDisplacement returns the item whose rank differs most between the two
// rankings, with its gold and system ranks. It is a diagnostic for explaining
// a low correlation; ok is false when no item is shared.
func LargestDisplacement(gold, system *ranking.Ranking) (item string, goldRank, systemRank float64, ok bool) {
	biggest := -1.0
	for _, el := range gold.Elements() {
		rank, found := system.Rank(el.Content)
		if !found {
			continue
		}
		if dist := math.Abs(el.Rank - rank); dist > biggest {
			biggest = dist
			item, goldRank, systemRank, ok = el.Content, el.Rank, rank, true
		}
	}
	return item, goldRank, systemRank, ok
}
