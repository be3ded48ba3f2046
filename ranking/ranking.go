// Package ranking builds tie-aware ranked lists from scored items and aligns
// pairs of rankings to a common item universe.
package ranking

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
)

// Policy controls how ranks are assigned to groups of equally scored elements.
type Policy struct {
	// ConsiderTies groups consecutive elements with identical score and gives
	// them the mean of the positions they occupy.
	ConsiderTies bool `json:"consider_ties"`
	// ShuffleZeroTies gives a zero-score group a random permutation of its
	// positions instead of the averaged rank. Only used with ConsiderTies.
	ShuffleZeroTies bool `json:"shuffle_zero_ties"`
}

// Ranking is an ordered collection of elements. Insertion order is the order of
// the source, which is assumed to be sorted by descending score.
// A Ranking must not be mutated concurrently.
type Ranking struct {
	Name string

	elements       []*Element
	index          map[string]*Element
	nonZeroEntries int
	minimumScore   float64
	maximumScore   float64
	policy         Policy
	rng            *rand.Rand
}

// Option configures Build.
type Option func(*Ranking)

// WithSeed seeds the random source used for zero-score tie shuffling.
func WithSeed(seed uint64) Option {
	return func(r *Ranking) {
		r.rng = NewRand(seed)
	}
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Build creates a ranking from entries listed by descending score. The nominal
// rank of the i-th entry (1-based) is i; ties are resolved according to policy.
// Empty input yields an empty ranking. A repeated identifier is an error.
func Build(name string, entries []Entry, policy Policy, opts ...Option) (*Ranking, error) {
	r := &Ranking{
		Name:     name,
		elements: make([]*Element, 0, len(entries)),
		index:    make(map[string]*Element, len(entries)),
		policy:   policy,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = NewRand(uint64(time.Now().UnixNano()))
	}

	for _, entry := range entries {
		if _, exists := r.index[entry.ID]; exists {
			return nil, errors.NewDuplicateItemError(entry.ID)
		}
		el := &Element{Content: entry.ID, Score: entry.Score, Comment: entry.Comment}
		r.elements = append(r.elements, el)
		r.index[el.Content] = el
	}

	r.assignRanks(false)
	return r, nil
}

// ReassignRanks recomputes all ranks over the remaining elements in their
// current order, using the same tie policy as Build. A shuffled zero-score group
// keeps the relative order its members already had, compacted onto the
// positions the group now occupies.
func (r *Ranking) ReassignRanks() {
	r.assignRanks(true)
}

func (r *Ranking) assignRanks(keepShuffledOrder bool) {
	r.nonZeroEntries = 0
	r.minimumScore = 0
	r.maximumScore = 0

	for i, el := range r.elements {
		if el.Score != 0 {
			r.nonZeroEntries++
		}
		if i == 0 || el.Score < r.minimumScore {
			r.minimumScore = el.Score
		}
		if i == 0 || el.Score > r.maximumScore {
			r.maximumScore = el.Score
		}
	}

	if !r.policy.ConsiderTies {
		for i, el := range r.elements {
			el.Rank = float64(i + 1)
		}
		return
	}

	for start := 0; start < len(r.elements); {
		end := start + 1
		for end < len(r.elements) && sameScore(r.elements[end].Score, r.elements[start].Score) {
			end++
		}
		r.assignGroup(r.elements[start:end], start+1, keepShuffledOrder)
		start = end
	}
}

// assignGroup ranks one tie group occupying positions first..first+len(group)-1.
func (r *Ranking) assignGroup(group []*Element, first int, keepShuffledOrder bool) {
	m := len(group)

	if r.policy.ShuffleZeroTies && group[0].Score == 0 {
		if keepShuffledOrder {
			ordered := slices.Clone(group)
			slices.SortStableFunc(ordered, func(a, b *Element) int {
				return compareFloat(a.Rank, b.Rank)
			})
			for k, el := range ordered {
				el.Rank = float64(first + k)
			}
			return
		}
		for k, p := range r.rng.Perm(m) {
			group[k].Rank = float64(first + p)
		}
		return
	}

	rank := float64(first+first+m-1) / 2
	for _, el := range group {
		el.Rank = rank
	}
}

func sameScore(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Size returns the number of elements.
func (r *Ranking) Size() int {
	return len(r.elements)
}

// Policy returns the tie policy the ranking was built with.
func (r *Ranking) Policy() Policy {
	return r.policy
}

// NonZeroEntries returns the number of elements with a score other than zero.
func (r *Ranking) NonZeroEntries() int {
	return r.nonZeroEntries
}

// MinimumScore returns the smallest score, or 0 for an empty ranking.
func (r *Ranking) MinimumScore() float64 {
	return r.minimumScore
}

// MaximumScore returns the largest score, or 0 for an empty ranking.
func (r *Ranking) MaximumScore() float64 {
	return r.maximumScore
}

// Elements returns the elements in insertion order.
// The slice is a copy; the elements are shared.
func (r *Ranking) Elements() []*Element {
	return slices.Clone(r.elements)
}

// ByRank returns the elements ordered by rank. Elements with equal rank keep
// their insertion order.
func (r *Ranking) ByRank() []*Element {
	ordered := slices.Clone(r.elements)
	slices.SortStableFunc(ordered, func(a, b *Element) int {
		return compareFloat(a.Rank, b.Rank)
	})
	return ordered
}

// Contains reports whether an element with this content is in the ranking.
func (r *Ranking) Contains(content string) bool {
	_, ok := r.index[content]
	return ok
}

// Element returns the element with this content, or nil.
func (r *Ranking) Element(content string) *Element {
	return r.index[content]
}

// Rank returns the rank of the element with this content.
func (r *Ranking) Rank(content string) (float64, bool) {
	el, ok := r.index[content]
	if !ok {
		return 0, false
	}
	return el.Rank, true
}

// Remove deletes the element with this content. Ranks are left untouched;
// call ReassignRanks afterwards.
func (r *Ranking) Remove(content string) bool {
	if _, ok := r.index[content]; !ok {
		return false
	}
	delete(r.index, content)
	r.elements = slices.DeleteFunc(r.elements, func(el *Element) bool {
		return el.Content == content
	})
	return true
}

// Clone returns a deep copy that can be filtered and re-ranked independently.
// The copy shares the random source.
func (r *Ranking) Clone() *Ranking {
	c := &Ranking{
		Name:           r.Name,
		elements:       make([]*Element, len(r.elements)),
		index:          make(map[string]*Element, len(r.elements)),
		nonZeroEntries: r.nonZeroEntries,
		minimumScore:   r.minimumScore,
		maximumScore:   r.maximumScore,
		policy:         r.policy,
		rng:            r.rng,
	}
	for i, el := range r.elements {
		copied := *el
		c.elements[i] = &copied
		c.index[copied.Content] = &copied
	}
	return c
}
