// Package config provides configuration structures for the ranking comparator.
// It defines comparison settings, server and logging options, and the layered
// loader that fills them from defaults, a YAML file and the environment.
package config

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/gcbaptista/go-rank-compare/ranking"
)

// DefaultNumberShuffles is the number of randomized trials run per candidate
// when zero-score ties are shuffled.
const DefaultNumberShuffles = 50

// CompareSettings contains all options controlling one comparison run.
// Cutoffs is the list of k values for which precision, recall and MAP are
// reported; an empty list reports Spearman only.
type CompareSettings struct {
	ConsiderTies      bool   `json:"consider_ties" koanf:"consider_ties"`                                 // Average the ranks of equally scored candidate items
	ShuffleZeroTies   bool   `json:"shuffle_zero_ties" koanf:"shuffle_zero_ties"`                         // Randomly order zero-score candidate items instead of averaging
	NumberShuffles    int    `json:"number_shuffles" koanf:"number_shuffles" validate:"gte=0,lte=100000"` // Trials per candidate when shuffling
	Cutoffs           []int  `json:"cutoffs" koanf:"cutoffs" validate:"dive,gte=1"`                       // k values for P@k, R@k and MAP
	FilterAllCommon   bool   `json:"filter_all_common" koanf:"filter_all_common"`                         // Align gold and candidate to their common items before scoring
	SortByRho         bool   `json:"sort_by_rho" koanf:"sort_by_rho"`                                     // Sort the report by descending mean Spearman
	Intercorrelations bool   `json:"intercorrelations" koanf:"intercorrelations"`                         // Compute the pairwise candidate matrix
	GoldConsiderTies  bool   `json:"gold_consider_ties" koanf:"gold_consider_ties"`                       // Average the ranks of equally scored gold items
	Seed              uint64 `json:"seed" koanf:"seed"`                                                   // Base seed for trial randomness, 0 derives one from the clock
	Parallelism       int    `json:"parallelism" koanf:"parallelism" validate:"gte=0,lte=1024"`           // Concurrent trials, 0 uses GOMAXPROCS
}

// DefaultCompareSettings returns the settings used when nothing else is configured.
func DefaultCompareSettings() CompareSettings {
	return CompareSettings{
		ConsiderTies:      true,
		ShuffleZeroTies:   true,
		NumberShuffles:    DefaultNumberShuffles,
		Cutoffs:           []int{},
		FilterAllCommon:   true,
		SortByRho:         true,
		Intercorrelations: false,
		GoldConsiderTies:  false,
		Seed:              0,
		Parallelism:       0,
	}
}

// ApplyDefaults fills unset numeric values and normalizes the cutoff list.
func (settings *CompareSettings) ApplyDefaults() {
	if settings.NumberShuffles == 0 {
		settings.NumberShuffles = DefaultNumberShuffles
	}
	if settings.Parallelism == 0 {
		settings.Parallelism = runtime.GOMAXPROCS(0)
	}

	// Initialize empty slices if nil so reports always carry a list
	if settings.Cutoffs == nil {
		settings.Cutoffs = []int{}
	}
}

// Validate returns a human readable message for every invalid value.
func (settings *CompareSettings) Validate() []string {
	var conflicts []string

	if settings.NumberShuffles < 0 {
		conflicts = append(conflicts, fmt.Sprintf("number_shuffles must not be negative (got %d)", settings.NumberShuffles))
	}
	if settings.Parallelism < 0 {
		conflicts = append(conflicts, fmt.Sprintf("parallelism must not be negative (got %d)", settings.Parallelism))
	}

	for _, k := range settings.Cutoffs {
		if k < 1 {
			conflicts = append(conflicts, fmt.Sprintf("Invalid cutoff %d in cutoffs (must be at least 1)", k))
		}
	}

	return conflicts
}

// Trials returns the number of randomized rebuilds of each candidate.
func (settings *CompareSettings) Trials() int {
	if settings.Shuffling() && settings.NumberShuffles > 0 {
		return settings.NumberShuffles
	}
	return 1
}

// Shuffling reports whether zero-score ties are actually randomized.
func (settings *CompareSettings) Shuffling() bool {
	return settings.ConsiderTies && settings.ShuffleZeroTies
}

// CandidatePolicy is the tie policy candidate rankings are built with.
func (settings *CompareSettings) CandidatePolicy() ranking.Policy {
	return ranking.Policy{ConsiderTies: settings.ConsiderTies, ShuffleZeroTies: settings.ShuffleZeroTies}
}

// GoldPolicy is the tie policy the gold ranking is built with. Gold ranks are
// never shuffled.
func (settings *CompareSettings) GoldPolicy() ranking.Policy {
	return ranking.Policy{ConsiderTies: settings.GoldConsiderTies}
}

// SortedCutoffs returns the cutoffs in ascending order without duplicates.
func (settings *CompareSettings) SortedCutoffs() []int {
	cutoffs := slices.Clone(settings.Cutoffs)
	slices.Sort(cutoffs)
	return slices.Compact(cutoffs)
}

// SettingsOverride is a partial update of CompareSettings. Nil fields keep the
// base value.
type SettingsOverride struct {
	ConsiderTies      *bool   `json:"consider_ties,omitempty"`
	ShuffleZeroTies   *bool   `json:"shuffle_zero_ties,omitempty"`
	NumberShuffles    *int    `json:"number_shuffles,omitempty" validate:"omitempty,gte=1,lte=100000"`
	Cutoffs           *[]int  `json:"cutoffs,omitempty"` // Use an empty list to clear
	FilterAllCommon   *bool   `json:"filter_all_common,omitempty"`
	SortByRho         *bool   `json:"sort_by_rho,omitempty"`
	Intercorrelations *bool   `json:"intercorrelations,omitempty"`
	GoldConsiderTies  *bool   `json:"gold_consider_ties,omitempty"`
	Seed              *uint64 `json:"seed,omitempty"`
	Parallelism       *int    `json:"parallelism,omitempty" validate:"omitempty,gte=1,lte=1024"`
}

// Apply returns base with every non-nil field of the override applied.
func (o *SettingsOverride) Apply(base CompareSettings) CompareSettings {
	if o == nil {
		return base
	}
	if o.ConsiderTies != nil {
		base.ConsiderTies = *o.ConsiderTies
	}
	if o.ShuffleZeroTies != nil {
		base.ShuffleZeroTies = *o.ShuffleZeroTies
	}
	if o.NumberShuffles != nil {
		base.NumberShuffles = *o.NumberShuffles
	}
	if o.Cutoffs != nil {
		base.Cutoffs = slices.Clone(*o.Cutoffs)
	}
	if o.FilterAllCommon != nil {
		base.FilterAllCommon = *o.FilterAllCommon
	}
	if o.SortByRho != nil {
		base.SortByRho = *o.SortByRho
	}
	if o.Intercorrelations != nil {
		base.Intercorrelations = *o.Intercorrelations
	}
	if o.GoldConsiderTies != nil {
		base.GoldConsiderTies = *o.GoldConsiderTies
	}
	if o.Seed != nil {
		base.Seed = *o.Seed
	}
	if o.Parallelism != nil {
		base.Parallelism = *o.Parallelism
	}
	return base
}
