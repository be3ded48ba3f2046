// Package store keeps rankings and comparison reports in memory and
// snapshots them with gob.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// RankingStore holds named ranking sources. Entries are stored as given, in
// descending score order; rankings are built from them per comparison.
type RankingStore struct {
	Mu        sync.RWMutex
	Sources   map[string]model.RankingSource
	Summaries map[string]model.RankingSummary
}

// gobRankingStoreData is a helper struct for Gob encoding/decoding RankingStore data.
// It excludes the mutex.
type gobRankingStoreData struct {
	Sources   map[string]model.RankingSource
	Summaries map[string]model.RankingSummary
}

// NewRankingStore creates an empty store.
func NewRankingStore() *RankingStore {
	return &RankingStore{
		Sources:   make(map[string]model.RankingSource),
		Summaries: make(map[string]model.RankingSummary),
	}
}

// ValidateName checks that name can identify a ranking.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.NewValidationError("name", "ranking name cannot be empty")
	case strings.ContainsAny(name, "/\\"):
		return errors.NewValidationError("name", "ranking name cannot contain path separators")
	}
	return nil
}

// Put stores entries under name, replacing any ranking with that name.
// Entries must be non-empty and free of repeated identifiers.
func (s *RankingStore) Put(name string, entries []ranking.Entry) (model.RankingSummary, error) {
	if err := ValidateName(name); err != nil {
		return model.RankingSummary{}, err
	}
	if len(entries) == 0 {
		return model.RankingSummary{}, fmt.Errorf("ranking '%s': %w", name, errors.ErrEmptyRanking)
	}

	// Ties are irrelevant for the summary; only the statistics are used.
	r, err := ranking.Build(name, entries, ranking.Policy{}, ranking.WithSeed(0))
	if err != nil {
		return model.RankingSummary{}, fmt.Errorf("ranking '%s': %w", name, err)
	}
	summary := model.RankingSummary{
		Name:           name,
		Size:           r.Size(),
		NonZeroEntries: r.NonZeroEntries(),
		MinimumScore:   r.MinimumScore(),
		MaximumScore:   r.MaximumScore(),
		UpdatedAt:      time.Now(),
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Sources[name] = model.RankingSource{Name: name, Entries: slices.Clone(entries)}
	s.Summaries[name] = summary
	return summary, nil
}

// Get returns a copy of the named source.
func (s *RankingStore) Get(name string) (model.RankingSource, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	source, exists := s.Sources[name]
	if !exists {
		return model.RankingSource{}, errors.NewRankingNotFoundError(name)
	}
	return model.RankingSource{Name: source.Name, Entries: slices.Clone(source.Entries)}, nil
}

// GetMany returns copies of the named sources in the given order. The first
// unknown name is reported as an error.
func (s *RankingStore) GetMany(names []string) ([]model.RankingSource, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	sources := make([]model.RankingSource, 0, len(names))
	for _, name := range names {
		source, exists := s.Sources[name]
		if !exists {
			return nil, errors.NewRankingNotFoundError(name)
		}
		sources = append(sources, model.RankingSource{Name: source.Name, Entries: slices.Clone(source.Entries)})
	}
	return sources, nil
}

// Summary returns the statistics of the named ranking.
func (s *RankingStore) Summary(name string) (model.RankingSummary, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	summary, exists := s.Summaries[name]
	if !exists {
		return model.RankingSummary{}, errors.NewRankingNotFoundError(name)
	}
	return summary, nil
}

// List returns the summaries of all rankings sorted by name.
func (s *RankingStore) List() []model.RankingSummary {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	summaries := make([]model.RankingSummary, 0, len(s.Summaries))
	for _, summary := range s.Summaries {
		summaries = append(summaries, summary)
	}
	slices.SortFunc(summaries, func(a, b model.RankingSummary) int {
		return strings.Compare(a.Name, b.Name)
	})
	return summaries
}

// Delete removes the named ranking.
func (s *RankingStore) Delete(name string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, exists := s.Sources[name]; !exists {
		return errors.NewRankingNotFoundError(name)
	}
	delete(s.Sources, name)
	delete(s.Summaries, name)
	return nil
}

// Len returns the number of stored rankings.
func (s *RankingStore) Len() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return len(s.Sources)
}

// GobEncode implements the gob.GobEncoder interface for RankingStore.
func (s *RankingStore) GobEncode() ([]byte, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobRankingStoreData{
		Sources:   s.Sources,
		Summaries: s.Summaries,
	}); err != nil {
		return nil, fmt.Errorf("failed to gob encode ranking store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for RankingStore.
func (s *RankingStore) GobDecode(data []byte) error {
	decoded := gobRankingStoreData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to gob decode ranking store data: %w", err)
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	s.Sources = decoded.Sources
	s.Summaries = decoded.Summaries
	// Ensure maps are initialized if they were nil after decoding
	if s.Sources == nil {
		s.Sources = make(map[string]model.RankingSource)
	}
	if s.Summaries == nil {
		s.Summaries = make(map[string]model.RankingSummary)
	}
	return nil
}
