package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/model"
)

// DefaultMaxReports is the number of reports kept before the oldest is evicted.
const DefaultMaxReports = 100

// ReportStore holds comparison reports in insertion order, evicting the oldest
// once MaxReports is exceeded. Stored reports are never modified.
type ReportStore struct {
	Mu         sync.RWMutex
	Reports    map[string]*model.Report
	Order      []string // Report IDs, oldest first
	MaxReports int
}

type gobReportStoreData struct {
	Reports map[string]*model.Report
	Order   []string
}

// NewReportStore creates an empty store keeping at most maxReports reports.
// A non-positive maxReports uses DefaultMaxReports.
func NewReportStore(maxReports int) *ReportStore {
	if maxReports <= 0 {
		maxReports = DefaultMaxReports
	}
	return &ReportStore{
		Reports:    make(map[string]*model.Report),
		MaxReports: maxReports,
	}
}

// Put stores r and returns the IDs of evicted reports.
func (s *ReportStore) Put(r *model.Report) []string {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, exists := s.Reports[r.ID]; !exists {
		s.Order = append(s.Order, r.ID)
	}
	s.Reports[r.ID] = r

	var evicted []string
	for len(s.Order) > s.MaxReports {
		oldest := s.Order[0]
		s.Order = s.Order[1:]
		delete(s.Reports, oldest)
		evicted = append(evicted, oldest)
	}
	return evicted
}

// Get returns the report with the given ID.
func (s *ReportStore) Get(id string) (*model.Report, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	r, exists := s.Reports[id]
	if !exists {
		return nil, errors.NewReportNotFoundError(id)
	}
	return r, nil
}

// List returns the summaries of all reports, newest first.
func (s *ReportStore) List() []model.ReportSummary {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	summaries := make([]model.ReportSummary, 0, len(s.Order))
	for i := len(s.Order) - 1; i >= 0; i-- {
		summaries = append(summaries, s.Reports[s.Order[i]].Summary())
	}
	return summaries
}

// Delete removes the report with the given ID.
func (s *ReportStore) Delete(id string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, exists := s.Reports[id]; !exists {
		return errors.NewReportNotFoundError(id)
	}
	delete(s.Reports, id)
	for i, existing := range s.Order {
		if existing == id {
			s.Order = append(s.Order[:i], s.Order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return len(s.Order)
}

// GobEncode implements the gob.GobEncoder interface for ReportStore.
func (s *ReportStore) GobEncode() ([]byte, error) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobReportStoreData{
		Reports: s.Reports,
		Order:   s.Order,
	}); err != nil {
		return nil, fmt.Errorf("failed to gob encode report store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for ReportStore. Order
// entries without a report are dropped. MaxReports is kept.
func (s *ReportStore) GobDecode(data []byte) error {
	decoded := gobReportStoreData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to gob decode report store data: %w", err)
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	s.Reports = decoded.Reports
	if s.Reports == nil {
		s.Reports = make(map[string]*model.Report)
	}
	s.Order = s.Order[:0]
	for _, id := range decoded.Order {
		if _, ok := s.Reports[id]; ok {
			s.Order = append(s.Order, id)
		}
	}
	if s.MaxReports <= 0 {
		s.MaxReports = DefaultMaxReports
	}
	return nil
}
