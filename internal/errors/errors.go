package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrMalformedLine is returned when a ranking line cannot be parsed
	ErrMalformedLine = errors.New("malformed ranking line")

	// ErrDuplicateItem is returned when an item identifier appears twice in one ranking
	ErrDuplicateItem = errors.New("duplicate item in ranking")

	// ErrEmptyRanking is returned when a ranking has no elements
	ErrEmptyRanking = errors.New("ranking is empty")

	// ErrSizeMismatch is returned when two rankings that must be aligned differ in size
	ErrSizeMismatch = errors.New("rankings differ in size")

	// ErrItemMismatch is returned when an item of one ranking is missing from the other
	ErrItemMismatch = errors.New("rankings differ in items")

	// ErrDegenerateRanking is returned when a ranking is too small for a correlation
	ErrDegenerateRanking = errors.New("ranking too small for correlation")

	// ErrCutoffTooLarge is returned when the gold ranking is shorter than a cutoff
	ErrCutoffTooLarge = errors.New("cutoff exceeds gold ranking size")

	// ErrNoRelevantRetrieved is returned when MAP finds no relevant item
	ErrNoRelevantRetrieved = errors.New("no relevant item retrieved")

	// ErrNoCommonItems is returned when two rankings share no item
	ErrNoCommonItems = errors.New("no common items")

	// ErrRankingNotFound is returned when a named ranking is not stored
	ErrRankingNotFound = errors.New("ranking not found")

	// ErrReportNotFound is returned when a comparison report is not stored
	ErrReportNotFound = errors.New("report not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// LineError describes a ranking line that was skipped while reading
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Is(target error) bool {
	return target == ErrMalformedLine
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// NewLineError creates a new LineError
func NewLineError(line int, text string, err error) *LineError {
	return &LineError{Line: line, Text: text, Err: err}
}

// DuplicateItemError names the repeated item
type DuplicateItemError struct {
	Item string
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("item '%s' occurs more than once", e.Item)
}

func (e *DuplicateItemError) Is(target error) bool {
	return target == ErrDuplicateItem
}

// NewDuplicateItemError creates a new DuplicateItemError
func NewDuplicateItemError(item string) *DuplicateItemError {
	return &DuplicateItemError{Item: item}
}

// SizeMismatchError represents a size mismatch between two rankings
type SizeMismatchError struct {
	GoldName   string
	GoldSize   int
	SystemName string
	SystemSize int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("length is not the same: %s(%d), %s(%d)", e.GoldName, e.GoldSize, e.SystemName, e.SystemSize)
}

func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// NewSizeMismatchError creates a new SizeMismatchError
func NewSizeMismatchError(goldName string, goldSize int, systemName string, systemSize int) *SizeMismatchError {
	return &SizeMismatchError{GoldName: goldName, GoldSize: goldSize, SystemName: systemName, SystemSize: systemSize}
}

// ItemMismatchError names an item that is present in gold but not in the system ranking
type ItemMismatchError struct {
	Item       string
	SystemName string
}

func (e *ItemMismatchError) Error() string {
	return fmt.Sprintf("item '%s' not found in ranking '%s'", e.Item, e.SystemName)
}

func (e *ItemMismatchError) Is(target error) bool {
	return target == ErrItemMismatch
}

// NewItemMismatchError creates a new ItemMismatchError
func NewItemMismatchError(item, systemName string) *ItemMismatchError {
	return &ItemMismatchError{Item: item, SystemName: systemName}
}

// CutoffError represents a cutoff that the gold ranking cannot satisfy
type CutoffError struct {
	K        int
	GoldSize int
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("gold list is not long enough to use k=%d (has %d items)", e.K, e.GoldSize)
}

func (e *CutoffError) Is(target error) bool {
	return target == ErrCutoffTooLarge
}

// NewCutoffError creates a new CutoffError
func NewCutoffError(k, goldSize int) *CutoffError {
	return &CutoffError{K: k, GoldSize: goldSize}
}

// RankingNotFoundError represents a ranking not found error with context
type RankingNotFoundError struct {
	Name string
}

func (e *RankingNotFoundError) Error() string {
	return fmt.Sprintf("ranking named '%s' not found", e.Name)
}

func (e *RankingNotFoundError) Is(target error) bool {
	return target == ErrRankingNotFound
}

// NewRankingNotFoundError creates a new RankingNotFoundError
func NewRankingNotFoundError(name string) *RankingNotFoundError {
	return &RankingNotFoundError{Name: name}
}

// ReportNotFoundError represents a report not found error with context
type ReportNotFoundError struct {
	ReportID string
}

func (e *ReportNotFoundError) Error() string {
	return fmt.Sprintf("report with ID '%s' not found", e.ReportID)
}

func (e *ReportNotFoundError) Is(target error) bool {
	return target == ErrReportNotFound
}

// NewReportNotFoundError creates a new ReportNotFoundError
func NewReportNotFoundError(reportID string) *ReportNotFoundError {
	return &ReportNotFoundError{ReportID: reportID}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
