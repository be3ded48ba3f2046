package api

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/go-rank-compare/internal/report"
	"github.com/gcbaptista/go-rank-compare/model"
	"github.com/gcbaptista/go-rank-compare/ranking"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateRankingName validates a ranking name path parameter
func ValidateRankingName(name string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if name == "" {
		result.AddError("name", "Ranking name is required")
		return result
	}

	if strings.TrimSpace(name) != name {
		result.AddError("name", "Ranking name cannot have leading or trailing whitespace")
	}

	return result
}

// ValidateEntries validates ranking entries sent as JSON
func ValidateEntries(entries []ranking.Entry) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(entries) == 0 {
		result.AddError("entries", "No entries provided")
		return result
	}

	seen := make(map[string]int, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("entries[%d].id", i)
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			result.AddError(field, "Entry ID cannot be empty or whitespace-only")
			continue
		}
		// IDs are stored trimmed, so " a" repeats "a".
		if first, dup := seen[id]; dup {
			result.AddError(field, fmt.Sprintf("Entry ID '%s' repeats entries[%d]", id, first))
			continue
		}
		seen[id] = i
	}

	return result
}

// ValidateFormat parses the report format query parameter
func ValidateFormat(raw string) (report.Format, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	format, err := report.ParseFormat(raw)
	if err != nil {
		result.AddError("format", fmt.Sprintf("Unknown format '%s', expected one of latex, text, json", raw))
	}
	return format, result
}

// ValidateJobStatus parses the job status query parameter. An empty value
// means no filter.
func ValidateJobStatus(raw string) (*model.JobStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if raw == "" {
		return nil, result
	}

	status := model.JobStatus(raw)
	if !status.Valid() {
		result.AddError("status", fmt.Sprintf("Unknown job status '%s'", raw))
		return nil, result
	}
	return &status, result
}
