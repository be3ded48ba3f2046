package errors

import (
	"errors"
	"strconv"
	"testing"
)

func TestLineError(t *testing.T) {
	cause := &strconv.NumError{Func: "ParseFloat", Num: "abc", Err: strconv.ErrSyntax}
	err := NewLineError(7, "B\tabc", cause)

	expectedMsg := `line 7: strconv.ParseFloat: parsing "abc": invalid syntax: "B\tabc"`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrMalformedLine) {
		t.Error("Expected error to match ErrMalformedLine sentinel")
	}

	if !errors.Is(err, strconv.ErrSyntax) {
		t.Error("Expected error to unwrap to the parse cause")
	}
}

func TestSizeMismatchError(t *testing.T) {
	err := NewSizeMismatchError("gold", 4, "system", 3)

	expectedMsg := "length is not the same: gold(4), system(3)"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrSizeMismatch) {
		t.Error("Expected error to match ErrSizeMismatch sentinel")
	}

	if errors.Is(err, ErrCutoffTooLarge) {
		t.Error("Error should not match ErrCutoffTooLarge")
	}
}

func TestCutoffError(t *testing.T) {
	err := NewCutoffError(10, 4)

	expectedMsg := "gold list is not long enough to use k=10 (has 4 items)"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrCutoffTooLarge) {
		t.Error("Expected error to match ErrCutoffTooLarge sentinel")
	}
}

func TestNotFoundErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{"ranking", NewRankingNotFoundError("gold"), ErrRankingNotFound, "ranking named 'gold' not found"},
		{"report", NewReportNotFoundError("r-1"), ErrReportNotFound, "report with ID 'r-1' not found"},
		{"job", NewJobNotFoundError("j-1"), ErrJobNotFound, "job with ID 'j-1' not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.message {
				t.Errorf("Expected error message '%s', got '%s'", tt.message, tt.err.Error())
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("Expected error to match %v", tt.sentinel)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := NewValidationError("cutoffs", "must be positive")
		expectedMsg := "validation error for field 'cutoffs': must be positive"
		if err.Error() != expectedMsg {
			t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Error("Expected error to match ErrInvalidInput sentinel")
		}
	})

	t.Run("without field", func(t *testing.T) {
		err := NewValidationError("", "general validation failure")
		expectedMsg := "validation error: general validation failure"
		if err.Error() != expectedMsg {
			t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
		}
	})
}

func TestErrorWrapping(t *testing.T) {
	base := NewDuplicateItemError("A")
	wrapped := errors.Join(errors.New("loading gold"), base)

	if !errors.Is(wrapped, ErrDuplicateItem) {
		t.Error("Expected wrapped error to match ErrDuplicateItem sentinel")
	}

	var dup *DuplicateItemError
	if !errors.As(wrapped, &dup) {
		t.Fatal("Expected errors.As to find DuplicateItemError")
	}
	if dup.Item != "A" {
		t.Errorf("Expected item 'A', got '%s'", dup.Item)
	}
}
