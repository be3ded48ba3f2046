package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gcbaptista/go-rank-compare/internal/errors"
	"github.com/gcbaptista/go-rank-compare/internal/logging"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrorCodeRankingNotFound   ErrorCode = "RANKING_NOT_FOUND"
	ErrorCodeReportNotFound    ErrorCode = "REPORT_NOT_FOUND"
	ErrorCodeJobNotFound       ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeJobNotCancellable ErrorCode = "JOB_NOT_CANCELLABLE"
	ErrorCodeInvalidRanking    ErrorCode = "INVALID_RANKING"
	ErrorCodeInvalidJSON       ErrorCode = "INVALID_JSON"
	ErrorCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorCodeBodyTooLarge      ErrorCode = "BODY_TOO_LARGE"

	// Server Error Codes (5xx)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)
	errorResponse.RequestID = logging.RequestIDFromContext(c.Request.Context())
	c.AbortWithStatusJSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with one detail per failed check
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendServiceError maps an error returned by the service layer to a response.
func SendServiceError(c *gin.Context, operation string, err error) {
	var validationErr *apperrors.ValidationError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, apperrors.ErrRankingNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeRankingNotFound, err.Error())
	case errors.Is(err, apperrors.ErrReportNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeReportNotFound, err.Error())
	case errors.Is(err, apperrors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: validationErr.Field, Message: validationErr.Message, Code: "VALIDATION_ERROR"})
	case errors.Is(err, apperrors.ErrEmptyRanking),
		errors.Is(err, apperrors.ErrDuplicateItem),
		errors.Is(err, apperrors.ErrMalformedLine):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRanking, err.Error())
	case errors.Is(err, apperrors.ErrInvalidInput):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	case errors.As(err, &maxBytesErr):
		SendError(c, http.StatusRequestEntityTooLarge, ErrorCodeBodyTooLarge, err.Error())
	default:
		SendInternalError(c, operation, err)
	}
}
