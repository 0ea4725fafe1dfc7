package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSpeciesNotFound is returned by a ReferenceSource that holds no table
	// for the requested species.
	ErrSpeciesNotFound = errors.New("species not found")

	// ErrReferenceUnavailable means not even the default species table could be
	// loaded. It is a configuration error, never caused by caller input.
	ErrReferenceUnavailable = errors.New("reference ranges unavailable")

	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("no hemogram data could be extracted")
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeExtraction        = "EXTRACTION_ERROR"
	ErrCodeUnknownSpecies    = "UNKNOWN_SPECIES"
	ErrCodeReference         = "REFERENCE_UNAVAILABLE"
	ErrCodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
