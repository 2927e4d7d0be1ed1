// Package errors provides standardized error envelopes for the HTTP edge.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation  ErrorCode = "VALIDATION_ERROR"
	ErrCodeQueryBuild  ErrorCode = "QUERY_BUILD_ERROR"
	ErrCodeInvalidField ErrorCode = "INVALID_FIELD"

	ErrCodeRecordStore           ErrorCode = "RECORD_STORE_ERROR"
	ErrCodeStoreConnectionFailed ErrorCode = "STORE_CONNECTION_FAILED"
	ErrCodeQueryTimeout          ErrorCode = "QUERY_TIMEOUT"

	ErrCodeRegistryLoadFailed ErrorCode = "REGISTRY_LOAD_FAILED"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable request validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryBuildError creates a non-retryable query construction error.
func NewQueryBuildError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryBuild,
		Message:   "Query construction failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFieldError creates a non-retryable allowlist rejection error.
func NewInvalidFieldError(entity, field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidField,
		Message:   "Identifier not in the entity registry",
		Details:   fmt.Sprintf("entity: %s, field: %s", entity, field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordStoreError creates a non-retryable record store rejection error.
// The store executed the query and refused it; retrying the same query
// changes nothing.
func NewRecordStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordStore,
		Message:   "Record store rejected the query",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreConnectionFailedError creates a retryable store connection error.
func NewStoreConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreConnectionFailed,
		Message:   "Record store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(entity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Record store query timeout",
		Details:   fmt.Sprintf("entity: %s", entity),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryLoadFailedError creates a non-retryable registry load error.
func NewRegistryLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryLoadFailed,
		Message:   "Entity registry failed to load",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError creates a retryable catch-all error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Edge Mapping
// ==========================

// HTTPStatusMapping maps internal error codes to HTTP status codes.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeValidation:            http.StatusBadRequest,
	ErrCodeQueryBuild:            http.StatusBadRequest,
	ErrCodeInvalidField:          http.StatusBadRequest,
	ErrCodeRecordStore:           http.StatusBadGateway,
	ErrCodeStoreConnectionFailed: http.StatusBadGateway,
	ErrCodeQueryTimeout:          http.StatusGatewayTimeout,
	ErrCodeRegistryLoadFailed:    http.StatusInternalServerError,
	ErrCodeCacheUnavailable:      http.StatusInternalServerError,
	ErrCodeInternal:              http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status for an error code, 500 when unmapped.
func HTTPStatus(code ErrorCode) int {
	if status, exists := HTTPStatusMapping[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "BUILD"):
		return "VALIDATION"
	case strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "STORE"):
		return "STORE"
	case strings.Contains(codeStr, "REGISTRY"):
		return "REGISTRY"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
