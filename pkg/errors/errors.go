package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConsistency   ErrorType = "consistency"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeExternal      ErrorType = "external"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewConfigError creates a configuration error for a missing or invalid field
func NewConfigError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewNotFoundError creates a not-found error for an absent artifact or file
func NewNotFoundError(code, message string) *AppError {
	return NewAppError(ErrorTypeNotFound, code, message)
}

// NewConsistencyError creates a consistency error for a violated invariant
func NewConsistencyError(code, message string) *AppError {
	return NewAppError(ErrorTypeConsistency, code, message)
}

// NewIOError creates an I/O error for a read/write/parse failure
func NewIOError(code, message string) *AppError {
	return NewAppError(ErrorTypeIO, code, message)
}

// NewExternalError creates an error for an external service failure
func NewExternalError(code, message string) *AppError {
	return NewAppError(ErrorTypeExternal, code, message)
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Error codes for different error scenarios
const (
	// Configuration error codes
	CodeMissingConfig   = "MISSING_CONFIG"
	CodeMissingField    = "MISSING_FIELD"
	CodeInvalidField    = "INVALID_FIELD"
	CodeEmptySchema     = "EMPTY_SCHEMA"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"

	// Not-found error codes
	CodeDataFileNotFound = "DATA_FILE_NOT_FOUND"
	CodeArtifactNotFound = "ARTIFACT_NOT_FOUND"
	CodeRegistryNotFound = "REGISTRY_NOT_FOUND"
	CodeDatasetNotFound  = "DATASET_NOT_FOUND"

	// Consistency error codes
	CodeAmbiguousData    = "AMBIGUOUS_DATA_FILES"
	CodeAlreadyFinalized = "ALREADY_FINALIZED"
	CodeSchemaMismatch   = "SCHEMA_MISMATCH"
	CodeTypeMismatch     = "TYPE_MISMATCH"
	CodeNullViolation    = "NULL_VIOLATION"
	CodeRangeViolation   = "RANGE_VIOLATION"
	CodeSnapshotMismatch = "SNAPSHOT_MISMATCH"
	CodeDuplicateVersion = "DUPLICATE_VERSION"
	CodeNotFinalized     = "NOT_FINALIZED"

	// I/O error codes
	CodeReadFailed  = "READ_FAILED"
	CodeWriteFailed = "WRITE_FAILED"
	CodeParseFailed = "PARSE_FAILED"

	// External service error codes
	CodeUploadFailed = "UPLOAD_FAILED"
	CodeAuthFailed   = "AUTH_FAILED"
)
