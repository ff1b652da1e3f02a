// Package errors provides structured error types for the Gridiron system.
// All errors include a category, code, message, and recoverable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryConfig    ErrorCategory = "CONFIG"
	ErrCategoryIngest    ErrorCategory = "INGEST"
	ErrCategoryPartition ErrorCategory = "PARTITION"
	ErrCategoryStorage   ErrorCategory = "STORAGE"
	ErrCategoryCatalog   ErrorCategory = "CATALOG"
	ErrCategoryPool      ErrorCategory = "POOL"
	ErrCategoryQuery     ErrorCategory = "QUERY"
	ErrCategoryInternal  ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Config codes (fatal: the run cannot proceed without a valid schema)
	CodeInvalidSchema  = "INVALID_SCHEMA"
	CodeAliasCollision = "ALIAS_COLLISION"
	CodeInvalidConfig  = "INVALID_CONFIG"

	// Ingest codes (recoverable per file or per cell)
	CodeMissingRequiredColumn = "MISSING_REQUIRED_COLUMN"
	CodeCastFailure           = "CAST_FAILURE"
	CodeEmptyFile             = "EMPTY_FILE"
	CodeNoInputFiles          = "NO_INPUT_FILES"
	CodeUnreadableFile        = "UNREADABLE_FILE"

	// Partition codes (reported per partition, run continues)
	CodePartitionWriteFailed = "PARTITION_WRITE_FAILED"
	CodeNullPartitionKey     = "NULL_PARTITION_KEY"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Catalog codes
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"

	// Pool / query codes
	CodePoolNotFound      = "POOL_NOT_FOUND"
	CodePartitionCorrupt  = "PARTITION_CORRUPT"
	CodeInsufficientPlays = "INSUFFICIENT_PLAYS"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// GridironError is the structured error type used throughout the system.
type GridironError struct {
	Category    ErrorCategory
	Code        string
	Message     string
	Details     map[string]interface{}
	Cause       error
	Recoverable bool
}

// Error returns a formatted error string.
func (e *GridironError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *GridironError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *GridironError) Is(target error) bool {
	var t *GridironError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new GridironError.
func New(category ErrorCategory, code, message string) *GridironError {
	return &GridironError{
		Category:    category,
		Code:        code,
		Message:     message,
		Recoverable: isRecoverable(category, code),
	}
}

// Wrap creates a new GridironError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *GridironError {
	return &GridironError{
		Category:    category,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: isRecoverable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *GridironError) WithDetails(details map[string]interface{}) *GridironError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRecoverable checks whether an error (or its chain) is recoverable at
// the batch level, i.e. the run should continue with the next file or
// partition instead of aborting.
func IsRecoverable(err error) bool {
	var ge *GridironError
	if errors.As(err, &ge) {
		return ge.Recoverable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a GridironError.
func GetCategory(err error) ErrorCategory {
	var ge *GridironError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a GridironError.
func GetCode(err error) string {
	var ge *GridironError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// isRecoverable encodes the propagation policy: config and pool-session
// errors abort, file-level and partition-level conditions do not.
func isRecoverable(category ErrorCategory, code string) bool {
	switch category {
	case ErrCategoryConfig:
		return false
	case ErrCategoryIngest, ErrCategoryPartition, ErrCategoryStorage, ErrCategoryCatalog:
		return true
	case ErrCategoryPool:
		return code == CodeInsufficientPlays || code == CodePartitionCorrupt
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewConfigError(code, message string) *GridironError {
	return New(ErrCategoryConfig, code, message)
}

func NewIngestError(code, message string, cause error) *GridironError {
	return Wrap(ErrCategoryIngest, code, message, cause)
}

func NewPartitionError(code, message string, cause error) *GridironError {
	return Wrap(ErrCategoryPartition, code, message, cause)
}

func NewStorageError(code, message string, cause error) *GridironError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewPoolError(code, message string, cause error) *GridironError {
	return Wrap(ErrCategoryPool, code, message, cause)
}

func NewInternalError(message string, cause error) *GridironError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
