package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeMissingInput marks an absent source file or column. Always fatal.
	ErrTypeMissingInput ErrorType = "MISSING_INPUT"
	// ErrTypeUndefinedValue marks a division by zero or NaN in a raw index.
	// Recovered by the calculator with the sentinel value.
	ErrTypeUndefinedValue ErrorType = "UNDEFINED_VALUE"
	// ErrTypeDegenerateRange marks a zero-variance column in min-max scaling.
	// Recovered by the normalizer with the range midpoint.
	ErrTypeDegenerateRange ErrorType = "DEGENERATE_RANGE"
	// ErrTypeMergeKey marks team ids present on one side of a merge only.
	ErrTypeMergeKey ErrorType = "MERGE_KEY"

	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMissingFileError reports a required input file that does not exist or cannot be opened.
func NewMissingFileError(path string, cause error) *AppError {
	return NewAppError(ErrTypeMissingInput, fmt.Sprintf("required input file %q is not available", path), cause).
		WithContext("file", path)
}

// NewMissingColumnsError reports every required column absent from a table in one error.
func NewMissingColumnsError(table string, columns []string) *AppError {
	return NewAppError(ErrTypeMissingInput,
		fmt.Sprintf("%s is missing required columns: %s", table, strings.Join(columns, ", ")), nil).
		WithContext("table", table).
		WithContext("columns", columns)
}

// NewUndefinedValueError describes raw values of an index that could not be computed
// and were replaced by the sentinel.
func NewUndefinedValueError(column string, rows int) *AppError {
	return NewAppError(ErrTypeUndefinedValue,
		fmt.Sprintf("%s is undefined in %d rows, replaced by the sentinel", column, rows), nil).
		WithContext("column", column).
		WithContext("rows", rows)
}

// NewDegenerateRangeError describes a column with zero variance, scaled to the range midpoint.
func NewDegenerateRangeError(column string) *AppError {
	return NewAppError(ErrTypeDegenerateRange,
		fmt.Sprintf("%s has no range, scaled to the midpoint", column), nil).
		WithContext("column", column)
}

// NewMergeKeyError describes team ids without a counterpart in a team-id merge.
func NewMergeKeyError(merge string, unmatched []string) *AppError {
	return NewAppError(ErrTypeMergeKey,
		fmt.Sprintf("%s: no match for teams %s", merge, strings.Join(unmatched, ", ")), nil).
		WithContext("merge", merge).
		WithContext("unmatched", unmatched)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// TypeOf returns the type of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
