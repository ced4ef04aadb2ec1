package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so the Err* sentinels
// below work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid           = "CONFIG_INVALID"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeInvalidParameter        = "INVALID_PARAMETER"
	CodeInvariantViolation      = "INVARIANT_VIOLATION"
	CodeMissingCollaboratorData = "MISSING_COLLABORATOR_DATA"
	CodeSchemaMismatch          = "SCHEMA_MISMATCH"
	CodeInsufficientData        = "INSUFFICIENT_DATA"
	CodeStorageError            = "STORAGE_ERROR"
)

// Sentinels for errors.Is; only the code is compared.
var (
	ErrConfigInvalid           = New(CodeConfigInvalid, "configuration invalid")
	ErrInvalidParameter        = New(CodeInvalidParameter, "invalid parameter")
	ErrInvariantViolation      = New(CodeInvariantViolation, "invariant violation")
	ErrMissingCollaboratorData = New(CodeMissingCollaboratorData, "missing collaborator data")
	ErrSchemaMismatch          = New(CodeSchemaMismatch, "schema mismatch")
	ErrInsufficientData        = New(CodeInsufficientData, "insufficient data")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidParameter(message string) *AppError {
	return New(CodeInvalidParameter, message)
}

// InvariantViolation reports a broken data-integrity guard such as a
// row-count mismatch after a concat.
func InvariantViolation(message string) *AppError {
	return New(CodeInvariantViolation, message)
}

// MissingCollaboratorData is non-fatal: callers log it and continue.
func MissingCollaboratorData(message string) *AppError {
	return New(CodeMissingCollaboratorData, message)
}

func SchemaMismatch(message string) *AppError {
	return New(CodeSchemaMismatch, message)
}

func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

func StorageError(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorageError,
		Message: message,
		Cause:   cause,
	}
}

// IsFatal reports whether err should abort a pipeline run.
func IsFatal(err error) bool {
	return err != nil && GetCode(err) != CodeMissingCollaboratorData
}
