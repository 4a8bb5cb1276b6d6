package errors

import (
	stderrors "errors"
	"fmt"

	"roidecode/domain/core"
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

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of an
// AppError cause and classifying domain sentinels otherwise
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
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

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, or the
// code implied by a domain sentinel error, or CodeInternalError
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case core.IsConfigurationError(err):
		return CodeConfigInvalid
	case core.IsInsufficientDataError(err):
		return CodeInsufficientData
	case core.IsDataError(err):
		return CodeInvalidInput
	case core.IsNotFoundError(err):
		return CodeNotFound
	}
	return CodeInternalError
}

// ExitCode maps an error to a process exit status for the CLI
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case CodeConfigInvalid:
		return 2
	case CodeInsufficientData:
		return 3
	case CodeInvalidInput, CodeNotFound:
		return 4
	}
	return 1
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeIOError          = "IO_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func IOError(path string, cause error) *AppError {
	return &AppError{Code: CodeIOError, Message: fmt.Sprintf("i/o failure on %s", path), Cause: cause}
}
