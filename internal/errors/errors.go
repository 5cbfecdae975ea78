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

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
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
	CodeConfigInvalid        = "CONFIG_INVALID"
	CodeInvalidOrder         = "INVALID_ORDER"
	CodeDegenerateCluster    = "DEGENERATE_CLUSTER"
	CodeNumericalInstability = "NUMERICAL_INSTABILITY"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeDatabaseError        = "DATABASE_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeInternalError        = "INTERNAL_ERROR"
)

// Common error constructors

// ConfigInvalid marks a fatal configuration precondition violation. The run
// must abort before any partial trace is written.
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

// InvalidOrder marks an order that is not a bijection over all biomarkers.
// Fatal: downstream density lookups would silently use wrong parameters.
func InvalidOrder(message string) *AppError {
	return New(CodeInvalidOrder, message)
}

// DegenerateCluster marks a biomarker partition with too few measurements to
// fit a distribution. Recovered locally by falling back to the previous
// accepted parameters for that biomarker; never surfaced to callers.
func DegenerateCluster(message string) *AppError {
	return New(CodeDegenerateCluster, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
