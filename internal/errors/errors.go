package errors

import (
	stderrors "errors"
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

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// IsCode reports whether any AppError in the chain carries code.
func IsCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid         = "CONFIG_INVALID"
	CodeNotFound              = "NOT_FOUND"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeExternalService       = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeInvalidIndex          = "INVALID_INDEX"
	CodeInvalidConfiguration  = "INVALID_CONFIGURATION"
	CodeMalformedUpstreamData = "MALFORMED_UPSTREAM_DATA"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InvalidIndex reports a class index outside [0, order).
func InvalidIndex(index, order int) *AppError {
	return New(CodeInvalidIndex, fmt.Sprintf("invalid index %d for matrix of order %d", index, order))
}

// InvalidConfiguration reports a render mode or renderer kind the builder cannot handle.
// It always indicates a caller bug.
func InvalidConfiguration(message string) *AppError {
	return New(CodeInvalidConfiguration, message)
}

// MalformedUpstreamData reports a record from a data provider that could not be parsed.
func MalformedUpstreamData(message string) *AppError {
	return New(CodeMalformedUpstreamData, message)
}
