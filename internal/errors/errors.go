// Package errors defines the error taxonomy shared by every dumbinstall
// component. Errors carry a stable ErrorCode so callers (and tests) can branch
// on the category without matching message text.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

const (
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrConfiguration is a missing or malformed build descriptor or settings
	// file. It is raised before any filesystem mutation.
	ErrConfiguration ErrorCode = "CONFIGURATION"

	// ErrNotFound covers a missing install target, provenance file or source
	// path. Batch operations report it and continue.
	ErrNotFound ErrorCode = "NOT_FOUND"

	// ErrRemoteTool is a classified failure of the version control tool.
	ErrRemoteTool ErrorCode = "REMOTE_TOOL"

	// ErrFilesystem wraps permission, space and I/O failures.
	ErrFilesystem ErrorCode = "FILESYSTEM"

	// ErrAlreadyUpToDate is informational: nothing needed to change.
	ErrAlreadyUpToDate ErrorCode = "ALREADY_UP_TO_DATE"

	ErrLocked          ErrorCode = "LOCKED"
	ErrMetadataInvalid ErrorCode = "METADATA_INVALID"
)

// InstallError represents a structured error with code and details
type InstallError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *InstallError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

// Unwrap implements the errors.Unwrap interface
func (e *InstallError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *InstallError with the same code.
func (e *InstallError) Is(target error) bool {
	var targetErr *InstallError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new InstallError with the given code and message
func New(code ErrorCode, message string) *InstallError {
	return &InstallError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new InstallError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *InstallError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an InstallError. It returns nil for a nil
// error so it can be used directly on return paths.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &InstallError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *InstallError) WithDetail(key string, value interface{}) *InstallError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if the
// error is not an InstallError
func GetErrorCode(err error) ErrorCode {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var installErr *InstallError
	if errors.As(err, &installErr) {
		return installErr.Details
	}
	return nil
}
