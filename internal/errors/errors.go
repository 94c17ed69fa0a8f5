// Package errors provides centralized error definitions and error handling utilities
// for camlock. It defines the sentinel errors of the locking subsystem, a
// domain error type carrying device and lock path context, and classification
// helpers used by the CLI to decide how to report a failure.
//
// # Error Types
//
// Domain-specific errors:
//   - LockError: a failure of the device locking subsystem
//
// Semantic errors:
//   - ValidationError: invalid input or configuration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewLockError("write", errors.ErrLockWriteExhausted).
//	    WithDevice("USB Camera").
//	    WithPath("/tmp/.webcam-lock-1234")
//
// Checking errors:
//
//	// Every LockError matches the broad locking failure
//	if errors.Is(err, errors.ErrLockingFailed) { ... }
//
//	// Finer-grained causes are still reachable
//	if errors.Is(err, errors.ErrAlreadyLocked) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Lock-related sentinel errors
var (
	// ErrLockingFailed is the broad failure every LockError matches. Callers
	// treat it as "this device cannot currently be reserved".
	ErrLockingFailed = New("locking subsystem failure")
	// ErrLockWriteExhausted indicates that every fallback copy attempt failed.
	ErrLockWriteExhausted = New("not able to write lock file")
	// ErrLockIO indicates an unclassified filesystem failure on the lock record.
	ErrLockIO = New("error handling lock file")
	// ErrAlreadyLocked indicates that a live holder already owns the device.
	ErrAlreadyLocked = New("device has already been locked")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CamlockError is the base interface for all camlock errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type CamlockError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// LockError represents a failure of the device locking subsystem. Op names
// the lock operation that failed ("lock", "write", "read", ...).
//
// Example:
//
//	err := errors.NewLockError("write", errors.ErrLockWriteExhausted).WithDevice("cam0")
//	fmt.Println(err) // "lock error [device=cam0]: write: not able to write lock file"
type LockError struct {
	baseError
	Device string
	Path   string
}

// NewLockError creates a new LockError for the given operation.
func NewLockError(op string, cause error) *LockError {
	return &LockError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithDevice adds the device identity to the error context.
func (e *LockError) WithDevice(name string) *LockError {
	e.Device = name
	return e
}

// WithPath adds the lock path to the error context.
func (e *LockError) WithPath(path string) *LockError {
	e.Path = path
	return e
}

// WithSeverity sets the error severity.
func (e *LockError) WithSeverity(s Severity) *LockError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *LockError) WithRetryable(r bool) *LockError {
	e.retryable = r
	return e
}

// Op returns the lock operation that failed.
func (e *LockError) Op() string {
	return e.message
}

// Error returns the formatted error message.
func (e *LockError) Error() string {
	var parts []string
	if e.Device != "" {
		parts = append(parts, fmt.Sprintf("device=%s", e.Device))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	prefix := "lock error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("lock error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *LockError) Is(target error) bool {
	if _, ok := target.(*LockError); ok {
		return true
	}
	if target == ErrLockingFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("device name cannot be empty")
//	err = err.WithField("device").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    time.Sleep(backoff)
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var camErr CamlockError
	if As(err, &camErr) {
		return camErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var camErr CamlockError
	if As(err, &camErr) {
		return camErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CamlockError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    logger.Error("device lock unusable", "error", err)
//	case errors.SeverityWarning:
//	    logger.Warn("device busy", "error", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var camErr CamlockError
	if As(err, &camErr) {
		return camErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike building a new error, this preserves the CamlockError interface.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to acquire camera")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to lock %s", device)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
