// Package errors provides centralized error definitions and error handling utilities
// for askuser. It defines the session error kinds, typed errors carrying session
// and storage context, and classification helpers used by the UI layer.
//
// # Error Kinds
//
// Every failure surfaced by the session engine wraps one of the sentinel kinds:
//   - ErrNotFound: unknown session id
//   - ErrExpired: session past its interactive timeout
//   - ErrSessionClosed: mutation attempted on an expired or completed session
//   - ErrInvalidAnswer: answer shape does not match the question
//   - ErrIncompleteAnswers: completion attempted with required questions unanswered
//   - ErrConflict: concurrent persistence race detected by the store
//   - ErrStorageFailure: I/O failure reading or writing a session record
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewSessionError("commit rejected", errors.ErrSessionClosed).WithSessionID(id)
//	err := errors.NewStorageError("write", path, ioErr)
//	err := errors.NewValidationError("option not offered").WithField("selectedOption").WithCause(errors.ErrInvalidAnswer)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrExpired) { ... }
//	if errors.IsRetryable(err) { ... }
//	msg := errors.UserMessage(err)
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

// Session error kinds
var (
	// ErrNotFound indicates that no session exists for the given id.
	ErrNotFound = New("session not found")
	// ErrExpired indicates that the session passed its interactive timeout.
	ErrExpired = New("session expired")
	// ErrSessionClosed indicates a mutation on an expired or completed session.
	ErrSessionClosed = New("session closed")
	// ErrInvalidAnswer indicates an answer that does not fit its question.
	ErrInvalidAnswer = New("invalid answer")
	// ErrIncompleteAnswers indicates required questions without an answer.
	ErrIncompleteAnswers = New("incomplete answers")
	// ErrConflict indicates the stored record changed underneath an update.
	ErrConflict = New("session update conflict")
	// ErrStorageFailure indicates an I/O failure on the session record.
	ErrStorageFailure = New("session storage failure")
)

// General sentinel errors
var (
	// ErrAlreadyExists indicates that a record with the same id already exists.
	ErrAlreadyExists = New("already exists")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrCorrupted indicates a record that cannot be decoded.
	ErrCorrupted = New("session data corrupted")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// AskError is the base interface for all askuser errors.
type AskError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
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

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsRetryable() bool {
	return e.retryable
}

func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// SessionError
// -----------------------------------------------------------------------------

// SessionError represents errors raised by the session manager.
//
// Example:
//
//	err := errors.NewSessionError("commit rejected", errors.ErrSessionClosed)
//	err = err.WithSessionID("abc123")
//	fmt.Println(err) // "session error [session=abc123]: commit rejected: session closed"
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a new SessionError. Conflicts are marked retryable.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  errors.Is(cause, ErrConflict),
			userFacing: true,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// WithSeverity sets the error severity.
func (e *SessionError) WithSeverity(s Severity) *SessionError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *SessionError) WithRetryable(r bool) *SessionError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	prefix := "session error"
	if e.SessionID != "" {
		prefix = fmt.Sprintf("session error [session=%s]", e.SessionID)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// StorageError
// -----------------------------------------------------------------------------

// StorageError represents an I/O failure on a session record. It always
// matches ErrStorageFailure.
type StorageError struct {
	baseError
	Op   string
	Path string
}

// NewStorageError creates a new StorageError for the given operation and path.
func NewStorageError(op, path string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: false,
		},
		Op:   op,
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	prefix := "storage error"
	if e.Path != "" {
		prefix = fmt.Sprintf("storage error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Op, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Op)
}

// Is checks if this error matches the target.
func (e *StorageError) Is(target error) bool {
	if _, ok := target.(*StorageError); ok {
		return true
	}
	if target == ErrStorageFailure {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// ValidationError
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("option not offered by question")
//	err = err.WithField("selectedOption").WithValue("Z").WithCause(errors.ErrInvalidAnswer)
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

// Message returns the bare validation message without field context.
func (e *ValidationError) Message() string {
	return e.message
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
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry: an AskError flagged retryable, or anything
// wrapping ErrConflict.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var askErr AskError
	if As(err, &askErr) && askErr.IsRetryable() {
		return true
	}

	return Is(err, ErrConflict)
}

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var askErr AskError
	if As(err, &askErr) {
		return askErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement AskError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var askErr AskError
	if As(err, &askErr) {
		return askErr.Severity()
	}
	return SeverityError
}

// UserMessage maps an error to the short message shown in the terminal UI.
// The UI never attempts silent recovery; it shows this and lets the user decide.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrNotFound):
		return "session not found, please restart"
	case Is(err, ErrExpired):
		return "session expired, please restart"
	case Is(err, ErrSessionClosed):
		return "session is closed and can no longer be changed"
	case Is(err, ErrIncompleteAnswers):
		return "some required questions are still unanswered"
	case Is(err, ErrStorageFailure), Is(err, ErrConflict):
		return "could not save the session, try again"
	}

	var validation *ValidationError
	if As(err, &validation) {
		return validation.Message()
	}
	if IsUserFacing(err) {
		return err.Error()
	}
	return "an internal error occurred"
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
