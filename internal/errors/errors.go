package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a msgkeep error code.
type ErrorCode string

const (
	ErrBranchUnresolvable ErrorCode = "BRANCH_UNRESOLVABLE" // identity cannot be derived
	ErrStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"   // store cannot be opened or written
	ErrRestoreIO          ErrorCode = "RESTORE_IO"          // commit message file cannot be read or rewritten
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"       // caller misuse (empty path, bad flag)
)

// KeepError represents a structured error with a code and an optional cause.
//
// Every code maps to a degrade policy at the call site: preservation
// failures are logged and skipped, never surfaced as a hook exit code.
type KeepError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *KeepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *KeepError) Unwrap() error {
	return e.Err
}

// NewBranchUnresolvable creates an error for identity derivation failures
// (detached HEAD, not a repository). cause may be nil when git ran fine
// but reported no branch.
func NewBranchUnresolvable(detail string, cause error) *KeepError {
	return &KeepError{
		Code:    ErrBranchUnresolvable,
		Message: detail,
		Err:     cause,
	}
}

// NewStoreUnavailable creates an error for store open/write failures.
func NewStoreUnavailable(cause error) *KeepError {
	return &KeepError{
		Code:    ErrStoreUnavailable,
		Message: "message store unavailable",
		Err:     cause,
	}
}

// NewRestoreIO creates an error for commit-message-file I/O failures
// during restore.
func NewRestoreIO(path string, cause error) *KeepError {
	return &KeepError{
		Code:    ErrRestoreIO,
		Message: fmt.Sprintf("cannot read or write %s", path),
		Err:     cause,
	}
}

// NewInvalidInput creates an error for invalid caller-supplied parameters.
func NewInvalidInput(msg string) *KeepError {
	return &KeepError{
		Code:    ErrInvalidInput,
		Message: msg,
	}
}

// Is checks if an error (or anything it wraps) is a KeepError with the
// given code.
func Is(err error, code ErrorCode) bool {
	var kErr *KeepError
	if errors.As(err, &kErr) {
		return kErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first KeepError in the chain, or ""
// for plain errors.
func CodeOf(err error) ErrorCode {
	var kErr *KeepError
	if errors.As(err, &kErr) {
		return kErr.Code
	}
	return ""
}
