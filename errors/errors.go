// Package errors provides error handling for clangcomplete.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
//
// Usage:
//
//	if err := sender.CompleteCode(cmd); err != nil {
//	    return errors.Wrapf(err, "failed to send completion request for %s", path)
//	}
//
//	if errors.Is(err, errors.ErrTimeout) {
//	    // backend did not answer in time
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across packages.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrTimeout indicates an asynchronous completion did not resolve in time
	ErrTimeout = New("operation timed out")

	// ErrInvalidResult indicates the backend answered without a usable proposal
	ErrInvalidResult = New("invalid completion result")

	// ErrRequestInFlight indicates a second request on a single-request waiter
	ErrRequestInFlight = New("completion request already in flight")

	// ErrBackendUnavailable indicates no backend process is connected
	ErrBackendUnavailable = New("backend unavailable")

	// ErrBackendLost indicates the backend process exited unexpectedly
	ErrBackendLost = New("backend process lost")

	// ErrProtocolMismatch indicates the backend speaks an incompatible protocol version
	ErrProtocolMismatch = New("protocol version mismatch")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsNoCompletions reports whether err means "no completions available".
// Timeouts and invalid results look the same to a caller.
func IsNoCompletions(err error) bool {
	return err != nil && IsAny(err, ErrTimeout, ErrInvalidResult)
}

// IsBackendError checks if an error is or wraps one of the backend lifecycle errors
func IsBackendError(err error) bool {
	return err != nil && IsAny(err, ErrBackendUnavailable, ErrBackendLost, ErrProtocolMismatch)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
