package dex

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure. The fallback decision in the
// executor branches on kinds instead of string-matching errors.
type Kind string

const (
	// KindInsufficientBalance marks a policy skip, not an execution failure.
	KindInsufficientBalance Kind = "insufficient_balance"
	// KindContractUnavailable means the router is not deployed; it triggers
	// the fallback path and is never surfaced as a failure on its own.
	KindContractUnavailable Kind = "contract_unavailable"
	// KindEstimationFailure means the price query failed; the executor
	// substitutes a floor minimum output and continues.
	KindEstimationFailure Kind = "estimation_failure"
	// KindApprovalFailure is fatal for the attempt; there is no fallback
	// for the approval itself.
	KindApprovalFailure Kind = "approval_failure"
	// KindExecutionFailure means both the primary path and the fallback
	// failed; the primary error is the one surfaced.
	KindExecutionFailure Kind = "execution_failure"
	// KindUnknown covers unexpected failures; the run continues.
	KindUnknown Kind = "unknown"
)

// OperationError carries the failure kind alongside the underlying cause.
type OperationError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *OperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *OperationError) Unwrap() error { return e.Err }

// NewError builds an OperationError.
func NewError(kind Kind, msg string, err error) *OperationError {
	return &OperationError{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the failure kind from err, defaulting to KindUnknown.
func KindOf(err error) Kind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
