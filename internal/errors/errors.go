// Package errors defines typed errors with categories for user-friendly reporting.
// It provides machine-readable error kinds for every way an invocation of the
// worker process can fail, alongside human-friendly messages. Callers branch on
// the kind with KindOf while the wrapped cause stays reachable through
// errors.Is and errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// SpawnFailed indicates the worker executable could not be launched.
	SpawnFailed Kind = "spawn_failed"
	// NonZeroExit indicates the worker ran and signaled failure.
	NonZeroExit Kind = "non_zero_exit"
	// UnparseableResult indicates the worker exited 0 but printed no usable result.
	UnparseableResult Kind = "unparseable_result"
	// InvalidRequest indicates a bad action or payload before anything was spawned.
	InvalidRequest Kind = "invalid_request"
	// Canceled indicates the invocation was stopped by its context.
	Canceled Kind = "canceled"
	// TransportFailed indicates the remote gateway connection failed.
	TransportFailed Kind = "transport_failed"
)

// E wraps an error with kind and human-friendly message.
// ExitCode and Stderr are set for NonZeroExit.
type E struct {
	Kind     Kind
	Message  string
	Err      error
	ExitCode int
	Stderr   string
}

func (e *E) Error() string {
	if e.Kind == NonZeroExit {
		return fmt.Sprintf("%s: process exited with code %d: %s", e.Kind, e.ExitCode, e.Stderr)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Exit builds a NonZeroExit error carrying the code and the accumulated stderr.
func Exit(code int, stderr string) *E {
	return &E{Kind: NonZeroExit, Message: "worker failed", ExitCode: code, Stderr: stderr}
}

// KindOf returns the kind of the first *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is errors.As re-exported so callers importing this package need not alias the stdlib one.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is is errors.Is re-exported for the same reason.
func Is(err, target error) bool { return stderrors.Is(err, target) }
