// Package errkind provides the small error-kind enumeration used at every
// component boundary instead of an exception hierarchy. Components return
// *errkind.Error (or wrap one with github.com/pkg/errors) rather than
// panicking; the top-level entrypoint maps a Kind to an exit code.
package errkind

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names one of the seven error taxonomies a Pavilion component can
// surface. See spec §7.
type Kind string

const (
	// Configuration covers malformed suites, unknown keys, invalid regexes,
	// cyclic inheritance and deferred variables used in a forbidden context.
	Configuration Kind = "Configuration"

	// Resolution covers unresolved variables, empty expected variables and
	// type mismatches inside an expression.
	Resolution Kind = "Resolution"

	// Build covers fetch failures, extraction failures, non-zero build
	// script exits and reclaimed stalled builds.
	Build Kind = "Build"

	// Scheduler covers rejected submissions, failed cancels and inventory
	// fetch failures.
	Scheduler Kind = "Scheduler"

	// Runtime covers a test run's own script failing.
	Runtime Kind = "Runtime"

	// Parse covers unreadable result files, bad regexes and malformed
	// parser output.
	Parse Kind = "Parse"

	// Concurrency covers lock acquisition timeouts and torn status
	// journals.
	Concurrency Kind = "Concurrency"
)

// Error pairs a Kind with a message chain. It satisfies the error interface
// and unwraps through github.com/pkg/errors so callers can still use
// errors.Cause/errors.Is on the wrapped error.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

// New creates a *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving its cause chain.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap allows errors.Is/errors.As (stdlib and github.com/pkg/errors) to see
// through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.err
}

// Cause satisfies github.com/pkg/errors' Causer interface.
func (e *Error) Cause() error {
	return e.err
}

// KindOf extracts the Kind carried by err, walking its cause chain. It
// returns ("", false) if no *Error is found anywhere in the chain.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if ke, ok := err.(*Error); ok {
			return ke.Kind, true
		}
		cause := errors.Unwrap(err)
		if cause == nil {
			type causer interface{ Cause() error }
			if c, ok := err.(causer); ok {
				cause = c.Cause()
			}
		}
		if cause == err {
			break
		}
		err = cause
	}
	return "", false
}

// ExitCode maps a Kind to a non-zero process exit code for the top-level
// entrypoint (spec §6). Exit code 0 is reserved for success and is never
// returned here.
func ExitCode(kind Kind) int {
	switch kind {
	case Configuration:
		return 2
	case Resolution:
		return 3
	case Build:
		return 4
	case Scheduler:
		return 5
	case Runtime:
		return 6
	case Parse:
		return 7
	case Concurrency:
		return 8
	default:
		return 1
	}
}
