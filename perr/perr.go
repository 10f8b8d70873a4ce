// Package perr implements the four error kinds the engine distinguishes
// per spec §7 (Schema, Build, Runtime, Projection). None of these are
// exposed as panics; every fallible operation returns an error, and
// callers that need to distinguish a kind use errors.As against *Error.
package perr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies which phase of the engine produced an error.
type Kind int

const (
	// Schema errors are authoring bugs caught at schema-construction
	// time: name-policy violations, a derived_result pointing at a
	// non-existent or non-Array(Object) attribute, or a derived_result
	// built from a template field. Irrecoverable.
	Schema Kind = iota
	// Build errors are produced by add_namespace, add_command, and
	// compile: duplicate names, reserved-name use, a missing
	// Iterative store_path, a plan cycle, or attribute validation
	// failure.
	Build
	// Runtime errors are produced during execute: template rendering
	// failure, iterator source type mismatch, a required path not
	// found, or a command-specific failure.
	Runtime
	// Projection errors are produced during results: I/O failure
	// writing a tabular output, or an unexpectedly missing path for a
	// declared result.
	Projection
)

func (k Kind) String() string {
	switch k {
	case Schema:
		return "schema"
	case Build:
		return "build"
	case Runtime:
		return "runtime"
	case Projection:
		return "projection"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and the operation name
// that produced it (e.g. "compile", "execute", "results", a command
// type, or an attribute/namespace name), so the offending boundary can
// be identified without parsing the message.
type Error struct {
	Kind Kind
	Op   string
	err  error
}

// New builds an *Error, wrapping err with op for context via
// github.com/pkg/errors so a caller inspecting the error chain keeps
// the originating stack trace.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, err: errors.Wrap(err, op)}
}

// Newf is like New but builds the underlying error from a format string.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, err: errors.Wrap(fmt.Errorf(format, args...), op)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is a *Error with the same Kind, enabling
// errors.Is(err, perr.KindOnly(perr.Build)) checks when target carries
// only a Kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	if other.err == nil {
		return e.Kind == other.Kind
	}
	return false
}

// KindOnly builds a sentinel *Error carrying only a Kind, for use with
// errors.Is(err, perr.KindOnly(perr.Build)).
func KindOnly(kind Kind) *Error {
	return &Error{Kind: kind}
}

// As extracts the Kind of err if it is (or wraps) a *Error.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
