// Package command implements the command trait surface (§4.6) and the
// ExecutableWrapper protocol (§4.7): the common `when` attribute, the
// common `duration_ms`/`status` results, and the default factory
// composition every command type is built through.
package command

import (
	"fmt"
	"time"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/store"
	"github.com/dolly-parseton/Panopticon/validate"
)

// WhenAttributeName is the reserved common attribute name.
const WhenAttributeName = "when"

// DurationResultName and StatusResultName are the reserved common
// result names, always written by the wrapper regardless of outcome.
const (
	DurationResultName = "duration_ms"
	StatusResultName   = "status"
)

// Status is one of the three values written to the status result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// whenAttribute is the common `when` AttributeSpec, layered onto every
// command's declared attributes by Descriptor.
var whenAttribute = specdef.AttributeSpec{
	Name:     WhenAttributeName,
	Type:     specdef.Scalar{Type: specdef.ScalarString},
	Required: false,
	Hint:     "boolean guard expression; command is skipped if falsy",
	Kind:     specdef.RuntimeTeraTemplate,
}

var commonResults = []specdef.ResultSpec{
	specdef.FieldResult{Name: DurationResultName, Type: specdef.Scalar{Type: specdef.ScalarNumber}, Kind: specdef.Meta, Hint: "wall-clock elapsed time in milliseconds"},
	specdef.FieldResult{Name: StatusResultName, Type: specdef.Scalar{Type: specdef.ScalarString}, Kind: specdef.Meta, Hint: "success, skipped, or error"},
}

// Descriptor is the static, type-level half of the command trait
// surface (§4.6): a diagnostic type name plus the command's own
// attribute/result schema.
type Descriptor interface {
	CommandType() string
	CommandAttributes() []specdef.AttributeSpec
	CommandResults() []specdef.ResultSpec
}

// CommonResults returns the always-emitted duration_ms/status result
// declarations, for callers (e.g. result projection) that need them
// without a Descriptor to layer onto.
func CommonResults() []specdef.ResultSpec {
	out := make([]specdef.ResultSpec, len(commonResults))
	copy(out, commonResults)
	return out
}

// AvailableAttributes layers the common `when` attribute onto a
// Descriptor's own declared attributes.
func AvailableAttributes(d Descriptor) []specdef.AttributeSpec {
	own := d.CommandAttributes()
	out := make([]specdef.AttributeSpec, 0, len(own)+1)
	out = append(out, own...)
	out = append(out, whenAttribute)
	return out
}

// AvailableResults layers the common duration_ms/status results onto a
// Descriptor's own declared results.
func AvailableResults(d Descriptor) []specdef.ResultSpec {
	own := d.CommandResults()
	out := make([]specdef.ResultSpec, 0, len(own)+len(commonResults))
	out = append(out, own...)
	out = append(out, commonResults...)
	return out
}

// Executable is the runtime half of the command trait surface: execute
// writes the command's own results under outputPrefix using context's
// stores.
type Executable interface {
	Execute(ctx *store.ExecutionContext, outputPrefix storepath.Path) error
}

// FromAttributes parses already-validated, already-substituted
// attributes into a command's internal representation.
type FromAttributes func(attrs map[string]scalar.Value) (Executable, error)

// Factory builds a fully-wrapped Executable from raw attribute values:
// validate, extract the when expression, build the inner command, and
// wrap it in an ExecutableWrapper (§4.6 "default factory").
type Factory func(attrs map[string]scalar.Value) (Executable, error)

// NewFactory composes the default factory for a command type: validate
// attrs against own (the command's own schema, not the common `when`
// attribute — the wrapper separately extracts and validates `when`),
// then call build, then wrap the result.
func NewFactory(own []specdef.AttributeSpec, checker validate.SyntaxChecker, build FromAttributes) Factory {
	return func(attrs map[string]scalar.Value) (Executable, error) {
		if err := validate.Attributes(attrs, own, checker); err != nil {
			return nil, fmt.Errorf("command: %w", err)
		}
		whenExpr, err := extractWhen(attrs, checker)
		if err != nil {
			return nil, err
		}
		inner, err := build(attrs)
		if err != nil {
			return nil, fmt.Errorf("command: %w", err)
		}
		return &ExecutableWrapper{inner: inner, whenExpr: whenExpr}, nil
	}
}

func extractWhen(attrs map[string]scalar.Value, checker validate.SyntaxChecker) (string, error) {
	v, ok := attrs[WhenAttributeName]
	if !ok {
		return "", nil
	}
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("command: %q attribute must be a string", WhenAttributeName)
	}
	if checker != nil {
		if err := checker.CheckSyntax("{{ " + s + " }}"); err != nil {
			return "", fmt.Errorf("command: invalid %q syntax: %w", WhenAttributeName, err)
		}
	}
	return s, nil
}

// ExecutableWrapper implements the §4.7 protocol common to every
// command: a when-guard, always-written duration_ms/status results,
// and propagation of the inner command's error (but never its absence
// of a status write).
type ExecutableWrapper struct {
	inner    Executable
	whenExpr string
}

// Execute implements the six-step protocol from §4.7.
func (w *ExecutableWrapper) Execute(ctx *store.ExecutionContext, outputPrefix storepath.Path) error {
	start := time.Now()

	status := StatusSuccess
	var innerErr error

	if w.whenExpr != "" {
		rendered, err := ctx.Scalars.Render("{{ " + w.whenExpr + " }}")
		if err != nil {
			status = StatusError
			innerErr = fmt.Errorf("when-guard render: %w", err)
			writeCommonResults(ctx, outputPrefix, start, status)
			return innerErr
		}
		guard := scalar.Parse(rendered)
		if !guard.Truthy() {
			writeCommonResults(ctx, outputPrefix, start, StatusSkipped)
			return nil
		}
	}

	if err := w.inner.Execute(ctx, outputPrefix); err != nil {
		status = StatusError
		innerErr = err
	}

	writeCommonResults(ctx, outputPrefix, start, status)
	return innerErr
}

func writeCommonResults(ctx *store.ExecutionContext, outputPrefix storepath.Path, start time.Time, status Status) {
	elapsed := time.Since(start).Milliseconds()
	_ = ctx.Scalars.Insert(outputPrefix.Append(DurationResultName), scalar.Int(elapsed))
	_ = ctx.Scalars.Insert(outputPrefix.Append(StatusResultName), scalar.String(string(status)))
}
