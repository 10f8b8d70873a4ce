// Package pipeline implements the pipeline lifecycle state machine
// (§4.8) and execution driver (§4.9): Draft/Ready/Completed phases as
// distinct Go types sharing an internal core, compile-time validation,
// and the run loop that ties namespaces, commands, and the execution
// context together.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dolly-parseton/Panopticon/command"
	"github.com/hashicorp/go-multierror"

	"github.com/dolly-parseton/Panopticon/depscan"
	"github.com/dolly-parseton/Panopticon/namespace"
	"github.com/dolly-parseton/Panopticon/perr"
	"github.com/dolly-parseton/Panopticon/plan"
	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/store"
	"github.com/dolly-parseton/Panopticon/validate"
)

var reservedNamespaceNames = map[string]struct{}{
	"item":  {},
	"index": {},
}

// CommandSpec is one entry in the pipeline's command list (§3):
// namespace index, step name, evaluated attributes as inserted by the
// caller, the factory that builds an Executable, the flattened
// attribute/result schemas, and the StorePath dependencies extracted at
// insertion time. The highest iteration index of an Iterative
// namespace is not kept here; see core.maxIterationIndex.
type CommandSpec struct {
	NamespaceIndex  int
	StepName        string
	Attributes      map[string]scalar.Value
	Factory         command.Factory
	AttributeSchema []specdef.AttributeSpec
	ResultSchema    []specdef.ResultSpec
	Dependencies    map[string]storepath.Path
}

// core holds the state shared by every lifecycle phase. All phases of
// one pipeline point at the same core: Draft methods append to its
// namespace and command slices in place, and a Draft obtained via
// Ready.Edit or Completed.Edit works on that same core.
type core struct {
	namespaces []namespace.Namespace
	commands   []CommandSpec
	checker    validate.SyntaxChecker
	renderer   store.Renderer
	logger     *slog.Logger

	plan *executionPlan
	ctx  *store.ExecutionContext

	// maxIterationIndex records, per namespace index, the highest
	// iteration index that actually ran during the most recent
	// Execute(). Result projection's Iterative case (§4.10) uses this
	// as a fast path before falling back to gap-probing, resolving
	// SPEC_FULL.md §9's "iteration count isn't stored anywhere else"
	// open question by storing it ourselves.
	maxIterationIndex map[int]int
}

type executionPlan struct {
	namespaceOrder []int
	commandOrder   map[int][]int // namespace index -> command indices in order
}

// Draft is the mutable construction phase.
type Draft struct {
	c *core
}

// Ready is the compiled, not-yet-executed phase.
type Ready struct {
	c *core
}

// Completed holds the ExecutionContext produced by Execute.
type Completed struct {
	c *core
}

// NewDraft creates an empty Draft bound to renderer (used both for
// template rendering and, via its CheckSyntax method, as the
// validate.SyntaxChecker for attribute validation).
func NewDraft(renderer store.Renderer) *Draft {
	return &Draft{c: &core{renderer: renderer, checker: checkerAdapter{renderer}, logger: slog.Default()}}
}

// WithLogger overrides the Draft's logger, mirroring the nil-guarded
// SetLogger pattern the teacher uses on Pipeline: a caller that never
// calls WithLogger still gets slog.Default(), never a nil *slog.Logger.
func (d *Draft) WithLogger(logger *slog.Logger) *Draft {
	if logger != nil {
		d.c.logger = logger
	}
	return d
}

// checkerAdapter narrows a store.Renderer down to validate.SyntaxChecker
// so this package's single renderer dependency can satisfy both roles.
type checkerAdapter struct {
	r store.Renderer
}

func (a checkerAdapter) CheckSyntax(s string) error {
	if a.r == nil {
		return nil
	}
	return a.r.CheckSyntax(s)
}

// NamespaceHandle identifies a namespace within a Draft for subsequent
// AddCommand calls. The phantom-typed handle disambiguation described
// by the spec (a Static handle's type statically forbids AddCommand)
// is approximated here, idiomatically, by a runtime guard in
// AddCommand: Go's type system has no ergonomic way to return a
// different handle type per Mode from a single AddNamespace call
// without either generics keyed on Mode (which would need a type
// parameter per namespace, awkward for a []Namespace-backed Draft) or
// a parallel family of namespace-builder types. The guard still
// reports the Static-namespace-rejects-commands rule as a Build error,
// satisfying §4.8's requirement, just at call time instead of compile
// time.
type NamespaceHandle struct {
	d     *Draft
	index int
}

// AddNamespace appends ns to the Draft, enforcing non-reserved,
// unique, non-empty names.
func (d *Draft) AddNamespace(ns namespace.Namespace) (NamespaceHandle, error) {
	if ns.Name == "" {
		return NamespaceHandle{}, perr.Newf(perr.Build, "add_namespace", "namespace name must not be empty")
	}
	if _, reserved := reservedNamespaceNames[ns.Name]; reserved {
		return NamespaceHandle{}, perr.Newf(perr.Build, "add_namespace", "namespace name %q is reserved", ns.Name)
	}
	for _, existing := range d.c.namespaces {
		if existing.Name == ns.Name {
			return NamespaceHandle{}, perr.Newf(perr.Build, "add_namespace", "namespace name %q already in use", ns.Name)
		}
	}
	d.c.namespaces = append(d.c.namespaces, ns)
	return NamespaceHandle{d: d, index: len(d.c.namespaces) - 1}, nil
}

// AddCommand appends a command to the handle's namespace: unique step
// name within the namespace, Static namespaces reject commands, and
// dependency extraction runs immediately and is cached on the
// CommandSpec.
func (h NamespaceHandle) AddCommand(stepName string, attrs map[string]scalar.Value, factory command.Factory, attrSchema []specdef.AttributeSpec, resultSchema []specdef.ResultSpec) error {
	ns := h.d.c.namespaces[h.index]
	if ns.Mode == namespace.Static {
		return perr.Newf(perr.Build, "add_command", "namespace %q is static and cannot own commands", ns.Name)
	}
	if err := specdef.ValidateName(stepName); err != nil {
		return perr.New(perr.Build, "add_command", err)
	}
	for _, cmd := range h.d.c.commands {
		if cmd.NamespaceIndex == h.index && cmd.StepName == stepName {
			return perr.Newf(perr.Build, "add_command", "step name %q already in use within namespace %q", stepName, ns.Name)
		}
	}

	deps, err := depscan.Extract(attrs, command.AvailableAttributes(descriptorShim{attrSchema}))
	if err != nil {
		return perr.New(perr.Build, "add_command", err)
	}

	h.d.c.commands = append(h.d.c.commands, CommandSpec{
		NamespaceIndex:  h.index,
		StepName:        stepName,
		Attributes:      attrs,
		Factory:         factory,
		AttributeSchema: attrSchema,
		ResultSchema:    resultSchema,
		Dependencies:    deps,
	})
	return nil
}

// descriptorShim adapts a plain attribute schema slice into a
// command.Descriptor so AddCommand can reuse
// command.AvailableAttributes to layer in the common `when` attribute
// before dependency extraction, matching §4.3's requirement that
// extraction see the common attributes too.
type descriptorShim struct {
	attrs []specdef.AttributeSpec
}

func (d descriptorShim) CommandType() string                        { return "" }
func (d descriptorShim) CommandAttributes() []specdef.AttributeSpec { return d.attrs }
func (d descriptorShim) CommandResults() []specdef.ResultSpec       { return nil }

// Compile performs the §4.8 compile() battery and returns Ready on
// success. On failure it returns a descriptive error and the Draft
// itself remains usable (the spec's "drop back to Draft" is a no-op
// here since Draft never mutates in place during compile).
func (d *Draft) Compile() (*Ready, error) {
	var result *multierror.Error

	if err := verifyNamePolicy(d.c); err != nil {
		result = multierror.Append(result, err)
	}
	if err := verifyIterativeStorePaths(d.c); err != nil {
		result = multierror.Append(result, err)
	}
	if err := verifyCommandAttributes(d.c); err != nil {
		result = multierror.Append(result, err)
	}

	if result.ErrorOrNil() != nil {
		return nil, perr.New(perr.Build, "compile", result)
	}

	execPlan, err := buildPlan(d.c)
	if err != nil {
		return nil, perr.New(perr.Build, "compile", err)
	}
	d.c.plan = execPlan

	return &Ready{c: d.c}, nil
}

func verifyNamePolicy(c *core) error {
	seenNS := make(map[string]struct{}, len(c.namespaces))
	for _, ns := range c.namespaces {
		if _, reserved := reservedNamespaceNames[ns.Name]; reserved {
			return fmt.Errorf("namespace name %q is reserved", ns.Name)
		}
		if _, dup := seenNS[ns.Name]; dup {
			return fmt.Errorf("duplicate namespace name %q", ns.Name)
		}
		seenNS[ns.Name] = struct{}{}
	}
	type key struct {
		ns, step string
	}
	seenCmd := make(map[key]struct{}, len(c.commands))
	for _, cmd := range c.commands {
		if cmd.NamespaceIndex < 0 || cmd.NamespaceIndex >= len(c.namespaces) {
			return fmt.Errorf("command %q has invalid namespace index %d", cmd.StepName, cmd.NamespaceIndex)
		}
		if err := specdef.ValidateName(cmd.StepName); err != nil {
			return err
		}
		k := key{ns: c.namespaces[cmd.NamespaceIndex].Name, step: cmd.StepName}
		if _, dup := seenCmd[k]; dup {
			return fmt.Errorf("duplicate step name %q within namespace %q", cmd.StepName, k.ns)
		}
		seenCmd[k] = struct{}{}
	}
	return nil
}

func verifyIterativeStorePaths(c *core) error {
	for _, ns := range c.namespaces {
		if ns.Mode == namespace.Iterative && ns.StorePath.IsZero() {
			return fmt.Errorf("iterative namespace %q requires a non-empty store_path", ns.Name)
		}
	}
	return nil
}

func verifyCommandAttributes(c *core) error {
	for _, cmd := range c.commands {
		ns := c.namespaces[cmd.NamespaceIndex]
		if err := validate.Attributes(cmd.Attributes, command.AvailableAttributes(descriptorShim{cmd.AttributeSchema}), c.checker); err != nil {
			return fmt.Errorf("namespace %q command %q: %w", ns.Name, cmd.StepName, err)
		}
	}
	return nil
}

// buildPlan implements §4.4: namespace ordering, then within-namespace
// command ordering.
func buildPlan(c *core) (*executionPlan, error) {
	nsNames := make([]string, len(c.namespaces))
	nsIndexByName := make(map[string]int, len(c.namespaces))
	for i, ns := range c.namespaces {
		nsNames[i] = ns.Name
		nsIndexByName[ns.Name] = i
	}

	nsPrereqs := make(map[string]map[string]struct{}, len(c.namespaces))
	for i, ns := range c.namespaces {
		prereqs := make(map[string]struct{})
		if ns.Mode == namespace.Iterative && !ns.StorePath.IsZero() {
			if src := ns.StorePath.Namespace(); src != ns.Name {
				if _, ok := nsIndexByName[src]; ok {
					prereqs[src] = struct{}{}
				}
			}
		}
		for _, cmd := range c.commands {
			if cmd.NamespaceIndex != i {
				continue
			}
			for _, dep := range cmd.Dependencies {
				src := dep.Namespace()
				if src == ns.Name {
					continue
				}
				if _, ok := nsIndexByName[src]; ok {
					prereqs[src] = struct{}{}
				}
			}
		}
		nsPrereqs[ns.Name] = prereqs
	}

	nsOrderNames, err := plan.Topological(nsNames, nsPrereqs)
	if err != nil {
		return nil, fmt.Errorf("namespace plan: %w", err)
	}
	nsOrder := make([]int, len(nsOrderNames))
	for i, name := range nsOrderNames {
		nsOrder[i] = nsIndexByName[name]
	}

	commandOrder := make(map[int][]int, len(c.namespaces))
	for nsIdx, ns := range c.namespaces {
		var cmdIdxs []int
		cmdNames := make([]string, 0)
		nameToIdx := make(map[string]int)
		for i, cmd := range c.commands {
			if cmd.NamespaceIndex != nsIdx {
				continue
			}
			cmdIdxs = append(cmdIdxs, i)
			cmdNames = append(cmdNames, cmd.StepName)
			nameToIdx[cmd.StepName] = i
		}
		if len(cmdIdxs) == 0 {
			continue
		}
		cmdPrereqs := make(map[string]map[string]struct{}, len(cmdIdxs))
		for _, i := range cmdIdxs {
			cmd := c.commands[i]
			prereqs := make(map[string]struct{})
			for _, dep := range cmd.Dependencies {
				segs := dep.Segments()
				if len(segs) < 2 {
					continue
				}
				if segs[0] != ns.Name {
					continue
				}
				if _, ok := nameToIdx[segs[1]]; ok && segs[1] != cmd.StepName {
					prereqs[segs[1]] = struct{}{}
				}
			}
			cmdPrereqs[cmd.StepName] = prereqs
		}
		order, err := plan.Topological(cmdNames, cmdPrereqs)
		if err != nil {
			return nil, fmt.Errorf("command plan for namespace %q: %w", ns.Name, err)
		}
		ordered := make([]int, len(order))
		for i, name := range order {
			ordered[i] = nameToIdx[name]
		}
		commandOrder[nsIdx] = ordered
	}

	return &executionPlan{namespaceOrder: nsOrder, commandOrder: commandOrder}, nil
}
