package pipeline

import (
	"github.com/dolly-parseton/Panopticon/namespace"
	"github.com/dolly-parseton/Panopticon/store"
)

// Edit returns to Draft without running, discarding the compiled plan
// (§4.8: "Ready. ... edit() returns to Draft without running").
func (r *Ready) Edit() *Draft {
	r.c.plan = nil
	return &Draft{c: r.c}
}

// Edit returns to Draft for incremental building, discarding both the
// compiled plan and the ExecutionContext produced by Execute.
func (c *Completed) Edit() *Draft {
	c.c.plan = nil
	c.c.ctx = nil
	return &Draft{c: c.c}
}

// Restart returns to Ready with the same graph and plan; the next
// Execute() call builds a fresh ExecutionContext.
func (c *Completed) Restart() *Ready {
	c.c.ctx = nil
	return &Ready{c: c.c}
}

// Context returns the ExecutionContext populated by Execute, for the
// result package's projection logic.
func (c *Completed) Context() *store.ExecutionContext {
	return c.c.ctx
}

// Namespaces returns the pipeline's namespace list in insertion order.
func (c *Completed) Namespaces() []namespace.Namespace {
	out := make([]namespace.Namespace, len(c.c.namespaces))
	copy(out, c.c.namespaces)
	return out
}

// Commands returns the pipeline's command specs in insertion order.
func (c *Completed) Commands() []CommandSpec {
	out := make([]CommandSpec, len(c.c.commands))
	copy(out, c.c.commands)
	return out
}

// MaxIterationIndex returns the highest iteration index observed for
// namespace index nsIdx during the most recent Execute(), and whether
// any iteration ran at all.
func (c *Completed) MaxIterationIndex(nsIdx int) (int, bool) {
	if c.c.maxIterationIndex == nil {
		return 0, false
	}
	idx, ok := c.c.maxIterationIndex[nsIdx]
	return idx, ok
}
