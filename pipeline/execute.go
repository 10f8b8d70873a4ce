package pipeline

import (
	"fmt"
	"time"

	"github.com/dolly-parseton/Panopticon/namespace"
	"github.com/dolly-parseton/Panopticon/perr"
	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/store"
)

func wrapRuntime(op string, err error) error {
	return perr.New(perr.Runtime, op, err)
}

// Execute consumes Ready and produces Completed (§4.9): a fresh
// ExecutionContext, Static namespace seeding, then a walk of the plan
// running Once/Iterative namespaces in order. Execution stops at the
// first error, matching §5's "no further iterations run" rule.
func (r *Ready) Execute() (*Completed, error) {
	ctx := store.NewExecutionContext(r.c.renderer)
	r.c.maxIterationIndex = nil
	start := time.Now()
	r.c.logger.Info("pipeline execution started", "run_id", ctx.RunID, "namespaces", len(r.c.namespaces))

	for _, ns := range r.c.namespaces {
		if ns.Mode != namespace.Static {
			continue
		}
		for key, v := range ns.StaticValues {
			path, err := storepath.New(ns.Name, key)
			if err != nil {
				return nil, wrapRuntime(fmt.Sprintf("seed static namespace %q", ns.Name), err)
			}
			if err := ctx.Scalars.Insert(path, v); err != nil {
				return nil, wrapRuntime(fmt.Sprintf("seed static namespace %q", ns.Name), err)
			}
		}
	}

	for _, nsIdx := range r.c.plan.namespaceOrder {
		ns := r.c.namespaces[nsIdx]
		cmdIdxs := r.c.plan.commandOrder[nsIdx]
		nsStart := time.Now()

		switch ns.Mode {
		case namespace.Once:
			if err := r.executeCommands(ctx, nsIdx, cmdIdxs, nil); err != nil {
				r.c.logger.Error("namespace failed", "run_id", ctx.RunID, "namespace", ns.Name, "mode", ns.Mode.String(), "error", err)
				return nil, err
			}
		case namespace.Iterative:
			items, err := resolveIteration(ctx, ns)
			if err != nil {
				werr := wrapRuntime(fmt.Sprintf("namespace %q", ns.Name), err)
				r.c.logger.Error("namespace iteration source failed", "run_id", ctx.RunID, "namespace", ns.Name, "error", werr)
				return nil, werr
			}
			for idx, item := range items {
				pop := ctx.Scalars.PushScope(map[string]scalar.Value{
					ns.EffectiveIterVar():  item,
					ns.EffectiveIndexVar(): scalar.Int(int64(idx)),
				})
				execErr := r.executeCommands(ctx, nsIdx, cmdIdxs, &idx)
				pop()
				if execErr != nil {
					r.c.logger.Error("namespace failed", "run_id", ctx.RunID, "namespace", ns.Name, "mode", ns.Mode.String(), "iteration", idx, "error", execErr)
					return nil, execErr
				}
				recordMaxIndex(r.c, nsIdx, idx)
			}
		case namespace.Static:
			// already seeded above
		}
		r.c.logger.Info("namespace completed", "run_id", ctx.RunID, "namespace", ns.Name, "mode", ns.Mode.String(), "elapsed", time.Since(nsStart).String())
	}

	r.c.logger.Info("pipeline execution completed", "run_id", ctx.RunID, "elapsed", time.Since(start).String())
	r.c.ctx = ctx
	return &Completed{c: r.c}, nil
}

// resolveIteration resolves an Iterative namespace's sequence (§4.5).
// TabularColumn reads from the tabular store; every other source kind
// reads the scalar store.
func resolveIteration(ctx *store.ExecutionContext, ns namespace.Namespace) ([]scalar.Value, error) {
	if ns.Source.Kind == namespace.TabularColumn {
		tv, ok := ctx.Tabulars.Get(ns.StorePath.String())
		return ns.Resolve(scalar.Null(), false, tv, ok)
	}
	sv, ok := ctx.Scalars.Get(ns.StorePath)
	return ns.Resolve(sv, ok, nil, false)
}
