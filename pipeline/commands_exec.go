package pipeline

import (
	"fmt"
	"time"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/store"
)

// executeCommands runs the commands of one namespace, in plan order,
// for a single iteration (§4.9's execute_commands). iterationIndex is
// nil for Once namespaces and Some(i) for an Iterative namespace's
// i-th pass.
func (r *Ready) executeCommands(ctx *store.ExecutionContext, nsIdx int, cmdIdxs []int, iterationIndex *int) error {
	ns := r.c.namespaces[nsIdx]
	for _, cmdIdx := range cmdIdxs {
		cmd := r.c.commands[cmdIdx]

		substituted, err := substituteAttributes(ctx, cmd.Attributes)
		if err != nil {
			return wrapRuntime(fmt.Sprintf("namespace %q command %q: substitute attributes", ns.Name, cmd.StepName), err)
		}

		exec, err := cmd.Factory(substituted)
		if err != nil {
			return wrapRuntime(fmt.Sprintf("namespace %q command %q: build", ns.Name, cmd.StepName), err)
		}

		outputPrefix := storepath.MustNew(ns.Name, cmd.StepName)
		if iterationIndex != nil {
			outputPrefix = outputPrefix.AppendIndex(*iterationIndex)
		}

		cmdStart := time.Now()
		if err := exec.Execute(ctx, outputPrefix); err != nil {
			r.c.logger.Error("command failed", "run_id", ctx.RunID, "namespace", ns.Name, "command", cmd.StepName, "elapsed", time.Since(cmdStart).String(), "error", err)
			return wrapRuntime(fmt.Sprintf("namespace %q command %q", ns.Name, cmd.StepName), err)
		}
		r.c.logger.Info("command completed", "run_id", ctx.RunID, "namespace", ns.Name, "command", cmd.StepName, "output", outputPrefix.String(), "elapsed", time.Since(cmdStart).String())
	}
	return nil
}

// recordMaxIndex notes that iteration idx ran to completion for
// namespace nsIdx, keeping the highest index seen.
func recordMaxIndex(c *core, nsIdx, idx int) {
	if c.maxIterationIndex == nil {
		c.maxIterationIndex = make(map[int]int)
	}
	if cur, ok := c.maxIterationIndex[nsIdx]; !ok || idx > cur {
		c.maxIterationIndex[nsIdx] = idx
	}
}

// substituteAttributes renders every string-valued leaf of attrs
// (recursively through arrays and objects) against the store's current
// contents; non-string values pass through unchanged. A literal string
// with no "{{" is returned unchanged by the renderer's fast path, so
// Unsupported-kinded attributes are unaffected in practice.
func substituteAttributes(ctx *store.ExecutionContext, attrs map[string]scalar.Value) (map[string]scalar.Value, error) {
	out := make(map[string]scalar.Value, len(attrs))
	for name, v := range attrs {
		sv, err := substituteValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = sv
	}
	return out, nil
}

func substituteValue(ctx *store.ExecutionContext, v scalar.Value) (scalar.Value, error) {
	switch v.Kind() {
	case scalar.KindString:
		s, _ := v.AsString()
		rendered, err := ctx.Scalars.Render(s)
		if err != nil {
			return scalar.Value{}, err
		}
		return scalar.String(rendered), nil
	case scalar.KindArray:
		arr, _ := v.AsArray()
		out := make([]scalar.Value, len(arr))
		for i, elem := range arr {
			sv, err := substituteValue(ctx, elem)
			if err != nil {
				return scalar.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = sv
		}
		return scalar.Array(out...), nil
	case scalar.KindObject:
		obj, _ := v.AsObject()
		newObj := scalar.NewObject()
		for _, k := range obj.Keys() {
			fv, _ := obj.Get(k)
			sv, err := substituteValue(ctx, fv)
			if err != nil {
				return scalar.Value{}, fmt.Errorf("%s: %w", k, err)
			}
			newObj.Set(k, sv)
		}
		return scalar.ObjectValue(newObj), nil
	default:
		return v, nil
	}
}
