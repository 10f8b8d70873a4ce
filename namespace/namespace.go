// Package namespace implements the namespace execution-mode model
// (§4.5): Once, Static, and Iterative namespaces, and the iteration
// sources an Iterative namespace can resolve against.
package namespace

import (
	"fmt"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/tabular"
)

// Mode is the execution mode of a namespace.
type Mode int

const (
	Once Mode = iota
	Static
	Iterative
)

func (m Mode) String() string {
	switch m {
	case Once:
		return "once"
	case Static:
		return "static"
	case Iterative:
		return "iterative"
	default:
		return "unknown"
	}
}

// SourceKind enumerates the ways an Iterative namespace can resolve its
// iteration sequence (§4.5).
type SourceKind int

const (
	ScalarStringSplit SourceKind = iota
	ScalarArray
	ScalarObjectKeys
	TabularColumn
)

// Range is an optional [Start, End) slice applied to ScalarArray and
// TabularColumn sources, with saturating arithmetic (out-of-range
// bounds clamp rather than error).
type Range struct {
	Start, End int
}

// clamp saturates [start,end) into [0,n].
func (r *Range) clamp(n int) (int, int) {
	if r == nil {
		return 0, n
	}
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	return start, end
}

// IteratorSource describes how to resolve an Iterative namespace's
// sequence from the value found at its StorePath.
type IteratorSource struct {
	Kind SourceKind

	// Delimiter is used by ScalarStringSplit.
	Delimiter string

	// Range optionally slices ScalarArray and TabularColumn sources.
	Range *Range

	// Keys and Exclude are used by ScalarObjectKeys: if Keys is nil,
	// emit all keys; else if Exclude is false emit only listed keys,
	// else emit every key not in the list.
	Keys    []string
	Exclude bool

	// Column is used by TabularColumn.
	Column string
}

// Namespace is one entry in a pipeline's namespace list.
type Namespace struct {
	Name string
	Mode Mode

	// StaticValues is used when Mode == Static: each (key, value) is
	// inserted at [Name, key] in the scalar store on execution start.
	StaticValues map[string]scalar.Value

	// StorePath, Source, IterVar, and IndexVar are used when
	// Mode == Iterative.
	StorePath storepath.Path
	Source    IteratorSource
	IterVar   string
	IndexVar  string
}

// EffectiveIterVar returns IterVar or its default, "item".
func (n Namespace) EffectiveIterVar() string {
	if n.IterVar == "" {
		return "item"
	}
	return n.IterVar
}

// EffectiveIndexVar returns IndexVar or its default, "index".
func (n Namespace) EffectiveIndexVar() string {
	if n.IndexVar == "" {
		return "index"
	}
	return n.IndexVar
}

// Resolve computes the iteration sequence for an Iterative namespace.
// scalarVal and tabularVal are, respectively, the scalar and tabular
// values found at n.StorePath (at most one is used, selected by
// n.Source.Kind); callers look up whichever applies before calling
// Resolve, since the two stores are separate (§3, §5: never lock both
// at once).
func (n Namespace) Resolve(scalarVal scalar.Value, scalarFound bool, tabularVal tabular.Value, tabularFound bool) ([]scalar.Value, error) {
	switch n.Source.Kind {
	case ScalarStringSplit:
		if !scalarFound {
			return nil, fmt.Errorf("namespace %q: iteration source path not found", n.Name)
		}
		s, ok := scalarVal.AsString()
		if !ok {
			return nil, fmt.Errorf("namespace %q: iteration source must be a string, got %s", n.Name, scalarVal.Kind())
		}
		delim := n.Source.Delimiter
		if delim == "" {
			delim = ","
		}
		parts := splitString(s, delim)
		out := make([]scalar.Value, len(parts))
		for i, p := range parts {
			out[i] = scalar.String(p)
		}
		return out, nil

	case ScalarArray:
		if !scalarFound {
			return nil, fmt.Errorf("namespace %q: iteration source path not found", n.Name)
		}
		arr, ok := scalarVal.AsArray()
		if !ok {
			return nil, fmt.Errorf("namespace %q: iteration source must be an array, got %s", n.Name, scalarVal.Kind())
		}
		start, end := n.Source.Range.clamp(len(arr))
		out := make([]scalar.Value, end-start)
		copy(out, arr[start:end])
		return out, nil

	case ScalarObjectKeys:
		if !scalarFound {
			return nil, fmt.Errorf("namespace %q: iteration source path not found", n.Name)
		}
		obj, ok := scalarVal.AsObject()
		if !ok {
			return nil, fmt.Errorf("namespace %q: iteration source must be an object, got %s", n.Name, scalarVal.Kind())
		}
		keys := selectObjectKeys(obj.Keys(), n.Source.Keys, n.Source.Exclude)
		out := make([]scalar.Value, len(keys))
		for i, k := range keys {
			out[i] = scalar.String(k)
		}
		return out, nil

	case TabularColumn:
		if !tabularFound {
			return nil, fmt.Errorf("namespace %q: iteration source path not found", n.Name)
		}
		vals, err := tabularVal.UniqueValues(n.Source.Column)
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", n.Name, err)
		}
		start, end := n.Source.Range.clamp(len(vals))
		out := make([]scalar.Value, end-start)
		copy(out, vals[start:end])
		return out, nil

	default:
		return nil, fmt.Errorf("namespace %q: unknown iterator source kind %v", n.Name, n.Source.Kind)
	}
}

func selectObjectKeys(allKeys, listed []string, exclude bool) []string {
	if listed == nil {
		out := make([]string, len(allKeys))
		copy(out, allKeys)
		return out
	}
	listedSet := make(map[string]struct{}, len(listed))
	for _, k := range listed {
		listedSet[k] = struct{}{}
	}
	var out []string
	for _, k := range allKeys {
		_, inList := listedSet[k]
		if exclude {
			if !inList {
				out = append(out, k)
			}
		} else {
			if inList {
				out = append(out, k)
			}
		}
	}
	return out
}

func splitString(s, delim string) []string {
	if delim == "" {
		return []string{s}
	}
	var out []string
	start := 0
	for i := 0; i+len(delim) <= len(s); i++ {
		if s[i:i+len(delim)] == delim {
			out = append(out, s[start:i])
			start = i + len(delim)
			i += len(delim) - 1
		}
	}
	out = append(out, s[start:])
	return out
}
