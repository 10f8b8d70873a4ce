// Package result implements result projection (§4.10): turning a
// Completed pipeline's ExecutionContext into per-command metadata and
// data, including serializing tabular values to disk.
package result

import (
	"fmt"
	"os"

	"github.com/dolly-parseton/Panopticon/namespace"
	"github.com/dolly-parseton/Panopticon/pipeline"
	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/tabular"
)

// Settings configures a projection pass.
type Settings struct {
	OutputPath       string
	Format           tabular.Format
	ExcludedCommands []storepath.Path
}

// ScalarEntry is a projected non-tabular result value.
type ScalarEntry struct {
	Kind  specdef.ResultKind
	Value scalar.Value
}

// TabularEntry is a projected tabular result, recording where it was
// written rather than the data itself.
type TabularEntry struct {
	Path        string
	Format      tabular.Format
	RowCount    int
	ColumnCount int
}

// CommandResults is one per-source record: a command's projected
// metadata and data, keyed by full StorePath (dotted string).
type CommandResults struct {
	Source storepath.Path
	Meta   map[string]ScalarEntry
	Data   map[string]any // ScalarEntry or TabularEntry
}

// Store is the full projection output: per-source records in
// command insertion order, plus by-source lookup.
type Store struct {
	records  []CommandResults
	bySource map[string]*CommandResults
}

// Records returns all per-source result records in order.
func (s *Store) Records() []CommandResults { return s.records }

// BySource returns the record for source, if any.
func (s *Store) BySource(source storepath.Path) (*CommandResults, bool) {
	r, ok := s.bySource[source.String()]
	return r, ok
}

func (s *Store) append(rec CommandResults) {
	s.records = append(s.records, rec)
	if s.bySource == nil {
		s.bySource = make(map[string]*CommandResults)
	}
	// store a stable pointer into the slice's backing array is unsafe
	// across further appends, so index by value copy instead.
	cp := rec
	s.bySource[rec.Source.String()] = &cp
}

// resolvedField is one (name, kind, type) triple a ResultSpec expands
// to at projection time.
type resolvedField struct {
	name string
	kind specdef.ResultKind
	typ  specdef.TypeDef
}

// Project runs §4.10 over completed, producing a Store.
func Project(completed *pipeline.Completed, settings Settings) (*Store, error) {
	if settings.OutputPath != "" {
		if err := os.MkdirAll(settings.OutputPath, 0o755); err != nil {
			return nil, fmt.Errorf("result: create output path: %w", err)
		}
	}

	ctx := completed.Context()
	if ctx == nil {
		return nil, fmt.Errorf("result: pipeline has not been executed")
	}
	namespaces := completed.Namespaces()
	commands := completed.Commands()

	store := &Store{}

	for _, cmd := range commands {
		ns := namespaces[cmd.NamespaceIndex]
		base := storepath.MustNew(ns.Name, cmd.StepName)

		if isExcluded(base, settings.ExcludedCommands) {
			continue
		}

		sources, err := resolveSourcePaths(completed, cmd, ns, base)
		if err != nil {
			return nil, fmt.Errorf("result: namespace %q command %q: %w", ns.Name, cmd.StepName, err)
		}

		for _, source := range sources {
			rec := CommandResults{
				Source: source,
				Meta:   make(map[string]ScalarEntry),
				Data:   make(map[string]any),
			}

			fields, err := resolveFields(cmd)
			if err != nil {
				return nil, fmt.Errorf("result: namespace %q command %q: %w", ns.Name, cmd.StepName, err)
			}

			for _, f := range fields {
				fieldPath := source.Append(f.name)
				if _, isTabular := f.typ.(specdef.Tabular); isTabular {
					if err := projectTabular(ctx, settings, fieldPath, f, &rec); err != nil {
						return nil, fmt.Errorf("result: %q: %w", fieldPath.String(), err)
					}
					continue
				}
				projectScalar(ctx, fieldPath, f, &rec)
			}

			store.append(rec)
		}
	}

	return store, nil
}

func isExcluded(base storepath.Path, excluded []storepath.Path) bool {
	for _, e := range excluded {
		if base.HasPrefix(e) {
			return true
		}
	}
	return false
}

// resolveSourcePaths implements the Once/Static vs Iterative source
// determination (§4.10), using the pipeline's observed max iteration
// index as a fast path and falling back to gap-probing the status
// meta scalar when no index was recorded (e.g. the namespace ran zero
// iterations, or results are being computed against a context built
// outside this package's own Execute call).
func resolveSourcePaths(completed *pipeline.Completed, cmd pipeline.CommandSpec, ns namespace.Namespace, base storepath.Path) ([]storepath.Path, error) {
	if ns.Mode != namespace.Iterative {
		return []storepath.Path{base}, nil
	}

	ctx := completed.Context()
	if maxIdx, hasMax := completed.MaxIterationIndex(cmd.NamespaceIndex); hasMax {
		out := make([]storepath.Path, 0, maxIdx+1)
		for i := 0; i <= maxIdx; i++ {
			out = append(out, base.AppendIndex(i))
		}
		return out, nil
	}

	var out []storepath.Path
	for i := 0; ; i++ {
		candidate := base.AppendIndex(i)
		if _, ok := ctx.Scalars.Get(candidate.Append("status")); !ok {
			break
		}
		out = append(out, candidate)
	}
	return out, nil
}
