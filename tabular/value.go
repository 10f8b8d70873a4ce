// Package tabular defines the narrow interface the core uses to treat
// a columnar table as an opaque handle (§3, §6), plus a small
// in-memory implementation used by tests and by callers that have no
// dataframe engine of their own.
//
// The real columnar dataframe implementation (CSV/JSON/Parquet
// readers, SQL execution, aggregation) is an out-of-scope collaborator
// per spec §1; this package only ships the writers result projection
// needs and a reference Table type sufficient to drive the engine's
// own tests end-to-end.
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dolly-parseton/Panopticon/scalar"
)

// Format is one of the three on-disk encodings result projection can
// write a tabular value to.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatParquet
)

// Ext returns the lowercase file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatParquet:
		return "parquet"
	default:
		return "bin"
	}
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return 0, fmt.Errorf("tabular: unknown format %q", s)
	}
}

// Value is the opaque tabular handle the core consumes: row/column
// counts, column name iteration and lookup, per-column unique values
// (for iterative namespaces, §4.5), and serialization.
type Value interface {
	RowCount() int
	ColumnCount() int
	ColumnNames() []string
	Column(name string) (Column, bool)

	// UniqueValues returns the distinct non-null values of column,
	// converted to scalar.Value per the kind-mapping rule in §4.5
	// (bool/int/uint/float/string preserved by kind; anything else
	// stringified).
	UniqueValues(column string) ([]scalar.Value, error)

	WriteCSV(w io.Writer) error
	WriteJSON(w io.Writer) error
	WriteParquet(w io.Writer) error
}

// Column is a single named column of a Value.
type Column interface {
	Name() string
	Len() int
	// ValueAt returns the row's value and false if the row is null.
	ValueAt(row int) (scalar.Value, bool)
}

// ErrParquetUnsupported is returned by Table.WriteParquet: no Parquet
// codec ships with the core (see SPEC_FULL.md §6). Callers that need
// Parquet output supply their own Value implementation.
var ErrParquetUnsupported = fmt.Errorf("tabular: parquet writing requires an engine-provided Value implementation")

// Table is a minimal in-memory Value backed by parallel column slices,
// with columns ordered by name. It is adequate for tests, fixtures, and
// embedding applications with no dataframe engine of their own.
type Table struct {
	names   []string
	columns map[string]*sliceColumn
	rows    int
}

type sliceColumn struct {
	name   string
	values []scalar.Value // Null entries mark a missing value
}

// NewTable builds a Table from named columns, each with the same
// length. Returns an error if column lengths disagree.
func NewTable(columns map[string][]scalar.Value) (*Table, error) {
	t := &Table{columns: make(map[string]*sliceColumn)}
	first := true
	for name, vals := range columns {
		if first {
			t.rows = len(vals)
			first = false
		} else if len(vals) != t.rows {
			return nil, fmt.Errorf("tabular: column %q has %d rows, expected %d", name, len(vals), t.rows)
		}
		t.names = append(t.names, name)
		t.columns[name] = &sliceColumn{name: name, values: vals}
	}
	sort.Strings(t.names)
	return t, nil
}

func (t *Table) RowCount() int    { return t.rows }
func (t *Table) ColumnCount() int { return len(t.names) }

func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Table) Column(name string) (Column, bool) {
	c, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	return c, true
}

func (c *sliceColumn) Name() string { return c.name }
func (c *sliceColumn) Len() int     { return len(c.values) }
func (c *sliceColumn) ValueAt(row int) (scalar.Value, bool) {
	if row < 0 || row >= len(c.values) {
		return scalar.Null(), false
	}
	v := c.values[row]
	return v, !v.IsNull()
}

// UniqueValues returns the distinct non-null values of column in
// first-seen order.
func (t *Table) UniqueValues(column string) ([]scalar.Value, error) {
	c, ok := t.columns[column]
	if !ok {
		return nil, fmt.Errorf("tabular: no such column %q", column)
	}
	seen := make(map[string]struct{})
	var out []scalar.Value
	for _, v := range c.values {
		if v.IsNull() {
			continue
		}
		key := fmt.Sprint(v.Native())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.names); err != nil {
		return err
	}
	for row := 0; row < t.rows; row++ {
		record := make([]string, len(t.names))
		for i, name := range t.names {
			v, ok := t.columns[name].ValueAt(row)
			if !ok {
				record[i] = ""
				continue
			}
			record[i] = fmt.Sprint(v.Native())
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as a JSON array of row objects.
func (t *Table) WriteJSON(w io.Writer) error {
	rows := make([]map[string]any, t.rows)
	for row := 0; row < t.rows; row++ {
		obj := make(map[string]any, len(t.names))
		for _, name := range t.names {
			v, ok := t.columns[name].ValueAt(row)
			if ok {
				obj[name] = v.Native()
			} else {
				obj[name] = nil
			}
		}
		rows[row] = obj
	}
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

// WriteParquet is unimplemented: see ErrParquetUnsupported.
func (t *Table) WriteParquet(io.Writer) error {
	return ErrParquetUnsupported
}
