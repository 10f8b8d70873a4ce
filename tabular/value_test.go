package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dolly-parseton/Panopticon/scalar"
)

func mustTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(map[string][]scalar.Value{
		"id":   {scalar.Int(1), scalar.Int(2), scalar.Int(2)},
		"name": {scalar.String("a"), scalar.String("b"), scalar.String("b")},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestTableCounts(t *testing.T) {
	tbl := mustTable(t)
	if tbl.RowCount() != 3 {
		t.Errorf("RowCount = %d", tbl.RowCount())
	}
	if tbl.ColumnCount() != 2 {
		t.Errorf("ColumnCount = %d", tbl.ColumnCount())
	}
}

func TestTableUniqueValues(t *testing.T) {
	tbl := mustTable(t)
	vals, err := tbl.UniqueValues("id")
	if err != nil {
		t.Fatalf("UniqueValues: %v", err)
	}
	if len(vals) != 2 {
		t.Fatalf("expected 2 unique values, got %d", len(vals))
	}
}

func TestTableMismatchedColumnLengths(t *testing.T) {
	_, err := NewTable(map[string][]scalar.Value{
		"a": {scalar.Int(1)},
		"b": {scalar.Int(1), scalar.Int(2)},
	})
	if err == nil {
		t.Error("expected error for mismatched column lengths")
	}
}

func TestTableWriteCSV(t *testing.T) {
	tbl := mustTable(t)
	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "id,name") {
		t.Errorf("missing header: %q", out)
	}
}

func TestTableWriteJSON(t *testing.T) {
	tbl := mustTable(t)
	var buf bytes.Buffer
	if err := tbl.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"id"`) {
		t.Errorf("missing field: %q", buf.String())
	}
}

func TestTableWriteParquetUnsupported(t *testing.T) {
	tbl := mustTable(t)
	var buf bytes.Buffer
	if err := tbl.WriteParquet(&buf); err != ErrParquetUnsupported {
		t.Errorf("expected ErrParquetUnsupported, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	if err != nil || f != FormatJSON {
		t.Errorf("got %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
