package result

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dolly-parseton/Panopticon/store"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/tabular"
)

// projectTabular serializes the tabular value at fieldPath to
// <output_path>/<field_path.dotted>.<ext> and records a TabularEntry
// in rec.Data. A missing tabular value is not an error: the declared
// result simply contributes nothing, matching the scalar path's "on
// hit, place it" wording in §4.10.
func projectTabular(ctx *store.ExecutionContext, settings Settings, fieldPath storepath.Path, f resolvedField, rec *CommandResults) error {
	tv, ok := ctx.Tabulars.Get(fieldPath.String())
	if !ok {
		return nil
	}

	ext := settings.Format.Ext()
	outFile := filepath.Join(settings.OutputPath, fieldPath.String()+"."+ext)

	file, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create %q: %w", outFile, err)
	}
	defer file.Close()

	switch settings.Format {
	case tabular.FormatCSV:
		err = tv.WriteCSV(file)
	case tabular.FormatJSON:
		err = tv.WriteJSON(file)
	default:
		err = tv.WriteParquet(file)
	}
	if err != nil {
		return fmt.Errorf("write %q: %w", outFile, err)
	}

	entry := TabularEntry{
		Path:        outFile,
		Format:      settings.Format,
		RowCount:    tv.RowCount(),
		ColumnCount: tv.ColumnCount(),
	}
	rec.Data[fieldPath.String()] = entry
	return nil
}
