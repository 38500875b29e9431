package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements SheetWriter by writing a workbook file, one worksheet per sheet.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter that replaces the workbook at path on every write.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write builds the workbook in a temporary file next to path and renames it into place.
func (w *XLSXWriter) Write(ctx context.Context, tables []Sheet) error {
	if len(tables) == 0 {
		return fmt.Errorf("writing workbook %s: no sheets", w.path)
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx, err := f.NewSheet(table.Name)
		if err != nil {
			return fmt.Errorf("creating sheet %s: %w", table.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeRows(f, table); err != nil {
			return err
		}
		if len(table.Rows) > 0 {
			if err := f.SetRowStyle(table.Name, 1, 1, header); err != nil {
				return fmt.Errorf("styling sheet %s: %w", table.Name, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	// The temporary name keeps the extension excelize derives the file format from.
	tmp := filepath.Join(filepath.Dir(w.path), ".tmp-"+filepath.Base(w.path))
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing workbook %s: %w", w.path, err)
	}
	return nil
}

func writeRows(f *excelize.File, table Sheet) error {
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("sheet %s row %d: %w", table.Name, i+1, err)
		}
		if err := f.SetSheetRow(table.Name, cell, &row); err != nil {
			return fmt.Errorf("writing sheet %s row %d: %w", table.Name, i+1, err)
		}
	}
	return nil
}
