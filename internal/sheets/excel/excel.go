// Package excel writes registry tables to local .xlsx workbooks.
package excel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"tricount/internal/core"
	ports "tricount/internal/sheets"
)

const defaultSheet = "Sheet1"

// Writer saves one workbook file per call into an existing directory.
type Writer struct {
	rowIndex bool
}

var _ ports.WorkbookWriter = (*Writer)(nil)

// New returns a Writer. rowIndex adds the leading 0-based row position column
// to every sheet.
func New(rowIndex bool) *Writer {
	return &Writer{rowIndex: rowIndex}
}

// WriteWorkbook saves tables to {dir}/{name}.xlsx, replacing any file already
// there, and returns the path.
func (w *Writer) WriteWorkbook(ctx context.Context, dir, name string, tables []core.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", errors.New("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return "", fmt.Errorf("rename sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", t.Name, err)
		}

		for r, cells := range ports.Grid(t, w.rowIndex) {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return "", err
			}
			if err := f.SetSheetRow(t.Name, cell, &cells); err != nil {
				return "", fmt.Errorf("write %s row %d: %w", t.Name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	path := filepath.Join(dir, name+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	slog.DebugContext(ctx, "Workbook written", "path", path, "sheets", len(tables))
	return path, nil
}
