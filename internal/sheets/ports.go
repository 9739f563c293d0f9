package sheets

import (
	"context"

	"tricount/internal/core"
)

// Ports for outbound adapters.
type (
	// WorkbookWriter persists one workbook per registry. The tables are
	// written as sheets in the given order and the returned ref locates the
	// result (a file path, a spreadsheet URL, ...).
	WorkbookWriter interface {
		WriteWorkbook(ctx context.Context, dir, name string, tables []core.Table) (ref string, err error)
	}
)

// Grid lays a table out as rows of cells, header first. With rowIndex set
// every row gets a leading 0-based position column whose header is empty.
func Grid(t core.Table, rowIndex bool) [][]any {
	grid := make([][]any, 0, len(t.Rows)+1)

	header := make([]any, 0, len(t.Columns)+1)
	if rowIndex {
		header = append(header, "")
	}
	for _, c := range t.Columns {
		header = append(header, c)
	}
	grid = append(grid, header)

	for i, row := range t.Rows {
		cells := make([]any, 0, len(row)+1)
		if rowIndex {
			cells = append(cells, i)
		}
		cells = append(cells, row...)
		grid = append(grid, cells)
	}
	return grid
}
