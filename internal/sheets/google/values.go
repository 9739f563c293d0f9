package google

import (
	"fmt"
	"strings"
	"time"

	"tricount/internal/core"
	ports "tricount/internal/sheets"

	gsheet "google.golang.org/api/sheets/v4"
)

const dateLayout = "2006-01-02 15:04:05"

func newSpreadsheet(title string, tables []core.Table) *gsheet.Spreadsheet {
	ss := &gsheet.Spreadsheet{
		Properties: &gsheet.SpreadsheetProperties{Title: title},
	}
	for i, t := range tables {
		ss.Sheets = append(ss.Sheets, &gsheet.Sheet{
			Properties: &gsheet.SheetProperties{Title: t.Name, Index: int64(i)},
		})
	}
	return ss
}

func valuesRequest(tables []core.Table, rowIndex bool) *gsheet.BatchUpdateValuesRequest {
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, t := range tables {
		grid := ports.Grid(t, rowIndex)
		values := make([][]interface{}, 0, len(grid))
		for _, row := range grid {
			values = append(values, toCells(row))
		}
		req.Data = append(req.Data, &gsheet.ValueRange{
			Range:  a1Start(t.Name),
			Values: values,
		})
	}
	return req
}

// toCells converts values the JSON encoder of the API client cannot send
// as-is. Times become plain UTC timestamps.
func toCells(row []any) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		switch v := v.(type) {
		case time.Time:
			out[i] = v.UTC().Format(dateLayout)
		case fmt.Stringer:
			out[i] = v.String()
		default:
			out[i] = v
		}
	}
	return out
}

// a1Start addresses the top-left cell of a tab, quoting the name.
func a1Start(sheet string) string {
	return fmt.Sprintf("'%s'!A1", strings.ReplaceAll(sheet, "'", "''"))
}
