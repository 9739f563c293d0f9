package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tricount/internal/core"
)

func sampleTables() []core.Table {
	return []core.Table{
		{
			Name:    core.TableMembers,
			Columns: []string{"member_id", "member_name"},
			Rows:    [][]any{{int64(11), "Alice"}, {int64(12), "Bob"}},
		},
		{
			Name:    core.TableEntries,
			Columns: []string{"entry_id", "date", "amount", "is_reimbursement"},
			Rows:    [][]any{{int64(101), time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC), 60.0, false}},
		},
		{
			Name:    core.TableAllocations,
			Columns: []string{"entry_id", "participant"},
			Rows:    [][]any{},
		},
		{
			Name:    core.TableBalances,
			Columns: []string{"member", "balance"},
			Rows:    [][]any{{"Alice", 7.25}, {"Bob", -7.25}},
		},
	}
}

func TestWriteWorkbook(t *testing.T) {
	dir := t.TempDir()
	w := New(true)

	path, err := w.WriteWorkbook(context.Background(), dir, "test_trip_1", sampleTables())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_trip_1.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"members", "entries", "allocations", "balances"}, f.GetSheetList())

	rows, err := f.GetRows("members")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"", "member_id", "member_name"},
		{"0", "11", "Alice"},
		{"1", "12", "Bob"},
	}, rows)

	rows, err = f.GetRows("balances")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Bob", "-7.25"}, rows[2])

	rows, err = f.GetRows("allocations")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"", "entry_id", "participant"}}, rows)

	rows, err = f.GetRows("entries")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "101", rows[1][1])
	assert.Equal(t, "FALSE", rows[1][4])
}

func TestWriteWorkbook_WithoutRowIndex(t *testing.T) {
	dir := t.TempDir()
	path, err := New(false).WriteWorkbook(context.Background(), dir, "plain", sampleTables())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("members")
	require.NoError(t, err)
	assert.Equal(t, []string{"member_id", "member_name"}, rows[0])
	assert.Equal(t, []string{"11", "Alice"}, rows[1])
}

func TestWriteWorkbook_Overwrites(t *testing.T) {
	dir := t.TempDir()
	w := New(true)
	_, err := w.WriteWorkbook(context.Background(), dir, "same", sampleTables())
	require.NoError(t, err)

	tables := sampleTables()
	tables[0].Rows = tables[0].Rows[:1]
	path, err := w.WriteWorkbook(context.Background(), dir, "same", tables)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("members")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWriteWorkbook_Errors(t *testing.T) {
	w := New(true)

	_, err := w.WriteWorkbook(context.Background(), filepath.Join(t.TempDir(), "missing"), "x", sampleTables())
	assert.Error(t, err, "directory is not created")

	_, err = w.WriteWorkbook(context.Background(), t.TempDir(), "x", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	_, err = w.WriteWorkbook(ctx, dir, "x", sampleTables())
	assert.ErrorIs(t, err, context.Canceled)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
