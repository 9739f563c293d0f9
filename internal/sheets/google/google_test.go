package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tricount/internal/core"
)

func TestNewSpreadsheet(t *testing.T) {
	tables := []core.Table{{Name: core.TableMembers}, {Name: core.TableEntries}, {Name: core.TableAllocations}, {Name: core.TableBalances}}
	ss := newSpreadsheet("test_trip_1", tables)

	assert.Equal(t, "test_trip_1", ss.Properties.Title)
	require.Len(t, ss.Sheets, 4)
	for i, s := range ss.Sheets {
		assert.Equal(t, tables[i].Name, s.Properties.Title)
		assert.Equal(t, int64(i), s.Properties.Index)
	}
}

func TestValuesRequest(t *testing.T) {
	date := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	tables := []core.Table{
		{Name: core.TableEntries, Columns: []string{"entry_id", "date", "amount"}, Rows: [][]any{{int64(101), date, 60.0}}},
		{Name: core.TableBalances, Columns: []string{"member", "balance"}, Rows: [][]any{}},
	}

	req := valuesRequest(tables, true)
	assert.Equal(t, "RAW", req.ValueInputOption)
	require.Len(t, req.Data, 2)

	assert.Equal(t, "'entries'!A1", req.Data[0].Range)
	assert.Equal(t, [][]interface{}{
		{"", "entry_id", "date", "amount"},
		{0, int64(101), "2024-03-02 12:00:00", 60.0},
	}, req.Data[0].Values)

	assert.Equal(t, "'balances'!A1", req.Data[1].Range)
	assert.Equal(t, [][]interface{}{{"", "member", "balance"}}, req.Data[1].Values)
}

func TestA1Start(t *testing.T) {
	assert.Equal(t, "'members'!A1", a1Start("members"))
	assert.Equal(t, "'bob''s'!A1", a1Start("bob's"))
}

func TestToCells_NormalizesTimeZone(t *testing.T) {
	rome := time.FixedZone("CET", 3600)
	cells := toCells([]any{time.Date(2024, 3, 2, 13, 0, 0, 0, rome), true})
	assert.Equal(t, []interface{}{"2024-03-02 12:00:00", true}, cells)
}

func TestLoadCredentials(t *testing.T) {
	ctx := context.Background()

	data, err := loadCredentials(ctx, Credentials{JSON: ` {"type":"service_account"} `, File: "/ignored"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(data))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o600))
	data, err = loadCredentials(ctx, Credentials{File: path})
	require.NoError(t, err)
	assert.Equal(t, `{"from":"file"}`, string(data))

	_, err = loadCredentials(ctx, Credentials{File: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	_, err = loadCredentials(ctx, Credentials{})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestWriteWorkbook_Uninitialized(t *testing.T) {
	_, err := (&Client{}).WriteWorkbook(context.Background(), "", "x", []core.Table{{Name: "members"}})
	assert.ErrorContains(t, err, "not initialized")
}
