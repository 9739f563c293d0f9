package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tricount/internal/core"
)

func TestGrid(t *testing.T) {
	table := core.Table{
		Name:    core.TableBalances,
		Columns: []string{"member", "balance"},
		Rows:    [][]any{{"Alice", 7.25}, {"Bob", -7.25}},
	}

	assert.Equal(t, [][]any{
		{"", "member", "balance"},
		{0, "Alice", 7.25},
		{1, "Bob", -7.25},
	}, Grid(table, true))

	assert.Equal(t, [][]any{
		{"member", "balance"},
		{"Alice", 7.25},
		{"Bob", -7.25},
	}, Grid(table, false))
}

func TestGrid_EmptyTableKeepsHeader(t *testing.T) {
	table := core.Table{Name: core.TableEntries, Columns: []string{"entry_id"}, Rows: [][]any{}}
	assert.Equal(t, [][]any{{"", "entry_id"}}, Grid(table, true))
}
