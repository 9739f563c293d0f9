package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Sheet names, in export order.
const (
	TableMembers     = "members"
	TableEntries     = "entries"
	TableAllocations = "allocations"
	TableBalances    = "balances"
)

var (
	memberColumns     = []string{"member_id", "member_uuid", "member_name", "status"}
	entryColumns      = []string{"entry_id", "date", "description", "amount", "currency", "payer", "is_reimbursement", "category"}
	allocationColumns = []string{"entry_id", "date", "description", "payer", "is_reimbursement", "participant", "share", "currency"}
	balanceColumns    = []string{"member", "balance"}
)

// Table is a named, column-ordered view ready for a spreadsheet writer.
// Cell values are int64, float64, bool, string or time.Time.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

type (
	MemberRow struct {
		MemberID   int64
		MemberUUID string
		MemberName string
		Status     string
	}

	EntryRow struct {
		EntryID         int64
		Date            time.Time
		Description     string
		Amount          decimal.Decimal
		Currency        string
		Payer           string
		IsReimbursement bool
		Category        string
	}

	AllocationRow struct {
		EntryID         int64
		Date            time.Time
		Description     string
		Payer           string
		IsReimbursement bool
		Participant     string
		Share           decimal.Decimal
		Currency        string
	}

	BalanceRow struct {
		Member  string
		Balance decimal.Decimal
	}
)

// Tables derives the four export tables: members, entries, allocations and
// balances. They are computed on every call.
func (r Registry) Tables() ([]Table, error) {
	balances, err := r.Balances()
	if err != nil {
		return nil, err
	}

	members := Table{Name: TableMembers, Columns: memberColumns, Rows: [][]any{}}
	for _, m := range r.MemberRows() {
		members.Rows = append(members.Rows, []any{m.MemberID, m.MemberUUID, m.MemberName, m.Status})
	}

	entries := Table{Name: TableEntries, Columns: entryColumns, Rows: [][]any{}}
	for _, e := range r.EntryRows() {
		entries.Rows = append(entries.Rows, []any{
			e.EntryID, e.Date, e.Description, e.Amount.InexactFloat64(),
			e.Currency, e.Payer, e.IsReimbursement, e.Category,
		})
	}

	allocations := Table{Name: TableAllocations, Columns: allocationColumns, Rows: [][]any{}}
	for _, a := range r.AllocationRows() {
		allocations.Rows = append(allocations.Rows, []any{
			a.EntryID, a.Date, a.Description, a.Payer, a.IsReimbursement,
			a.Participant, a.Share.InexactFloat64(), a.Currency,
		})
	}

	balanceTable := Table{Name: TableBalances, Columns: balanceColumns, Rows: [][]any{}}
	for _, b := range balances {
		balanceTable.Rows = append(balanceTable.Rows, []any{b.Member, b.Balance.InexactFloat64()})
	}

	return []Table{members, entries, allocations, balanceTable}, nil
}

// MemberRows lists members in registry order.
func (r Registry) MemberRows() []MemberRow {
	rows := make([]MemberRow, 0, len(r.Members))
	for _, m := range r.Members {
		rows = append(rows, MemberRow{
			MemberID:   m.ID,
			MemberUUID: m.UUID,
			MemberName: m.DisplayName,
			Status:     m.Status,
		})
	}
	return rows
}

// EntryRows lists entries by ascending date; entries sharing a date keep
// their registry order.
func (r Registry) EntryRows() []EntryRow {
	rows := make([]EntryRow, 0, len(r.Entries))
	for _, e := range r.sortedEntries() {
		rows = append(rows, EntryRow{
			EntryID:         e.ID,
			Date:            e.Date,
			Description:     e.Description,
			Amount:          e.Amount.Abs(),
			Currency:        e.Amount.Currency,
			Payer:           e.PayerName,
			IsReimbursement: e.IsReimbursement(),
			Category:        e.Category,
		})
	}
	return rows
}

// AllocationRows flattens every allocation with its entry's context, ordered
// like EntryRows.
func (r Registry) AllocationRows() []AllocationRow {
	var rows []AllocationRow
	for _, e := range r.sortedEntries() {
		for _, a := range e.Allocations {
			rows = append(rows, AllocationRow{
				EntryID:         e.ID,
				Date:            e.Date,
				Description:     e.Description,
				Payer:           e.PayerName,
				IsReimbursement: e.IsReimbursement(),
				Participant:     a.MemberName,
				Share:           a.Amount.Abs(),
				Currency:        a.Amount.Currency,
			})
		}
	}
	if rows == nil {
		rows = []AllocationRow{}
	}
	return rows
}

// Balances computes each member's net position: what they paid minus what
// was allocated to them, across every entry including reimbursements.
// Results are rounded half-to-even to cents and sorted by descending
// balance; ties keep member order.
func (r Registry) Balances() ([]BalanceRow, error) {
	order := make([]string, 0, len(r.Members))
	acc := make(map[string]*decimal.Decimal, len(r.Members))
	for _, m := range r.Members {
		if _, ok := acc[m.DisplayName]; ok {
			continue
		}
		zero := decimal.Zero
		acc[m.DisplayName] = &zero
		order = append(order, m.DisplayName)
	}

	for _, e := range r.Entries {
		payer, ok := acc[e.PayerName]
		if !ok {
			return nil, &UnknownMemberError{Name: e.PayerName, EntryID: e.ID}
		}
		*payer = payer.Add(e.Amount.Abs())
		for _, a := range e.Allocations {
			cell, ok := acc[a.MemberName]
			if !ok {
				return nil, &UnknownMemberError{Name: a.MemberName, EntryID: e.ID}
			}
			*cell = cell.Sub(a.Amount.Abs())
		}
	}

	rows := make([]BalanceRow, 0, len(order))
	for _, name := range order {
		rows = append(rows, BalanceRow{Member: name, Balance: acc[name].RoundBank(2)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Balance.GreaterThan(rows[j].Balance)
	})
	return rows, nil
}

func (r Registry) sortedEntries() []Entry {
	entries := append([]Entry(nil), r.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}
