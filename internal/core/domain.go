package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	EntryManual EntryType = "MANUAL"

	TransactionNormal  TransactionType = "NORMAL"
	TransactionBalance TransactionType = "BALANCE"

	AllocationRatio  AllocationType = "RATIO"
	AllocationAmount AllocationType = "AMOUNT"

	// DefaultCategory is used when an entry carries no category field at all.
	DefaultCategory = "UNCATEGORIZED"
)

type (
	EntryType       string
	TransactionType string
	AllocationType  string

	Member struct {
		ID          int64
		UUID        string
		DisplayName string
		Status      string
	}

	Allocation struct {
		Amount     Amount
		MemberUUID string
		MemberName string
		Type       AllocationType
		ShareRatio *int64 // only set for RATIO allocations
	}

	Entry struct {
		ID              int64
		UUID            string
		Created         time.Time
		Date            time.Time
		Description     string
		Amount          Amount
		Status          string
		Type            EntryType
		TransactionType TransactionType
		PayerUUID       string
		PayerName       string
		Allocations     []Allocation
		Category        string
	}

	Pagination struct {
		FutureURL *string
		NewerURL  *string
		OlderURL  *string
	}

	// Registry is a shared expense ledger as returned by the Tricount API.
	Registry struct {
		ID         int64
		UUID       string
		Title      string
		Currency   string
		Created    time.Time
		Updated    time.Time
		Members    []Member
		Entries    []Entry
		Pagination Pagination
	}
)

var (
	ErrMalformedResponse = errors.New("malformed registry response")
	ErrUnknownMember     = errors.New("unknown member")
)

// MalformedResponseError reports a registry document that does not have the
// expected shape. Path locates the offending field.
type MalformedResponseError struct {
	Path   string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedResponse, e.Path, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// UnknownMemberError is returned when an entry or allocation names a member
// that is not part of the registry.
type UnknownMemberError struct {
	Name    string
	EntryID int64
}

func (e *UnknownMemberError) Error() string {
	return fmt.Sprintf("%s %q referenced by entry %d", ErrUnknownMember, e.Name, e.EntryID)
}

func (e *UnknownMemberError) Is(target error) bool {
	return target == ErrUnknownMember
}

func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(s); t {
	case EntryManual:
		return t, nil
	default:
		return "", fmt.Errorf("invalid entry type %q", s)
	}
}

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionNormal, TransactionBalance:
		return t, nil
	default:
		return "", fmt.Errorf("invalid transaction type %q", s)
	}
}

func ParseAllocationType(s string) (AllocationType, error) {
	switch t := AllocationType(s); t {
	case AllocationRatio, AllocationAmount:
		return t, nil
	default:
		return "", fmt.Errorf("invalid allocation type %q", s)
	}
}

// IsReimbursement reports whether the entry settles a balance rather than
// recording a new shared expense.
func (e Entry) IsReimbursement() bool {
	switch e.TransactionType {
	case TransactionBalance:
		return true
	case TransactionNormal:
		return false
	default:
		return false
	}
}
