package core

import (
	"encoding/json"
	"time"
)

// Wire shapes used by MarshalRegistry. Memberships are written flat and
// entries wrapped, which ParseRegistry accepts like any API response.
type (
	registryDocument struct {
		Response []registryItem `json:"Response"`
	}

	registryItem struct {
		Registry registryBody `json:"Registry"`
	}

	registryBody struct {
		ID          int64            `json:"id"`
		UUID        string           `json:"uuid"`
		Title       string           `json:"title"`
		Currency    string           `json:"currency"`
		Created     string           `json:"created"`
		Updated     string           `json:"updated"`
		Memberships []membershipBody `json:"memberships"`
		Entries     []entryWrapper   `json:"all_registry_entry"`
		Pagination  paginationBody   `json:"Pagination"`
	}

	aliasBody struct {
		DisplayName string `json:"display_name"`
	}

	membershipBody struct {
		ID     int64     `json:"id"`
		UUID   string    `json:"uuid"`
		Status string    `json:"status"`
		Alias  aliasBody `json:"alias"`
	}

	memberRefBody struct {
		UUID  string    `json:"uuid"`
		Alias aliasBody `json:"alias"`
	}

	amountBody struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	}

	entryWrapper struct {
		RegistryEntry entryBody `json:"RegistryEntry"`
	}

	entryBody struct {
		ID              int64            `json:"id"`
		UUID            string           `json:"uuid"`
		Created         string           `json:"created"`
		Date            string           `json:"date"`
		Description     string           `json:"description"`
		Amount          amountBody       `json:"amount"`
		Status          string           `json:"status"`
		Type            string           `json:"type"`
		TransactionType string           `json:"type_transaction"`
		MembershipOwned memberRefBody    `json:"membership_owned"`
		Allocations     []allocationBody `json:"allocations"`
		Category        string           `json:"category"`
	}

	allocationBody struct {
		Amount     amountBody    `json:"amount"`
		Membership memberRefBody `json:"membership"`
		Type       string        `json:"type"`
		ShareRatio *int64        `json:"share_ratio,omitempty"`
	}

	paginationBody struct {
		FutureURL *string `json:"future_url"`
		NewerURL  *string `json:"newer_url"`
		OlderURL  *string `json:"older_url"`
	}
)

// MarshalRegistry serializes r in the registry-fetch response shape.
// ParseRegistry(MarshalRegistry(r)) yields r again.
func MarshalRegistry(r Registry) ([]byte, error) {
	body := registryBody{
		ID:          r.ID,
		UUID:        r.UUID,
		Title:       r.Title,
		Currency:    r.Currency,
		Created:     formatTimestamp(r.Created),
		Updated:     formatTimestamp(r.Updated),
		Memberships: make([]membershipBody, 0, len(r.Members)),
		Entries:     make([]entryWrapper, 0, len(r.Entries)),
		Pagination: paginationBody{
			FutureURL: r.Pagination.FutureURL,
			NewerURL:  r.Pagination.NewerURL,
			OlderURL:  r.Pagination.OlderURL,
		},
	}
	for _, m := range r.Members {
		body.Memberships = append(body.Memberships, membershipBody{
			ID:     m.ID,
			UUID:   m.UUID,
			Status: m.Status,
			Alias:  aliasBody{DisplayName: m.DisplayName},
		})
	}
	for _, e := range r.Entries {
		eb := entryBody{
			ID:              e.ID,
			UUID:            e.UUID,
			Created:         formatTimestamp(e.Created),
			Date:            formatTimestamp(e.Date),
			Description:     e.Description,
			Amount:          toAmountBody(e.Amount),
			Status:          e.Status,
			Type:            string(e.Type),
			TransactionType: string(e.TransactionType),
			MembershipOwned: memberRefBody{UUID: e.PayerUUID, Alias: aliasBody{DisplayName: e.PayerName}},
			Allocations:     make([]allocationBody, 0, len(e.Allocations)),
			Category:        e.Category,
		}
		for _, a := range e.Allocations {
			eb.Allocations = append(eb.Allocations, allocationBody{
				Amount:     toAmountBody(a.Amount),
				Membership: memberRefBody{UUID: a.MemberUUID, Alias: aliasBody{DisplayName: a.MemberName}},
				Type:       string(a.Type),
				ShareRatio: a.ShareRatio,
			})
		}
		body.Entries = append(body.Entries, entryWrapper{RegistryEntry: eb})
	}
	return json.MarshalIndent(registryDocument{Response: []registryItem{{Registry: body}}}, "", "  ")
}

func toAmountBody(a Amount) amountBody {
	return amountBody{Value: formatDecimal(a.Value), Currency: a.Currency}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
