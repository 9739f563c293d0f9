package core

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a signed monetary value in a given currency. The sign comes from
// the source and carries no meaning for the exported tables.
type Amount struct {
	Currency string
	Value    decimal.Decimal
}

// NewAmount builds an Amount from a decimal string such as "-12.50".
func NewAmount(currency, value string) (Amount, error) {
	d, err := parseDecimal(value)
	if err != nil {
		return Amount{}, err
	}
	a := Amount{Currency: currency, Value: d}
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// MustAmount is NewAmount for literals known to be valid.
func MustAmount(currency, value string) Amount {
	a, err := NewAmount(currency, value)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Validate() error {
	if strings.TrimSpace(a.Currency) == "" {
		return errors.New("empty currency")
	}
	return nil
}

// Abs returns the magnitude of the amount.
func (a Amount) Abs() decimal.Decimal {
	return a.Value.Abs()
}

// parseDecimal accepts a plain dot-separated decimal. Grouping commas are
// rejected rather than guessed at.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// decodeDecimal reads an amount value that the API sends either as a JSON
// string or as a bare number.
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseDecimal(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return parseDecimal(n.String())
}

// formatDecimal keeps the scale of d so a parsed value serializes back to the
// same digits ("12.50" stays "12.50").
func formatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
