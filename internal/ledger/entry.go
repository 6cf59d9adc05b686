package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is a new transaction as typed into the add form.
type Entry struct {
	Name     string
	Comment  string
	Received decimal.Decimal
	Paid     decimal.Decimal
}

// ParseEntry validates the add form. Empty amounts count as zero; at least one
// of received and paid must be non-zero, and neither may be negative.
func ParseEntry(name, comment, received, paid string) (Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, fmt.Errorf("ParseEntry: name is required")
	}
	r, err := parseFormAmount("received", received)
	if err != nil {
		return Entry{}, err
	}
	p, err := parseFormAmount("paid", paid)
	if err != nil {
		return Entry{}, err
	}
	if r.IsZero() && p.IsZero() {
		return Entry{}, ErrEmptyEntry
	}
	return Entry{Name: name, Comment: strings.TrimSpace(comment), Received: r, Paid: p}, nil
}

// CheckBalance rejects a positive paid amount above current, the balance of the
// most recent transaction, with *OverdraftError.
func CheckBalance(paid, current decimal.Decimal) error {
	if paid.IsPositive() && paid.GreaterThan(current) {
		return &OverdraftError{Balance: current}
	}
	return nil
}

func parseFormAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseEntry: %s amount %q: %w", field, raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("ParseEntry: %s amount must not be negative", field)
	}
	return d.Round(2), nil
}
