package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is one ledger entry as the server keeps it.
// The dashboard never sees this struct directly; each row carries the JSON
// produced by Details instead.
type Transaction struct {
	ID      string
	Name    string
	Comment string // optional, empty when absent

	AmountReceived   decimal.Decimal
	AmountPaid       decimal.Decimal
	RemainingBalance decimal.Decimal // running balance after this entry

	Date civil.Date // wall-clock date in the ledger timezone
	Time civil.Time // wall-clock time in the ledger timezone

	CreatedAt time.Time
}

// Details is the per-row data blob rendered into the dashboard.
type Details struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Comment   string `json:"comment,omitempty"`
	Received  string `json:"received"`
	Paid      string `json:"paid"`
	Balance   string `json:"balance"`
	CreatedAt int64  `json:"created_at"`
}

// Details converts the transaction into its row blob representation.
// Amounts are rendered with two decimal places, the way the ledger stores them.
func (t Transaction) Details() Details {
	return Details{
		ID:        t.ID,
		Date:      t.Date.String(),
		Time:      FormatTime(t.Time),
		Name:      t.Name,
		Comment:   t.Comment,
		Received:  t.AmountReceived.StringFixed(2),
		Paid:      t.AmountPaid.StringFixed(2),
		Balance:   t.RemainingBalance.StringFixed(2),
		CreatedAt: t.CreatedAt.Unix(),
	}
}

// DetailsJSON marshals the row blob.
func (t Transaction) DetailsJSON() (string, error) {
	b, err := json.Marshal(t.Details())
	if err != nil {
		return "", fmt.Errorf("DetailsJSON: marshal %s: %w", t.ID, err)
	}
	return string(b), nil
}

// Stamp sets Date, Time and CreatedAt from now, using the wall clock of loc.
func (t *Transaction) Stamp(now time.Time, loc *time.Location) {
	local := now.In(loc)
	t.Date = civil.DateOf(local)
	t.Time = civil.TimeOf(local)
	t.CreatedAt = now
}

// FormatTime renders a wall-clock time as HH:MM.
func FormatTime(ct civil.Time) string {
	return fmt.Sprintf("%02d:%02d", ct.Hour, ct.Minute)
}
