package bigquery

import (
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow is one row of the ledger transactions table.
type TransactionRow struct {
	TransactionID string              `bigquery:"transaction_id"` // REQUIRED
	Name          string              `bigquery:"name"`           // REQUIRED
	Comment       bigquery.NullString `bigquery:"comment"`        // NULLABLE

	AmountReceived   *big.Rat `bigquery:"amount_received"`   // NULLABLE NUMERIC
	AmountPaid       *big.Rat `bigquery:"amount_paid"`       // NULLABLE NUMERIC
	RemainingBalance *big.Rat `bigquery:"remaining_balance"` // NULLABLE NUMERIC

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED, ledger timezone
	TransactionTime civil.Time `bigquery:"transaction_time"` // REQUIRED, ledger timezone

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// ToDomain converts the row. NULL amounts become zero.
func (r *TransactionRow) ToDomain() (domain.Transaction, error) {
	if r.TransactionID == "" {
		return domain.Transaction{}, fmt.Errorf("ToDomain: missing transaction_id")
	}
	tx := domain.Transaction{
		ID:        r.TransactionID,
		Name:      r.Name,
		Date:      r.TransactionDate,
		Time:      r.TransactionTime,
		CreatedAt: r.CreatedTS,
	}
	if r.Comment.Valid {
		tx.Comment = r.Comment.StringVal
	}

	var err error
	if tx.AmountReceived, err = ratToDecimal(r.AmountReceived); err != nil {
		return domain.Transaction{}, fmt.Errorf("ToDomain: %s: amount_received: %w", r.TransactionID, err)
	}
	if tx.AmountPaid, err = ratToDecimal(r.AmountPaid); err != nil {
		return domain.Transaction{}, fmt.Errorf("ToDomain: %s: amount_paid: %w", r.TransactionID, err)
	}
	if tx.RemainingBalance, err = ratToDecimal(r.RemainingBalance); err != nil {
		return domain.Transaction{}, fmt.Errorf("ToDomain: %s: remaining_balance: %w", r.TransactionID, err)
	}
	return tx, nil
}

// ratToDecimal converts a NUMERIC value. BigQuery NUMERIC has nine decimal
// digits of scale, so nothing is lost at that precision.
func ratToDecimal(r *big.Rat) (decimal.Decimal, error) {
	if r == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(r.FloatString(9))
}
