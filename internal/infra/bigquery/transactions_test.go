package bigquery

import (
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRow_ToDomain(t *testing.T) {
	created := time.Date(2025, 8, 25, 5, 0, 0, 0, time.UTC)
	row := &TransactionRow{
		TransactionID:    "tx-1",
		Name:             "Groceries",
		Comment:          bigquery.NullString{StringVal: "weekly", Valid: true},
		AmountPaid:       big.NewRat(4250, 100),
		RemainingBalance: big.NewRat(-1, 4),
		TransactionDate:  civil.Date{Year: 2025, Month: time.August, Day: 25},
		TransactionTime:  civil.Time{Hour: 10, Minute: 0},
		CreatedTS:        created,
	}

	tx, err := row.ToDomain()
	require.NoError(t, err)

	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "weekly", tx.Comment)
	assert.True(t, tx.AmountReceived.IsZero())
	assert.Equal(t, "42.50", tx.AmountPaid.StringFixed(2))
	assert.Equal(t, "-0.25", tx.RemainingBalance.StringFixed(2))
	assert.Equal(t, "2025-08-25", tx.Date.String())
	assert.True(t, tx.CreatedAt.Equal(created))
}

func TestTransactionRow_ToDomain_NullComment(t *testing.T) {
	tx, err := (&TransactionRow{TransactionID: "tx-2", Name: "Fuel"}).ToDomain()
	require.NoError(t, err)
	assert.Empty(t, tx.Comment)
}

func TestTransactionRow_ToDomain_MissingID(t *testing.T) {
	_, err := (&TransactionRow{Name: "Fuel"}).ToDomain()
	assert.Error(t, err)
}

func TestTableRef(t *testing.T) {
	ref := TableRef{Project: "my-project", Dataset: "ledger", Table: "transactions"}
	require.NoError(t, ref.Validate())
	assert.Equal(t, "`my-project.ledger.transactions`", ref.String())

	bad := TableRef{Project: "p", Dataset: "ledger", Table: "t`; DROP"}
	assert.Error(t, bad.Validate())
	assert.Error(t, TableRef{}.Validate())
}
