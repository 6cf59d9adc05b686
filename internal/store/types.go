package store

import (
	"context"
	"errors"

	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a transaction id is unknown.
var ErrNotFound = errors.New("transaction not found")

// NewTransaction is the input of AddTransaction. The store assigns the id,
// stamps date, time and creation instant, and computes the running balance.
type NewTransaction struct {
	Name     string
	Comment  string
	Received decimal.Decimal
	Paid     decimal.Decimal

	// RequireFunds rejects the entry with *ledger.OverdraftError when Paid
	// exceeds the balance of the most recent transaction.
	RequireFunds bool
}

// Repository persists ledger transactions.
type Repository interface {
	// AddTransaction appends a transaction and returns it as stored.
	AddTransaction(ctx context.Context, in NewTransaction) (domain.Transaction, error)

	// ListTransactions returns every transaction, newest first.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// GetTransaction returns one transaction or ErrNotFound.
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)

	// DeleteTransaction removes a transaction and recomputes the running
	// balances of the remaining ones. Unknown ids yield ErrNotFound.
	DeleteTransaction(ctx context.Context, id string) error
}

// TokenStore issues and checks anti-forgery tokens for state-changing requests.
type TokenStore interface {
	IssueToken(ctx context.Context) (string, error)
	ValidToken(ctx context.Context, token string) bool
}
