package bigquery

import (
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/expense-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

// TableRef locates the transactions table.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

var identRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate rejects references that cannot be spliced into a query.
func (t TableRef) Validate() error {
	for _, part := range []struct{ name, value string }{
		{"project", t.Project},
		{"dataset", t.Dataset},
		{"table", t.Table},
	} {
		if !identRe.MatchString(part.value) {
			return fmt.Errorf("invalid bigquery %s %q", part.name, part.value)
		}
	}
	return nil
}

// String returns the backquoted fully qualified table name.
func (t TableRef) String() string {
	return fmt.Sprintf("`%s.%s.%s`", t.Project, t.Dataset, t.Table)
}

// ListTransactions reads every ledger row, oldest first.
func ListTransactions(ctx context.Context, ref TableRef) ([]domain.Transaction, error) {
	client, err := bigquery.NewClient(ctx, ref.Project)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return ListTransactionsWithClient(ctx, client, ref)
}

// ListTransactionsWithClient reads every ledger row, oldest first, using the
// provided BigQuery client.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, ref TableRef) ([]domain.Transaction, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	q := client.Query(`
		SELECT
			transaction_id,
			name,
			comment,
			amount_received,
			amount_paid,
			remaining_balance,
			transaction_date,
			transaction_time,
			created_ts
		FROM ` + ref.String() + `
		ORDER BY created_ts, transaction_id
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		tx, err := r.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
