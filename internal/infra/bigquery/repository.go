package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/expense-ledger/internal/domain"
)

// Source is a ledger snapshot source backed by BigQuery. It holds a shared
// client to avoid creating a new connection for each load.
type Source struct {
	client *bigquery.Client
	ref    TableRef
}

// NewSource creates a source for ref with a shared BigQuery client.
func NewSource(ctx context.Context, ref TableRef) (*Source, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("NewSource: %w", err)
	}
	client, err := bigquery.NewClient(ctx, ref.Project)
	if err != nil {
		return nil, fmt.Errorf("NewSource: creating client: %w", err)
	}
	return &Source{client: client, ref: ref}, nil
}

// Close closes the BigQuery client connection.
func (s *Source) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Load delegates to ListTransactionsWithClient with the shared client.
func (s *Source) Load(ctx context.Context) ([]domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, s.client, s.ref)
}
