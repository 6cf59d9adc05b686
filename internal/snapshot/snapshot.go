// Package snapshot loads the transactions a ledger server is seeded with.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/expense-ledger/internal/config"
	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/dvloznov/expense-ledger/internal/gcsuploader"
	"github.com/dvloznov/expense-ledger/internal/infra/bigquery"
	"github.com/dvloznov/expense-ledger/internal/infra/sqlite"
	"github.com/rs/zerolog"
)

// Source yields a snapshot of ledger transactions.
type Source interface {
	Load(ctx context.Context) ([]domain.Transaction, error)
}

// Empty is the source used when no snapshot is configured.
type Empty struct{}

// Load implements Source.
func (Empty) Load(context.Context) ([]domain.Transaction, error) { return nil, nil }

// Open builds the source selected by cfg.Source.Kind. Sources holding a
// connection implement io.Closer.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (Source, error) {
	switch cfg.Source.Kind {
	case "", config.SourceNone:
		return Empty{}, nil

	case config.SourceJSON:
		zone, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		var store gcsuploader.ObjectStore
		if gcsuploader.IsURI(cfg.Source.Path) {
			store = gcsuploader.NewGCSStorageService()
		}
		return &JSONSource{Path: cfg.Source.Path, Zone: zone, Store: store, Log: log}, nil

	case config.SourceSQLite:
		src, err := sqlite.Open(ctx, cfg.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return src, nil

	case config.SourceBigQuery:
		src, err := bigquery.NewSource(ctx, bigquery.TableRef{
			Project: cfg.BigQuery.Project,
			Dataset: cfg.BigQuery.Dataset,
			Table:   cfg.BigQuery.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return src, nil
	}
	return nil, fmt.Errorf("Open: unknown source kind %q", cfg.Source.Kind)
}

// Load opens the configured source, reads it once and closes it.
func Load(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]domain.Transaction, error) {
	src, err := Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close snapshot source")
			}
		}()
	}

	start := time.Now()
	txs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Load: %s source: %w", cfg.Source.Kind, err)
	}
	log.Info().
		Str("kind", cfg.Source.Kind).
		Str("path", cfg.Source.Path).
		Int("transactions", len(txs)).
		Dur("duration", time.Since(start)).
		Msg("Snapshot loaded")
	return txs, nil
}
