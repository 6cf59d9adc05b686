package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	comment           TEXT,
	amount_received   TEXT NOT NULL DEFAULT '0',
	amount_paid       TEXT NOT NULL DEFAULT '0',
	remaining_balance TEXT NOT NULL DEFAULT '0',
	date              TEXT NOT NULL,
	time              TEXT NOT NULL,
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
`

// Source reads ledger snapshots from a SQLite file. Amounts are stored as
// decimal strings; created_at is unix seconds.
type Source struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite.Open: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite.Open: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: schema: %w", err)
	}
	return &Source{db: db, path: path}, nil
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}

// Load returns every stored transaction, oldest first.
func (s *Source) Load(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, comment, amount_received, amount_paid, remaining_balance, date, time, created_at
		FROM transactions
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("Load: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			tx                      domain.Transaction
			comment                 sql.NullString
			received, paid, balance string
			date, clock             string
			created                 int64
		)
		if err := rows.Scan(&tx.ID, &tx.Name, &comment, &received, &paid, &balance, &date, &clock, &created); err != nil {
			return nil, fmt.Errorf("Load: scan: %w", err)
		}
		tx.Comment = comment.String

		if tx.AmountReceived, err = decimal.NewFromString(received); err != nil {
			return nil, fmt.Errorf("Load: %s: amount_received: %w", tx.ID, err)
		}
		if tx.AmountPaid, err = decimal.NewFromString(paid); err != nil {
			return nil, fmt.Errorf("Load: %s: amount_paid: %w", tx.ID, err)
		}
		if tx.RemainingBalance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("Load: %s: remaining_balance: %w", tx.ID, err)
		}
		if tx.Date, err = civil.ParseDate(date); err != nil {
			return nil, fmt.Errorf("Load: %s: date: %w", tx.ID, err)
		}
		if tx.Time, err = parseClock(clock); err != nil {
			return nil, fmt.Errorf("Load: %s: time: %w", tx.ID, err)
		}
		tx.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Load: rows: %w", err)
	}
	return out, nil
}

// Save upserts txs in one database transaction.
func (s *Source) Save(ctx context.Context, txs []domain.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: begin: %w", err)
	}
	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT INTO transactions (id, name, comment, amount_received, amount_paid, remaining_balance, date, time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			comment = excluded.comment,
			amount_received = excluded.amount_received,
			amount_paid = excluded.amount_paid,
			remaining_balance = excluded.remaining_balance,
			date = excluded.date,
			time = excluded.time,
			created_at = excluded.created_at`)
	if err != nil {
		_ = dbtx.Rollback()
		return fmt.Errorf("Save: prepare: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		var comment sql.NullString
		if tx.Comment != "" {
			comment = sql.NullString{String: tx.Comment, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			tx.ID, tx.Name, comment,
			tx.AmountReceived.StringFixed(2), tx.AmountPaid.StringFixed(2), tx.RemainingBalance.StringFixed(2),
			tx.Date.String(), domain.FormatTime(tx.Time), tx.CreatedAt.Unix(),
		); err != nil {
			_ = dbtx.Rollback()
			return fmt.Errorf("Save: insert %s: %w", tx.ID, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}

// parseClock accepts HH:MM and HH:MM:SS.
func parseClock(s string) (civil.Time, error) {
	if len(s) == len("15:04") {
		s += ":00"
	}
	return civil.ParseTime(s)
}
