package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/dvloznov/expense-ledger/internal/gcsuploader"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// JSONSource reads a JSON array of row blobs, the same objects the server
// renders into each row, from a local file or a gs:// URI. An object with a
// "transactions" array is accepted too.
type JSONSource struct {
	Path  string
	Zone  *time.Location
	Store gcsuploader.ObjectStore // required for gs:// paths
	Log   zerolog.Logger
}

// Load implements Source. A row without an id or a valid created_at fails the
// whole load; a missing date or time is derived from created_at in Zone.
func (s *JSONSource) Load(ctx context.Context) ([]domain.Transaction, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	blobs, err := splitBlobs(data)
	if err != nil {
		return nil, fmt.Errorf("Load: %s: %w", s.Path, err)
	}
	s.Log.Debug().Str("path", s.Path).Int("rows", len(blobs)).Msg("Decoding snapshot")

	zone := s.Zone
	if zone == nil {
		zone = time.UTC
	}
	txs := make([]domain.Transaction, 0, len(blobs))
	for i, blob := range blobs {
		tx, err := fromBlob(blob, zone)
		if err != nil {
			return nil, fmt.Errorf("Load: %s: row %d: %w", s.Path, i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (s *JSONSource) read(ctx context.Context) ([]byte, error) {
	if gcsuploader.IsURI(s.Path) {
		if s.Store == nil {
			return nil, fmt.Errorf("Load: no object store for %s", s.Path)
		}
		data, err := s.Store.Fetch(ctx, s.Path)
		if err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return data, nil
}

func splitBlobs(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var blobs []json.RawMessage
	if data[0] == '{' {
		var wrapped struct {
			Transactions []json.RawMessage `json:"transactions"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("malformed snapshot: %w", err)
		}
		return wrapped.Transactions, nil
	}
	if err := json.Unmarshal(data, &blobs); err != nil {
		return nil, fmt.Errorf("malformed snapshot: %w", err)
	}
	return blobs, nil
}

func fromBlob(blob []byte, zone *time.Location) (domain.Transaction, error) {
	rec, err := ledger.DecodeRecord(blob)
	if err != nil {
		return domain.Transaction{}, err
	}
	secs, err := rec.Created.Seconds()
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%s: %w", rec.ID, err)
	}

	tx := domain.Transaction{
		ID:               rec.ID,
		Name:             rec.Name,
		Comment:          rec.Comment,
		AmountReceived:   rec.Received,
		AmountPaid:       rec.Paid,
		RemainingBalance: rec.Balance,
	}
	tx.Stamp(time.Unix(secs, 0).UTC(), zone)
	if d, err := civil.ParseDate(rec.Date); err == nil {
		tx.Date = d
	}
	if t, err := time.Parse("15:04", rec.Time); err == nil {
		tx.Time = civil.TimeOf(t)
	}
	return tx, nil
}

// Export writes blobs as a JSON snapshot to dest, a local path or a gs:// URI.
// The result can be loaded back with JSONSource.
func Export(ctx context.Context, dest string, blobs [][]byte, store gcsuploader.ObjectStore) error {
	raw := make([]json.RawMessage, 0, len(blobs))
	for _, blob := range blobs {
		raw = append(raw, json.RawMessage(blob))
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("Export: marshal: %w", err)
	}
	data = append(data, '\n')

	if gcsuploader.IsURI(dest) {
		if store == nil {
			return fmt.Errorf("Export: no object store for %s", dest)
		}
		bucket, object, err := gcsuploader.ParseURI(dest)
		if err != nil {
			return fmt.Errorf("Export: %w", err)
		}
		if err := store.Upload(ctx, bucket, object, data, "application/json"); err != nil {
			return fmt.Errorf("Export: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("Export: %w", err)
		}
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("Export: %w", err)
	}
	return nil
}
