package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/expense-ledger/internal/domain"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/store"
	"github.com/shopspring/decimal"
)

// Store is an in-memory implementation of store.Repository.
// It keeps transactions oldest first and is safe for concurrent use.
// Data is lost on service restart; seed it from a snapshot source at start-up.
type Store struct {
	mu     sync.RWMutex
	txs    []domain.Transaction
	nextID int64

	now func() time.Time
	loc *time.Location
}

// NewStore creates an empty store stamping new transactions in loc.
// A nil now defaults to time.Now.
func NewStore(loc *time.Location, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{now: now, loc: loc, nextID: 1}
}

// Seed replaces the store content with txs. Transactions are ordered by creation
// instant, missing ids are assigned and running balances are recomputed.
func (s *Store) Seed(ctx context.Context, txs []domain.Transaction) error {
	seeded := make([]domain.Transaction, len(txs))
	copy(seeded, txs)
	sort.SliceStable(seeded, func(i, j int) bool {
		return seeded[i].CreatedAt.Before(seeded[j].CreatedAt)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(seeded))
	var next int64 = 1
	for _, tx := range seeded {
		if n, err := strconv.ParseInt(tx.ID, 10, 64); err == nil && n >= next {
			next = n + 1
		}
	}
	for i := range seeded {
		if seeded[i].ID == "" {
			seeded[i].ID = strconv.FormatInt(next, 10)
			next++
		}
		if seen[seeded[i].ID] {
			return fmt.Errorf("Seed: duplicate transaction id %s", seeded[i].ID)
		}
		seen[seeded[i].ID] = true
	}

	s.txs = seeded
	s.nextID = next
	s.recalculate()
	return nil
}

// AddTransaction implements store.Repository.
func (s *Store) AddTransaction(ctx context.Context, in store.NewTransaction) (domain.Transaction, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := decimal.Zero
	if n := len(s.txs); n > 0 {
		previous = s.txs[n-1].RemainingBalance
	}
	if in.RequireFunds {
		if err := ledger.CheckBalance(in.Paid, previous); err != nil {
			return domain.Transaction{}, fmt.Errorf("AddTransaction: %w", err)
		}
	}

	tx := domain.Transaction{
		ID:               strconv.FormatInt(s.nextID, 10),
		Name:             name,
		Comment:          strings.TrimSpace(in.Comment),
		AmountReceived:   in.Received,
		AmountPaid:       in.Paid,
		RemainingBalance: previous.Add(in.Received).Sub(in.Paid),
	}
	tx.Stamp(s.now(), s.loc)

	s.nextID++
	s.txs = append(s.txs, tx)
	return tx, nil
}

// ListTransactions implements store.Repository.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.txs))
	for i := len(s.txs) - 1; i >= 0; i-- {
		out = append(out, s.txs[i])
	}
	return out, nil
}

// GetTransaction implements store.Repository.
func (s *Store) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: %w: %s", store.ErrNotFound, id)
	}
	return s.txs[i], nil
}

// DeleteTransaction implements store.Repository.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("DeleteTransaction: %w: %s", store.ErrNotFound, id)
	}
	s.txs = append(s.txs[:i:i], s.txs[i+1:]...)
	s.recalculate()
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, tx := range s.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// recalculate rewrites every running balance, oldest first. Callers hold mu.
func (s *Store) recalculate() {
	running := decimal.Zero
	for i := range s.txs {
		running = running.Add(s.txs[i].AmountReceived).Sub(s.txs[i].AmountPaid)
		s.txs[i].RemainingBalance = running
	}
}

// Ensure Store implements the Repository interface.
var _ store.Repository = (*Store)(nil)
