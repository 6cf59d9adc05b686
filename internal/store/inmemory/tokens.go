package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/expense-ledger/internal/store"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = time.Hour

// Tokens is an in-memory store.TokenStore. Tokens are reusable until they expire.
type Tokens struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	issued map[string]time.Time
}

// NewTokens creates a token store. Zero ttl means DefaultTokenTTL.
func NewTokens(ttl time.Duration, now func() time.Time) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{ttl: ttl, now: now, issued: make(map[string]time.Time)}
}

// IssueToken implements store.TokenStore.
func (t *Tokens) IssueToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for token, expires := range t.issued {
		if !now.Before(expires) {
			delete(t.issued, token)
		}
	}

	token := uuid.NewString()
	t.issued[token] = now.Add(t.ttl)
	return token, nil
}

// ValidToken implements store.TokenStore.
func (t *Tokens) ValidToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	expires, ok := t.issued[token]
	return ok && t.now().Before(expires)
}

var _ store.TokenStore = (*Tokens)(nil)
