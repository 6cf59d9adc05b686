package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)

type row struct {
	ID       string
	Name     string
	Date     string
	Comment  string
	Received string
	Paid     string
	Balance  string
	Created  string
}

func (r row) blob(t *testing.T) []byte {
	t.Helper()
	m := map[string]any{
		"id":         r.ID,
		"date":       r.Date,
		"time":       "10:00",
		"name":       r.Name,
		"received":   r.Received,
		"paid":       r.Paid,
		"balance":    r.Balance,
		"created_at": r.Created,
	}
	if r.Comment != "" {
		m["comment"] = r.Comment
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func (r row) record(t *testing.T) Record {
	t.Helper()
	rec, err := DecodeRecord(r.blob(t))
	require.NoError(t, err)
	return rec
}

// createdAgo returns the creation timestamp of a row created d before testNow.
func createdAgo(d time.Duration) string {
	return strconv.FormatInt(testNow.Add(-d).Unix(), 10)
}

// fakeClock is a controllable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeDeleter struct {
	calls []string
	token string
	err   error
}

func (d *fakeDeleter) DeleteTransaction(_ context.Context, id, token string) error {
	d.calls = append(d.calls, id)
	d.token = token
	return d.err
}

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, s.err
}

type recordingNotifier struct {
	answer    bool
	questions []string
	notices   []Notice
}

func (n *recordingNotifier) Confirm(q string) bool {
	n.questions = append(n.questions, q)
	return n.answer
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) last() Notice {
	if len(n.notices) == 0 {
		return Notice{}
	}
	return n.notices[len(n.notices)-1]
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:8000: connection refused")

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
