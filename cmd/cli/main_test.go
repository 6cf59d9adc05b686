package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/expense-ledger/internal/api/handlers"
	"github.com/dvloznov/expense-ledger/internal/api/middleware"
	"github.com/dvloznov/expense-ledger/internal/config"
	"github.com/dvloznov/expense-ledger/internal/gcsuploader"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/dvloznov/expense-ledger/internal/snapshot"
	"github.com/dvloznov/expense-ledger/internal/store/inmemory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 8, 25, 5, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newLedgerServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	repo := inmemory.NewStore(time.UTC, fixedNow)
	tokens := inmemory.NewTokens(time.Hour, fixedNow)
	tx := handlers.NewTransactionsHandler(repo, tokens, time.UTC, 30*time.Minute, fixedNow, log)
	csrf := handlers.NewCSRFHandler(tokens, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			tx.AddTransaction(w, r)
			return
		}
		tx.ListTransactions(w, r)
	})
	mux.HandleFunc("/api/csrf", csrf.IssueToken)
	mux.HandleFunc("/delete/", func(w http.ResponseWriter, r *http.Request) {
		tx.DeleteTransaction(w, r, strings.Trim(strings.TrimPrefix(r.URL.Path, "/delete/"), "/"))
	})

	srv := httptest.NewServer(middleware.Chain(mux, log))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	content := "ledger:\n  timezone: UTC\nreport:\n  dir: " + filepath.Join(dir, "reports") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type runner struct {
	t      *testing.T
	config string
	server string
	now    func() time.Time
}

func (r runner) run(stdin string, args ...string) (string, error) {
	r.t.Helper()
	return r.runContext(context.Background(), stdin, args...)
}

func (r runner) runContext(ctx context.Context, stdin string, args ...string) (string, error) {
	r.t.Helper()
	now := r.now
	if now == nil {
		now = fixedNow
	}
	root := newRootCmd(&app{now: now})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", r.config, "--server", r.server}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func newRunner(t *testing.T) runner {
	return runner{t: t, config: writeConfig(t), server: newLedgerServer(t).URL}
}

func TestVersion(t *testing.T) {
	root := newRootCmd(&app{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "ledger dev\n", out.String())
}

func TestAddListShow(t *testing.T) {
	r := newRunner(t)

	out, err := r.run("", "add", "--name", "Salary", "--received", "1000")
	require.NoError(t, err)
	assert.Equal(t, "Added transaction 1 (balance 1000.00)\n", out)

	out, err = r.run("", "add", "--name", "Coffee", "--paid", "3.456", "--comment", "oat")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 996.54")

	out, err = r.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ledger time: 5:00 AM")
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "30:00")
	assert.Contains(t, out, "2 transaction(s)")

	out, err = r.run("", "list", "--name", "SAL")
	require.NoError(t, err)
	assert.NotContains(t, out, "Coffee")
	assert.Contains(t, out, "1 transaction(s)")

	out, err = r.run("", "list", "--month", "2024-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")

	_, err = r.run("", "list", "--month", "January")
	assert.Error(t, err)

	out, err = r.run("", "show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Comment:  oat")
	assert.Contains(t, out, "Paid:     3.46")

	_, err = r.run("", "show", "99")
	assert.Error(t, err)
}

func TestListWatch(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "add", "--name", "Salary", "--received", "1000")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	out, err := r.runContext(ctx, "", "list", "--watch", "--interval", "10ms")
	require.NoError(t, err)
	assert.Greater(t, strings.Count(out, clearScreen), 1)
	assert.Contains(t, out, "30:00")
	assert.NotContains(t, out, "have expired")
}

func TestListWatch_StopsWhenExpired(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "add", "--name", "Salary", "--received", "1000")
	require.NoError(t, err)

	r.now = func() time.Time { return testNow.Add(31 * time.Minute) }
	out, err := r.run("", "list", "--watch", "--interval", "10ms")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, clearScreen))
	assert.Contains(t, out, ledger.ExpiredDisplay)
	assert.Contains(t, out, "All listed transactions have expired.")
}

func TestAddValidation(t *testing.T) {
	r := newRunner(t)

	_, err := r.run("", "add", "--name", "Nothing")
	assert.EqualError(t, err, "Please fill either Received Amount or Paid Amount!")

	_, err = r.run("", "add", "--name", "Refund", "--received=-5")
	assert.Error(t, err)

	_, err = r.run("", "add", "--paid", "5")
	assert.Error(t, err)

	_, err = r.run("", "add", "--name", "Coffee", "--paid", "5")
	assert.EqualError(t, err, "server rejected transaction: Error: You cannot pay more than the current balance (0.00).")
}

func TestDelete(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "add", "--name", "Refund", "--received", "3.50")
	require.NoError(t, err)

	out, err := r.run("n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete this transaction? [y/N]: ")
	assert.Contains(t, out, "Cancelled.")

	out, err = r.run("y\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Transaction deleted successfully!")

	out, err = r.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")

	_, err = r.run("", "delete", "--yes", "1")
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "add", "--name", "Salary", "--received", "1000")
	require.NoError(t, err)

	out, err := r.run("", "report", "--out", "-", "--format", "text", "--month", "2025-08")
	require.NoError(t, err)
	assert.Contains(t, out, "Expense Report - August 2025")
	assert.Contains(t, out, "Total Received: 1000.00")

	dir := t.TempDir()
	out, err = r.run("", "report", "--out", dir)
	require.NoError(t, err)
	name := report.FileSurface{Format: report.FormatHTML}.FileName(&report.Document{GeneratedAt: testNow})
	assert.Equal(t, "Report saved to "+filepath.Join(dir, name)+"\n", out)
	assert.FileExists(t, filepath.Join(dir, name))

	_, err = r.run("", "report", "--name", "nobody")
	assert.EqualError(t, err, "no transactions to export")

	_, err = r.run("", "report", "--format", "pdf")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "add", "--name", "Salary", "--received", "1000")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "snapshot.json")
	out, err := r.run("", "export", dest)
	require.NoError(t, err)
	assert.Equal(t, "Exported 1 rows to "+dest+"\n", out)

	txs, err := (&snapshot.JSONSource{Path: dest}).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Salary", txs[0].Name)
}

func TestNewSurface(t *testing.T) {
	var buf bytes.Buffer

	s, err := newSurface(configReport("reports", ""), "-", report.FormatText, &buf, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, report.WriterSurface{}, s)

	s, err = newSurface(configReport("reports", ""), "", report.FormatHTML, &buf, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, report.FileSurface{Dir: "reports", Format: report.FormatHTML}, s)

	s, err = newSurface(configReport("reports", "ledger-reports"), "", report.FormatHTML, &buf, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &gcsuploader.ReportSurface{}, s)

	_, err = newSurface(configReport("reports", ""), "gs://", report.FormatHTML, &buf, zerolog.Nop())
	assert.Error(t, err)
}

func configReport(dir, bucket string) config.ReportConfig {
	return config.ReportConfig{Dir: dir, Bucket: bucket, Prefix: "reports"}
}
