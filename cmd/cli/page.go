package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/expense-ledger/internal/ledger"
)

// promptNotifier asks confirmations on in and prints notices to out.
type promptNotifier struct {
	in     *bufio.Reader
	out    io.Writer
	assume bool
}

func (p *promptNotifier) Confirm(question string) bool {
	if p.assume {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (p *promptNotifier) Notify(n ledger.Notice) {
	fmt.Fprintln(p.out, n.Message)
}

// loadPage fetches the rows and builds a page with the given filters applied.
func (a *app) loadPage(ctx context.Context, name, month string, notifier ledger.Notifier) (*ledger.Page, error) {
	blobs, err := a.client.FetchRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	page := ledger.NewPage(blobs, ledger.Options{
		Now:      a.now,
		Zone:     a.zone,
		Window:   a.cfg.Ledger.DeleteWindow,
		Deleter:  a.client,
		Tokens:   a.client,
		Notifier: notifier,
		Log:      a.log,
	})
	page.SetNameFilter(name)
	if err := page.SetMonthFilter(month); err != nil {
		return nil, fmt.Errorf("--month must be YYYY-MM: %w", err)
	}
	if n := page.Skipped(); n > 0 {
		a.log.Warn().Int("skipped", n).Msg("Some rows could not be decoded")
	}
	return page, nil
}
