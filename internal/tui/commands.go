package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/report"
)

// loadRows fetches the rows from the server.
func (m Model) loadRows() tea.Cmd {
	rows, timeout := m.cfg.Rows, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		blobs, err := rows.FetchRows(ctx)
		return rowsLoadedMsg{blobs: blobs, err: err}
	}
}

// tick schedules the next countdown refresh.
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.TickEvery, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// runDelete executes the confirmed request off the event loop.
func (m Model) runDelete(req *ledger.DeleteRequest) tea.Cmd {
	timeout := m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return deleteDoneMsg{result: req.Do(ctx)}
	}
}

// printReport builds the report of the visible rows and prints it on the surface.
func (m Model) printReport(records []ledger.Record, month *ledger.YearMonth) tea.Cmd {
	surface, opts, now, timeout := m.cfg.Surface, m.cfg.Report, m.cfg.Now(), m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		loc, err := report.Generate(ctx, records, month, now, opts, surface)
		return reportPrintedMsg{location: loc, err: err}
	}
}

func isNoData(err error) bool {
	var noData *report.NoDataError
	return errors.As(err, &noData)
}
