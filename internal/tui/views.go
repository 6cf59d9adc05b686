package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dvloznov/expense-ledger/internal/ledger"
)

const (
	colDate    = 10
	colTime    = 8
	colName    = 24
	colAmount  = 12
	colDelete  = 9
	nameMargin = 1
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.loading && m.page == nil {
		return "Loading transactions..."
	}
	if m.mode == ModeDetail {
		return m.renderDetail()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilters())
	b.WriteString("\n\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("Expense Ledger")
	clock := m.theme.Clock.Render(m.clock)
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(clock)
	if gap < 2 {
		gap = 2
	}
	return title + strings.Repeat(" ", gap) + clock
}

func (m Model) renderFilters() string {
	switch m.mode {
	case ModeNameFilter:
		return "Name: " + m.input.View()
	case ModeMonthFilter:
		return "Month: " + m.input.View()
	}

	name, month := "all", "all"
	count := 0
	if m.page != nil {
		if f := m.page.Registry().NameFilter(); f != "" {
			name = fmt.Sprintf("%q", f)
		}
		if ym, ok := m.page.Registry().MonthFilter(); ok {
			month = ym.Title()
		}
		count = len(m.visible())
	}
	return m.theme.Filters.Render(fmt.Sprintf("Name: %s   Month: %s   Showing: %d", name, month, count))
}

func (m Model) renderTable() string {
	var b strings.Builder
	header := fmt.Sprintf("%-*s %-*s %-*s %*s %*s %*s %*s",
		colDate, "Date", colTime, "Time", colName, "Name",
		colAmount, "Received", colAmount, "Paid", colAmount, "Balance", colDelete, "Delete")
	b.WriteString(m.theme.Header.Render(header))
	b.WriteString("\n")

	rows := m.visible()
	if len(rows) == 0 {
		b.WriteString(m.theme.Muted.Render("No transactions"))
		b.WriteString("\n")
		return b.String()
	}

	for i, rec := range rows {
		b.WriteString(m.renderRow(rec, i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(rec ledger.Record, selected bool) string {
	balanceStyle := m.theme.Positive
	if rec.Balance.IsNegative() {
		balanceStyle = m.theme.Negative
	}

	st, tracked := m.countdowns[rec.ID]
	countdown := ledger.ExpiredDisplay
	if tracked {
		countdown = st.Display
	} else {
		st = ledger.State{Display: ledger.ExpiredDisplay}
	}

	cells := fmt.Sprintf("%-*s %-*s %-*s %*s %*s ",
		colDate, truncate(rec.Date, colDate),
		colTime, truncate(rec.Time, colTime),
		colName, truncate(rec.Name, colName-nameMargin),
		colAmount, rec.Received.StringFixed(2),
		colAmount, rec.Paid.StringFixed(2))
	balance := balanceStyle.Render(fmt.Sprintf("%*s", colAmount, rec.BalanceText))
	deleteCell := m.theme.Countdown(st).Render(fmt.Sprintf(" %*s", colDelete, countdown))

	line := cells + balance + deleteCell
	if selected {
		return m.theme.Selected.Render("> " + line)
	}
	return m.theme.Row.Render("  " + line)
}

func (m Model) renderStatus() string {
	n := m.status.notice
	if n.Message == "" {
		return ""
	}
	return m.theme.Status(n.Kind).Render(n.Message)
}

// detailBox renders the overlay content without positioning.
func (m Model) detailBox() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Transaction Details"))
	b.WriteString("\n\n")
	for _, f := range m.page.Detail().Fields() {
		b.WriteString(m.theme.Label.Render(f.Label + ":"))
		b.WriteString(" ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("Esc or click outside to close"))
	return m.theme.Overlay.Render(b.String())
}

func (m Model) renderDetail() string {
	box := m.detailBox()
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// overlayContains reports whether the cell (x, y) falls on the centered detail box.
func (m Model) overlayContains(x, y int) bool {
	if m.page == nil || !m.page.Detail().Open() {
		return false
	}
	box := m.detailBox()
	w, h := lipgloss.Width(box), lipgloss.Height(box)
	left := (m.width - w) / 2
	top := (m.height - h) / 2
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	return x >= left && x < left+w && y >= top && y < top+h
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
