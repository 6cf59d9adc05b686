package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dvloznov/expense-ledger/internal/ledger"
)

// statusLine is the dashboard's notifier. Notices replace each other.
type statusLine struct {
	notice ledger.Notice
}

// Notify implements ledger.Notifier.
func (s *statusLine) Notify(n ledger.Notice) { s.notice = n }

// Confirm implements ledger.Notifier. The dashboard confirms through ModeConfirm
// instead, so synchronous questions are declined.
func (s *statusLine) Confirm(string) bool { return false }

// Model holds the dashboard state.
type Model struct {
	cfg    Config
	keymap KeyMap
	theme  Theme
	help   help.Model
	input  textinput.Model

	page   *ledger.Page
	status *statusLine

	countdowns map[string]ledger.State
	clock      string

	mode   Mode
	cursor int
	width  int
	height int

	loading  bool
	deleting bool
	printing bool
	quitting bool

	// staleRows is set when rows arrived while a deletion was pending; they
	// are refetched once the deletion settles.
	staleRows bool
}

func newModel(cfg Config) Model {
	input := textinput.New()
	input.CharLimit = 64

	return Model{
		cfg:        cfg.withDefaults(),
		keymap:     DefaultKeyMap(),
		theme:      DefaultTheme,
		help:       help.New(),
		input:      input,
		status:     &statusLine{},
		countdowns: make(map[string]ledger.State),
		loading:    true,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadRows(), m.tick())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case rowsLoadedMsg:
		if m.deletionPending() {
			m.staleRows = true
			return m, nil
		}
		m.handleRowsLoaded(msg)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case deleteDoneMsg:
		m.deleting = false
		if m.page != nil {
			if err := m.page.Workflow().Complete(msg.result); err != nil {
				m.cfg.Log.Warn().Err(err).Str("transaction_id", msg.result.ID).Msg("Stale deletion result")
			}
		}
		m.clampCursor()
		m.refresh()
		cmd := m.reloadStale()
		return m, cmd

	case reportPrintedMsg:
		m.printing = false
		switch {
		case isNoData(msg.err):
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeError, Message: ledger.MsgNoReportData})
		case msg.err != nil:
			m.cfg.Log.Error().Err(msg.err).Msg("Failed to print report")
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeError, Message: "Failed to print report: " + msg.err.Error()})
		default:
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeSuccess, Message: "Report saved to " + msg.location})
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == ModeNameFilter || m.mode == ModeMonthFilter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleRowsLoaded(msg rowsLoadedMsg) {
	m.loading = false
	if msg.err != nil {
		m.cfg.Log.Error().Err(msg.err).Msg("Failed to load transactions")
		m.status.Notify(ledger.Notice{Kind: ledger.NoticeError, Message: "Failed to load transactions: " + msg.err.Error()})
		return
	}

	var name, month string
	if m.page != nil {
		name = m.page.Registry().NameFilter()
		if ym, ok := m.page.Registry().MonthFilter(); ok {
			month = ym.String()
		}
	}

	m.page = ledger.NewPage(msg.blobs, ledger.Options{
		Now:      m.cfg.Now,
		Zone:     m.cfg.Zone,
		Window:   m.cfg.Window,
		Deleter:  m.cfg.Deleter,
		Tokens:   m.cfg.Tokens,
		Notifier: m.status,
		Log:      m.cfg.Log,
	})
	m.page.SetNameFilter(name)
	_ = m.page.SetMonthFilter(month)

	if n := m.page.Skipped(); n > 0 {
		m.status.Notify(ledger.Notice{Kind: ledger.NoticeError, Message: fmt.Sprintf("Skipped %d malformed rows", n)})
	}
	m.countdowns = make(map[string]ledger.State)
	m.clampCursor()
	m.refresh()
}

// deletionPending reports whether the current page's workflow is awaiting a
// confirmation or a server response. Replacing the page then would orphan it.
func (m *Model) deletionPending() bool {
	return m.deleting || m.mode == ModeConfirm
}

// reloadStale refetches rows that were held back during a deletion.
func (m *Model) reloadStale() tea.Cmd {
	if !m.staleRows || m.deletionPending() {
		return nil
	}
	m.staleRows = false
	return m.loadRows()
}

// refresh re-evaluates every countdown and the header clock.
func (m *Model) refresh() {
	if m.page == nil {
		return
	}
	for _, cd := range m.page.Tick() {
		m.countdowns[cd.ID] = cd.State
	}
	m.clock = m.page.WallClock()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeNameFilter:
		return m.handleNameFilterKey(msg)
	case ModeMonthFilter:
		return m.handleMonthFilterKey(msg)
	case ModeConfirm:
		return m.handleConfirmKey(msg)
	case ModeDetail:
		if key.Matches(msg, m.keymap.Close) || key.Matches(msg, m.keymap.Detail) {
			m.page.Detail().Close()
			m.mode = ModeBrowse
			return m, nil
		}
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keymap.Reload):
		if m.deleting {
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeInfo, Message: "A deletion is in progress"})
			return m, nil
		}
		m.loading = true
		return m, m.loadRows()
	}

	if m.page == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.NameFilter):
		m.mode = ModeNameFilter
		m.input.Placeholder = "name contains..."
		m.input.SetValue(m.page.Registry().NameFilter())
		return m, m.input.Focus()

	case key.Matches(msg, m.keymap.MonthFilter):
		m.mode = ModeMonthFilter
		m.input.Placeholder = "YYYY-MM (empty for all)"
		value := ""
		if ym, ok := m.page.Registry().MonthFilter(); ok {
			value = ym.String()
		}
		m.input.SetValue(value)
		return m, m.input.Focus()

	case key.Matches(msg, m.keymap.Detail):
		id, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.page.ShowDetail(id); err != nil {
			m.page.NotifyError(err)
			return m, nil
		}
		m.mode = ModeDetail
		return m, nil

	case key.Matches(msg, m.keymap.Delete):
		if m.loading {
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeInfo, Message: "Loading transactions, try again in a moment"})
			return m, nil
		}
		id, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.page.Workflow().Start(id); err != nil {
			if errors.Is(err, ledger.ErrBusy) {
				m.status.Notify(ledger.Notice{Kind: ledger.NoticeInfo, Message: "A deletion is in progress"})
			} else if !errors.Is(err, ledger.ErrExpired) {
				m.page.NotifyError(err)
			}
			m.refresh()
			return m, nil
		}
		m.mode = ModeConfirm
		m.status.Notify(ledger.Notice{Kind: ledger.NoticeInfo, Message: ledger.MsgConfirmDelete + " (y/n)"})
		return m, nil

	case key.Matches(msg, m.keymap.Print):
		if m.printing {
			return m, nil
		}
		records, month := m.page.ReportInput()
		if len(records) == 0 {
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeError, Message: ledger.MsgNoReportData})
			return m, nil
		}
		m.printing = true
		m.status.Notify(ledger.Notice{Kind: ledger.NoticeInfo, Message: "Printing report..."})
		return m, m.printReport(records, month)
	}
	return m, nil
}

func (m Model) handleNameFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.leaveInput()
		return m, nil
	case tea.KeyEsc, tea.KeyCtrlC:
		m.page.SetNameFilter("")
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.page.SetNameFilter(m.input.Value())
	m.clampCursor()
	return m, cmd
}

func (m Model) handleMonthFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.page.SetMonthFilter(m.input.Value()); err != nil {
			m.status.Notify(ledger.Notice{Kind: ledger.NoticeError, Message: "Month must be YYYY-MM"})
			return m, nil
		}
		m.leaveInput()
		return m, nil
	case tea.KeyEsc, tea.KeyCtrlC:
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Yes):
		m.mode = ModeBrowse
		req, err := m.page.Workflow().Confirm(true)
		if err != nil {
			if !errors.Is(err, ledger.ErrExpired) {
				m.page.NotifyError(err)
			}
			m.refresh()
			cmd := m.reloadStale()
			return m, cmd
		}
		m.deleting = true
		m.status.Notify(ledger.Notice{Kind: ledger.NoticeInfo, Message: "Deleting..."})
		return m, m.runDelete(req)

	case key.Matches(msg, m.keymap.No):
		m.mode = ModeBrowse
		if _, err := m.page.Workflow().Confirm(false); err != nil && !errors.Is(err, ledger.ErrCancelled) {
			m.cfg.Log.Warn().Err(err).Msg("Unexpected confirmation state")
		}
		m.status.Notify(ledger.Notice{})
		cmd := m.reloadStale()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeDetail || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if !m.overlayContains(msg.X, msg.Y) {
		m.page.Detail().ClickOutside()
		m.mode = ModeBrowse
	}
	return m, nil
}

func (m *Model) leaveInput() {
	m.input.Blur()
	m.input.SetValue("")
	m.mode = ModeBrowse
	m.clampCursor()
}

func (m Model) visible() []ledger.Record {
	if m.page == nil {
		return nil
	}
	return m.page.Registry().Visible()
}

func (m Model) selected() (string, bool) {
	rows := m.visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return "", false
	}
	return rows[m.cursor].ID, true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
