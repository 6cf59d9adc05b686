package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/rs/zerolog"
)

// RowSource fetches the rendered row blobs, newest first.
type RowSource interface {
	FetchRows(ctx context.Context) ([][]byte, error)
}

// Config holds what the dashboard talks to.
type Config struct {
	Rows    RowSource
	Deleter ledger.Deleter
	Tokens  ledger.TokenSource
	Surface report.Surface
	Report  report.Options

	Zone   *time.Location
	Window time.Duration
	// Now is the time source; nil means time.Now.
	Now func() time.Time
	// Timeout bounds each server call; zero means 15s.
	Timeout time.Duration
	// TickEvery is the countdown refresh interval; zero means one second.
	TickEvery time.Duration

	Log zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.TickEvery <= 0 {
		c.TickEvery = time.Second
	}
	if c.Window <= 0 {
		c.Window = ledger.DefaultWindow
	}
	if c.Report.Zone == nil {
		c.Report.Zone = c.Zone
	}
	return c
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Rows == nil {
		return fmt.Errorf("tui: row source is required")
	}
	if cfg.Deleter == nil {
		return fmt.Errorf("tui: deleter is required")
	}
	if cfg.Surface == nil {
		return fmt.Errorf("tui: report surface is required")
	}

	p := tea.NewProgram(
		newModel(cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
