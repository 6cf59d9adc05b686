package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dvloznov/expense-ledger/internal/ledger"
)

// Theme defines the visual style for the dashboard.
type Theme struct {
	Title    lipgloss.Style
	Clock    lipgloss.Style
	Filters  lipgloss.Style
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Expired  lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
	Overlay  lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style

	StatusInfo    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#667eea")).
		Padding(0, 1),
	Clock: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a78bfa")).
		Bold(true),
	Filters: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#404040")),
	Row: lipgloss.NewStyle(),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#3b3b58")).
		Bold(true),
	Expired: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
	Positive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	Negative: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")),
	Overlay: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#667eea")).
		Padding(1, 2),
	Label: lipgloss.NewStyle().
		Bold(true).
		Width(10),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),

	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")),
	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
}

// Countdown styles a countdown cell, fading the color with the state's opacity.
func (t Theme) Countdown(st ledger.State) lipgloss.Style {
	if !st.Eligible {
		return t.Expired
	}
	return lipgloss.NewStyle().Foreground(fade(st.Opacity))
}

// Status returns the style for a notice.
func (t Theme) Status(kind ledger.NoticeKind) lipgloss.Style {
	switch kind {
	case ledger.NoticeSuccess:
		return t.StatusSuccess
	case ledger.NoticeError:
		return t.StatusError
	}
	return t.StatusInfo
}

// fade scales an amber foreground toward black.
func fade(opacity float64) lipgloss.Color {
	if opacity > 1 {
		opacity = 1
	}
	if opacity < 0 {
		opacity = 0
	}
	r := int(0xf5 * opacity)
	g := int(0x9e * opacity)
	b := int(0x0b * opacity)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}
