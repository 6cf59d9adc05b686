package tui

import (
	"github.com/dvloznov/expense-ledger/internal/ledger"
)

// Data loading messages.
type rowsLoadedMsg struct {
	err   error
	blobs [][]byte
}

// Clock messages.
type tickMsg struct{}

// Async operation messages.
type deleteDoneMsg struct {
	result ledger.DeleteResult
}

type reportPrintedMsg struct {
	err      error
	location string
}

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeNameFilter
	ModeMonthFilter
	ModeConfirm
	ModeDetail
)

func (m Mode) String() string {
	switch m {
	case ModeBrowse:
		return "browse"
	case ModeNameFilter:
		return "name-filter"
	case ModeMonthFilter:
		return "month-filter"
	case ModeConfirm:
		return "confirm"
	case ModeDetail:
		return "detail"
	}
	return "unknown"
}
