package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors returned by the page components.
var (
	// ErrNotFound is returned when an id is not in the registry.
	ErrNotFound = errors.New("transaction not found")
	// ErrBusy is returned when a deletion is started while another one is still pending.
	ErrBusy = errors.New("another deletion is in progress")
	// ErrExpired is returned when a deletion is attempted outside the window.
	ErrExpired = errors.New("deletion window has expired")
	// ErrInvalidMonth is returned for a month filter that is not YYYY-MM.
	ErrInvalidMonth = errors.New("invalid month filter")
	// ErrEmptyEntry is returned when neither received nor paid is set on a new entry.
	ErrEmptyEntry = errors.New("either received or paid amount is required")
	// ErrNoPending is returned when a deletion step arrives for no matching deletion.
	ErrNoPending = errors.New("no deletion awaiting this step")
	// ErrCancelled is returned when the user declines the deletion.
	ErrCancelled = errors.New("deletion cancelled")
)

// DecodeError reports a row blob that is not well-formed structured data.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode row: %s: %v", e.Reason, e.Err)
	}
	return "decode row: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TimestampError reports a creation timestamp that is not a valid integer.
type TimestampError struct {
	Raw string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid created timestamp %q", e.Raw)
}

// RequestError reports a transport failure of the deletion RPC.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("delete request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ServerRejection reports an explicit success=false from the deletion endpoint.
type ServerRejection struct {
	Reason string
	Status int
}

func (e *ServerRejection) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("server rejected deletion (status %d)", e.Status)
	}
	return "server rejected deletion: " + e.Reason
}

// OverdraftError reports an entry that pays more than the current balance.
type OverdraftError struct {
	Balance decimal.Decimal
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf(MsgOverdraft, e.Balance.StringFixed(2))
}
