package ledger

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is the read-only snapshot of one rendered row.
// Records are created by DecodeRecord and never mutated afterwards.
type Record struct {
	ID      string
	Date    string
	Time    string
	Name    string
	Comment string

	Received decimal.Decimal
	Paid     decimal.Decimal

	// Balance is display-only. BalanceText keeps the server's rendering.
	Balance     decimal.Decimal
	BalanceText string

	// Created is the raw creation timestamp, validated lazily by Evaluate.
	Created RawTimestamp
}

// RawTimestamp is the creation timestamp as it appeared in the blob.
type RawTimestamp string

// Seconds parses the timestamp as integer epoch seconds.
func (r RawTimestamp) Seconds() (int64, error) {
	s := strings.TrimSpace(string(r))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &TimestampError{Raw: string(r)}
	}
	return n, nil
}

type recordBlob struct {
	ID        json.RawMessage `json:"id"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Name      string          `json:"name"`
	Comment   *string         `json:"comment"`
	Received  json.RawMessage `json:"received"`
	Paid      json.RawMessage `json:"paid"`
	Balance   json.RawMessage `json:"balance"`
	CreatedAt json.RawMessage `json:"created_at"`
}

// DecodeRecord parses a row blob. It fails with *DecodeError when the blob is not
// a JSON object or carries no id; nothing is returned for a rejected blob.
// Amounts that are missing or unparsable decode as zero.
func DecodeRecord(blob []byte) (Record, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, &DecodeError{Reason: "blob is not a JSON object"}
	}

	var raw recordBlob
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Record{}, &DecodeError{Reason: "malformed JSON", Err: err}
	}

	id := scalarText(raw.ID)
	if id == "" {
		return Record{}, &DecodeError{Reason: "missing id"}
	}

	rec := Record{
		ID:       id,
		Date:     strings.TrimSpace(raw.Date),
		Time:     raw.Time,
		Name:     raw.Name,
		Received: parseAmount(raw.Received),
		Paid:     parseAmount(raw.Paid),
		Balance:  parseAmount(raw.Balance),
		Created:  RawTimestamp(scalarText(raw.CreatedAt)),
	}
	if raw.Comment != nil {
		rec.Comment = *raw.Comment
	}
	rec.BalanceText = scalarText(raw.Balance)
	if rec.BalanceText == "" {
		rec.BalanceText = rec.Balance.StringFixed(2)
	}
	return rec, nil
}

// scalarText returns a JSON string or number as text; anything else yields "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

func parseAmount(raw json.RawMessage) decimal.Decimal {
	s := scalarText(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
