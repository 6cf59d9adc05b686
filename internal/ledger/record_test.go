package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	blob := []byte(`{
		"id": "42",
		"date": "2025-08-05",
		"time": "09:15",
		"name": "Coffee",
		"comment": "oat milk",
		"received": "0.00",
		"paid": "3.50",
		"balance": "-3.50",
		"created_at": 1756100000
	}`)

	rec, err := DecodeRecord(blob)
	require.NoError(t, err)

	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, "2025-08-05", rec.Date)
	assert.Equal(t, "09:15", rec.Time)
	assert.Equal(t, "Coffee", rec.Name)
	assert.Equal(t, "oat milk", rec.Comment)
	assert.True(t, rec.Received.IsZero())
	assert.True(t, rec.Paid.Equal(decimal.RequireFromString("3.50")))
	assert.True(t, rec.Balance.IsNegative())
	assert.Equal(t, "-3.50", rec.BalanceText)
	assert.Equal(t, RawTimestamp("1756100000"), rec.Created)
}

func TestDecodeRecord_NumericID(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id": 7, "name": "Rent", "created_at": "1756100000"}`))
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, "0.00", rec.BalanceText)
}

func TestDecodeRecord_LenientAmounts(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id": "1", "received": "abc", "paid": null}`))
	require.NoError(t, err)
	assert.True(t, rec.Received.IsZero())
	assert.True(t, rec.Paid.IsZero())
	assert.True(t, rec.Balance.IsZero())
}

func TestDecodeRecord_Rejects(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "empty", blob: ""},
		{name: "not an object", blob: `["id", "1"]`},
		{name: "truncated", blob: `{"id": "1", "name": "Cof`},
		{name: "missing id", blob: `{"name": "Coffee"}`},
		{name: "null id", blob: `{"id": null}`},
		{name: "plain text", blob: `Coffee,3.50`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord([]byte(tt.blob))
			require.Error(t, err)

			var decErr *DecodeError
			assert.ErrorAs(t, err, &decErr)
			assert.Equal(t, Record{}, rec)
		})
	}
}

func TestDecodeRecord_Idempotent(t *testing.T) {
	blob := row{ID: "1", Name: "Coffee", Date: "2025-08-05", Paid: "3.50", Balance: "-3.50", Created: "1756100000"}.blob(t)

	first, err := DecodeRecord(blob)
	require.NoError(t, err)
	second, err := DecodeRecord(blob)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRawTimestamp_Seconds(t *testing.T) {
	tests := []struct {
		raw     RawTimestamp
		want    int64
		wantErr bool
	}{
		{raw: "1756100000", want: 1756100000},
		{raw: " 1756100000 ", want: 1756100000},
		{raw: "-5", want: -5},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "1756100000abc", wantErr: true},
		{raw: "1756100000.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.raw), func(t *testing.T) {
			got, err := tt.raw.Seconds()
			if tt.wantErr {
				var tsErr *TimestampError
				assert.ErrorAs(t, err, &tsErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
