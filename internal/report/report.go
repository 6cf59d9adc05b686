package report

import (
	"fmt"
	"time"

	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// DefaultSystemName appears in the report footer.
const DefaultSystemName = "Expense Management System"

// NoCommentText replaces an empty comment in report rows.
const NoCommentText = "N/A"

// NoDataError is returned when a report is requested with no visible rows.
type NoDataError struct{}

func (e *NoDataError) Error() string {
	return "no transactions to export"
}

// Row is one transaction line of the report.
type Row struct {
	Date     string
	Time     string
	Name     string
	Comment  string
	Received string
	Paid     string
	Balance  string
	Negative bool
}

// Summary holds the report totals at full precision.
type Summary struct {
	TotalReceived decimal.Decimal
	TotalPaid     decimal.Decimal
	NetBalance    decimal.Decimal
}

// Received renders TotalReceived with two decimals.
func (s Summary) Received() string { return s.TotalReceived.StringFixed(2) }

// Paid renders TotalPaid with two decimals.
func (s Summary) Paid() string { return s.TotalPaid.StringFixed(2) }

// Net renders NetBalance with two decimals.
func (s Summary) Net() string { return s.NetBalance.StringFixed(2) }

// NetNegative reports whether the net balance is below zero.
func (s Summary) NetNegative() bool { return s.NetBalance.IsNegative() }

// Document is the printable report, independent of its textual rendering.
type Document struct {
	Title       string
	GeneratedAt time.Time
	GeneratedOn string
	RecordCount int
	Rows        []Row
	Summary     Summary
	Footer      string
}

// Options tune document metadata.
type Options struct {
	// Zone renders the generation date; nil means UTC.
	Zone *time.Location
	// SystemName replaces DefaultSystemName in the footer.
	SystemName string
	// Brand is appended to the footer as "Generated by <Brand>" when set.
	Brand string
}

// Aggregate sums received and paid over records without intermediate rounding.
func Aggregate(records []ledger.Record) Summary {
	received := decimal.Zero
	paid := decimal.Zero
	for _, rec := range records {
		received = received.Add(rec.Received)
		paid = paid.Add(rec.Paid)
	}
	return Summary{
		TotalReceived: received,
		TotalPaid:     paid,
		NetBalance:    received.Sub(paid),
	}
}

// Title returns the report title for an optional month filter.
func Title(month *ledger.YearMonth) string {
	if month == nil {
		return "Complete Expense Report"
	}
	return "Expense Report - " + month.Title()
}

// Build folds the visible records into a document. records must be in display
// order; month only affects the title. An empty record set yields *NoDataError.
func Build(records []ledger.Record, month *ledger.YearMonth, generatedAt time.Time, opts Options) (*Document, error) {
	if len(records) == 0 {
		return nil, &NoDataError{}
	}

	zone := opts.Zone
	if zone == nil {
		zone = time.UTC
	}
	system := opts.SystemName
	if system == "" {
		system = DefaultSystemName
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		comment := rec.Comment
		if comment == "" {
			comment = NoCommentText
		}
		rows = append(rows, Row{
			Date:     rec.Date,
			Time:     rec.Time,
			Name:     rec.Name,
			Comment:  comment,
			Received: rec.Received.StringFixed(2),
			Paid:     rec.Paid.StringFixed(2),
			Balance:  rec.BalanceText,
			Negative: rec.Balance.IsNegative(),
		})
	}

	local := generatedAt.In(zone)
	footer := fmt.Sprintf("© %d %s", local.Year(), system)
	if opts.Brand != "" {
		footer += " | Generated by " + opts.Brand
	}

	return &Document{
		Title:       Title(month),
		GeneratedAt: generatedAt,
		GeneratedOn: local.Format("1/2/2006"),
		RecordCount: len(rows),
		Rows:        rows,
		Summary:     Aggregate(records),
		Footer:      footer,
	}, nil
}
