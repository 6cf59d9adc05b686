package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2025, 8, 31, 21, 30, 0, 0, time.UTC)

func decode(t *testing.T, blobs ...string) []ledger.Record {
	t.Helper()
	out := make([]ledger.Record, 0, len(blobs))
	for _, b := range blobs {
		rec, err := ledger.DecodeRecord([]byte(b))
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func scenarioRecords(t *testing.T) []ledger.Record {
	return decode(t,
		`{"id":"A","name":"Coffee","date":"2025-08-05","time":"09:15","received":"0","paid":"3.50","balance":"-3.50","created_at":1}`,
		`{"id":"B","name":"Salary","date":"2025-08-31","time":"18:00","comment":"August","received":"1000","paid":"0","balance":"996.50","created_at":2}`,
	)
}

func TestBuild_Scenario(t *testing.T) {
	month := ledger.YearMonth{Year: 2025, Month: time.August}
	doc, err := Build(scenarioRecords(t), &month, generatedAt, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Expense Report - August 2025", doc.Title)
	assert.Equal(t, 2, doc.RecordCount)
	assert.Equal(t, "1000.00", doc.Summary.Received())
	assert.Equal(t, "3.50", doc.Summary.Paid())
	assert.Equal(t, "996.50", doc.Summary.Net())
	assert.True(t, doc.Summary.NetBalance.Equal(doc.Summary.TotalReceived.Sub(doc.Summary.TotalPaid)))

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, NoCommentText, doc.Rows[0].Comment)
	assert.True(t, doc.Rows[0].Negative)
	assert.Equal(t, "August", doc.Rows[1].Comment)
	assert.False(t, doc.Rows[1].Negative)
}

func TestBuild_NoData(t *testing.T) {
	doc, err := Build(nil, nil, generatedAt, Options{})
	assert.Nil(t, doc)

	var noData *NoDataError
	assert.ErrorAs(t, err, &noData)
}

func TestBuild_Metadata(t *testing.T) {
	karachi, err := time.LoadLocation("Asia/Karachi")
	require.NoError(t, err)

	doc, err := Build(scenarioRecords(t), nil, generatedAt, Options{Zone: karachi, Brand: "Zshan"})
	require.NoError(t, err)

	assert.Equal(t, "Complete Expense Report", doc.Title)
	// 21:30 UTC is already the next day in Karachi.
	assert.Equal(t, "9/1/2025", doc.GeneratedOn)
	assert.Equal(t, "© 2025 Expense Management System | Generated by Zshan", doc.Footer)
}

func TestAggregate_FullPrecision(t *testing.T) {
	records := decode(t,
		`{"id":"1","received":"0.005"}`,
		`{"id":"2","received":"0.005"}`,
		`{"id":"3","received":"0.005"}`,
		`{"id":"4","paid":"0.001"}`,
	)
	s := Aggregate(records)
	assert.Equal(t, "0.02", s.Received())
	assert.Equal(t, "0.00", s.Paid())
	assert.Equal(t, "0.01", s.Net())
	assert.Equal(t, "0.014", s.NetBalance.String())
}

func TestAggregate_Idempotent(t *testing.T) {
	records := scenarioRecords(t)
	month := ledger.YearMonth{Year: 2025, Month: time.August}

	render := func() []byte {
		doc, err := Build(records, &month, generatedAt, Options{})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, RenderHTML(&buf, doc))
		return buf.Bytes()
	}
	assert.Equal(t, render(), render())
}

func TestRenderHTML(t *testing.T) {
	records := decode(t, `{"id":"X","name":"<script>alert(1)</script>","received":"5","balance":"5.00"}`)
	doc, err := Build(records, nil, generatedAt, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, doc))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<h1>Complete Expense Report</h1>")
	assert.Contains(t, out, "Total Records: 1")
	assert.Contains(t, out, `<td class="positive-balance">5.00</td>`)
	assert.Contains(t, out, "Financial Summary")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderText(t *testing.T) {
	doc, err := Build(scenarioRecords(t), nil, generatedAt, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, doc))
	out := buf.String()

	assert.Contains(t, out, "Complete Expense Report\n")
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "Total Received: 1000.00")
	assert.Contains(t, out, "Net Balance:    996.50")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	f, err = ParseFormat("TXT")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)
	assert.Equal(t, ".txt", f.Extension())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

type recordingSurface struct {
	docs []*Document
}

func (s *recordingSurface) Print(_ context.Context, doc *Document) (string, error) {
	s.docs = append(s.docs, doc)
	return "memory", nil
}

func TestGenerate(t *testing.T) {
	surface := &recordingSurface{}

	_, err := Generate(context.Background(), nil, nil, generatedAt, Options{}, surface)
	var noData *NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Empty(t, surface.docs)

	loc, err := Generate(context.Background(), scenarioRecords(t), nil, generatedAt, Options{}, surface)
	require.NoError(t, err)
	assert.Equal(t, "memory", loc)
	require.Len(t, surface.docs, 1)
}

func TestFileSurface(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	doc, err := Build(scenarioRecords(t), nil, generatedAt, Options{})
	require.NoError(t, err)

	path, err := FileSurface{Dir: dir, Format: FormatHTML}.Print(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "expense-report-20250831-213000.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Complete Expense Report")
}

func TestWriterSurface(t *testing.T) {
	doc, err := Build(scenarioRecords(t), nil, generatedAt, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = WriterSurface{W: &buf, Format: FormatText}.Print(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Financial Summary")
}
