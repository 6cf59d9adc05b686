package gcsuploader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	bucket      string
	object      string
	data        []byte
	contentType string
	err         error
}

func (m *memoryStore) Upload(_ context.Context, bucket, object string, data []byte, contentType string) error {
	m.bucket, m.object, m.data, m.contentType = bucket, object, data, contentType
	return m.err
}

func (m *memoryStore) Fetch(context.Context, string) ([]byte, error) {
	return m.data, m.err
}

func testDocument(t *testing.T) *report.Document {
	t.Helper()
	rec, err := ledger.DecodeRecord([]byte(`{"id":"1","name":"Coffee","paid":"3.50","balance":"-3.50"}`))
	require.NoError(t, err)
	doc, err := report.Build([]ledger.Record{rec}, nil, time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC), report.Options{})
	require.NoError(t, err)
	return doc
}

func TestReportSurface_Print(t *testing.T) {
	store := &memoryStore{}
	s := &ReportSurface{
		Store:  store,
		Bucket: "ledger-reports",
		Prefix: "/reports/",
		Format: report.FormatHTML,
		Log:    zerolog.Nop(),
		NewID:  func() string { return "abc" },
	}

	uri, err := s.Print(context.Background(), testDocument(t))
	require.NoError(t, err)

	assert.Equal(t, "gs://ledger-reports/reports/2025/08/25/abc.html", uri)
	assert.Equal(t, "ledger-reports", store.bucket)
	assert.Equal(t, "reports/2025/08/25/abc.html", store.object)
	assert.Equal(t, "text/html; charset=utf-8", store.contentType)
	assert.Contains(t, string(store.data), "Complete Expense Report")
}

func TestReportSurface_Errors(t *testing.T) {
	_, err := (&ReportSurface{Store: &memoryStore{}}).Print(context.Background(), testDocument(t))
	assert.Error(t, err)

	store := &memoryStore{err: errors.New("permission denied")}
	_, err = (&ReportSurface{Store: store, Bucket: "b", Log: zerolog.Nop()}).Print(context.Background(), testDocument(t))
	assert.ErrorContains(t, err, "permission denied")
}

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://my-bucket/path/to/snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/snapshot.json", object)

	for _, bad := range []string{"s3://b/o", "gs://bucket", "gs://bucket/", "gs:///object"} {
		_, _, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestObjectName(t *testing.T) {
	at := time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025/01/02/x.txt", ObjectName("", at, "x", ".txt"))
	assert.Equal(t, "a/b/2025/01/02/x.html", ObjectName("a/b", at, "x", ".html"))
}
