package gcsuploader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReportSurface prints reports by uploading them to a bucket.
type ReportSurface struct {
	Store  ObjectStore
	Bucket string
	Prefix string
	Format report.Format
	Log    zerolog.Logger

	// NewID names uploaded objects; nil means a random UUID.
	NewID func() string
}

// Print implements report.Surface. It returns the gs:// URI of the upload.
func (s *ReportSurface) Print(ctx context.Context, doc *report.Document) (string, error) {
	if s.Bucket == "" {
		return "", fmt.Errorf("ReportSurface: bucket is not configured")
	}
	store := s.Store
	if store == nil {
		store = NewGCSStorageService()
	}
	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, doc, s.Format); err != nil {
		return "", err
	}

	object := ObjectName(s.Prefix, doc.GeneratedAt, newID(), s.Format.Extension())
	if err := store.Upload(ctx, s.Bucket, object, buf.Bytes(), s.Format.ContentType()); err != nil {
		return "", fmt.Errorf("ReportSurface: upload %s: %w", object, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", s.Bucket, object)
	s.Log.Info().
		Str("uri", uri).
		Int("records", doc.RecordCount).
		Msg("Report uploaded")
	return uri, nil
}
