package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/expense-ledger/internal/ledger"
)

// Surface is where a built report is printed. Print returns a human-readable
// location of the result (a path, a URI or a description).
type Surface interface {
	Print(ctx context.Context, doc *Document) (string, error)
}

// Generate builds the report for records and prints it on surface. An empty
// record set returns *NoDataError before the surface is touched.
func Generate(ctx context.Context, records []ledger.Record, month *ledger.YearMonth, now time.Time, opts Options, surface Surface) (string, error) {
	doc, err := Build(records, month, now, opts)
	if err != nil {
		return "", err
	}
	loc, err := surface.Print(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("Generate: print report: %w", err)
	}
	return loc, nil
}

// WriterSurface renders straight to a writer such as stdout.
type WriterSurface struct {
	W      io.Writer
	Format Format
}

// Print implements Surface.
func (s WriterSurface) Print(_ context.Context, doc *Document) (string, error) {
	if err := Render(s.W, doc, s.Format); err != nil {
		return "", err
	}
	return "output", nil
}

// FileSurface writes each report to a new file under Dir.
type FileSurface struct {
	Dir    string
	Format Format
}

// FileName returns the file name used for doc.
func (s FileSurface) FileName(doc *Document) string {
	return "expense-report-" + doc.GeneratedAt.UTC().Format("20060102-150405") + s.Format.Extension()
}

// Print implements Surface.
func (s FileSurface) Print(_ context.Context, doc *Document) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir %q: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, doc, s.Format); err != nil {
		return "", err
	}

	path := filepath.Join(dir, s.FileName(doc))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report %q: %w", path, err)
	}
	return path, nil
}
