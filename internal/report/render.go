package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"balanceClass": balanceClass}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

func balanceClass(negative bool) string {
	if negative {
		return "negative-balance"
	}
	return "positive-balance"
}

// Format selects a report rendering.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// ParseFormat accepts "html", "text" or "txt".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return ".html"
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatText {
		return "text/plain; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}

// Render writes doc to w in the given format.
func Render(w io.Writer, doc *Document, format Format) error {
	if format == FormatText {
		return RenderText(w, doc)
	}
	return RenderHTML(w, doc)
}

// RenderHTML writes the self-contained printable HTML document.
func RenderHTML(w io.Writer, doc *Document) error {
	if err := htmlTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("RenderHTML: %w", err)
	}
	return nil
}

// RenderText writes a plain-text rendition suitable for a terminal.
func RenderText(w io.Writer, doc *Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", doc.Title)
	fmt.Fprintf(&b, "Generated on: %s\n", doc.GeneratedOn)
	fmt.Fprintf(&b, "Total Records: %d\n\n", doc.RecordCount)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tTime\tName\tComment\tReceived\tPaid\tBalance\t")
	for _, row := range doc.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.Date, row.Time, row.Name, row.Comment, row.Received, row.Paid, row.Balance)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("RenderText: %w", err)
	}

	fmt.Fprintf(&b, "\nFinancial Summary\n")
	fmt.Fprintf(&b, "  Total Received: %s\n", doc.Summary.Received())
	fmt.Fprintf(&b, "  Total Paid:     %s\n", doc.Summary.Paid())
	fmt.Fprintf(&b, "  Net Balance:    %s\n", doc.Summary.Net())
	fmt.Fprintf(&b, "\n%s\n", doc.Footer)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("RenderText: %w", err)
	}
	return nil
}
