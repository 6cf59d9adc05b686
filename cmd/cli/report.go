package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/expense-ledger/internal/config"
	"github.com/dvloznov/expense-ledger/internal/gcsuploader"
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/dvloznov/expense-ledger/internal/snapshot"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newSurface picks where reports go. out overrides the configuration:
// "-" is stdout, a gs://bucket/prefix URI uploads, anything else is a directory.
// Without out, a configured bucket wins over the report directory.
func newSurface(rc config.ReportConfig, out string, format report.Format, stdout io.Writer, log zerolog.Logger) (report.Surface, error) {
	switch {
	case out == "-":
		return report.WriterSurface{W: stdout, Format: format}, nil
	case gcsuploader.IsURI(out):
		trimmed := strings.TrimPrefix(out, "gs://")
		bucket, prefix, _ := strings.Cut(trimmed, "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid GCS destination %q", out)
		}
		return &gcsuploader.ReportSurface{Bucket: bucket, Prefix: prefix, Format: format, Log: log}, nil
	case out != "":
		return report.FileSurface{Dir: out, Format: format}, nil
	case rc.Bucket != "":
		return &gcsuploader.ReportSurface{Bucket: rc.Bucket, Prefix: rc.Prefix, Format: format, Log: log}, nil
	}
	return report.FileSurface{Dir: rc.Dir, Format: format}, nil
}

func (a *app) reportOptions() report.Options {
	return report.Options{Zone: a.zone, Brand: a.cfg.Report.Brand}
}

func reportCmd(a *app) *cobra.Command {
	var name, month, format, out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report of the (filtered) transactions",
		Long: `Build the printable expense report of the visible transactions and print it to
the configured surface: a file under report.dir, an object under report.bucket,
or stdout with --out -.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == "" {
				format = a.cfg.Report.Format
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			surface, err := newSurface(a.cfg.Report, out, f, cmd.OutOrStdout(), a.log)
			if err != nil {
				return err
			}

			page, err := a.loadPage(cmd.Context(), name, month, nil)
			if err != nil {
				return err
			}
			records, ym := page.ReportInput()

			loc, err := report.Generate(cmd.Context(), records, ym, a.now(), a.reportOptions(), surface)
			var noData *report.NoDataError
			if errors.As(err, &noData) {
				return errors.New("no transactions to export")
			}
			if err != nil {
				return err
			}
			if out != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "only names containing this text (case-insensitive)")
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&format, "format", "", "html or text (default report.format)")
	cmd.Flags().StringVarP(&out, "out", "o", "", `directory, gs://bucket/prefix or "-" for stdout`)
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file|gs://bucket/object>",
		Short: "Save the server's rows as a JSON snapshot",
		Long: `Export every row as a JSON snapshot that a server can be seeded from
(source.kind: json).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blobs, err := a.client.FetchRows(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			var store gcsuploader.ObjectStore
			if gcsuploader.IsURI(args[0]) {
				store = gcsuploader.NewGCSStorageService()
			}
			if err := snapshot.Export(cmd.Context(), args[0], blobs, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(blobs), args[0])
			return nil
		},
	}
}
