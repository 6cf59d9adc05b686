package main

import (
	"github.com/dvloznov/expense-ledger/internal/report"
	"github.com/dvloznov/expense-ledger/internal/tui"
	"github.com/spf13/cobra"
)

func tuiCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard",
		Long: `Open the terminal dashboard: live deletion countdowns, name and month filters,
record details, deletion with confirmation and report printing.

Keys: / name filter, m month filter, Enter details, d delete, p print, r reload, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(a.cfg.Report.Format)
			if err != nil {
				return err
			}
			if out == "-" {
				out = ""
			}
			surface, err := newSurface(a.cfg.Report, out, format, cmd.OutOrStdout(), a.log)
			if err != nil {
				return err
			}

			a.log.Info().Str("server", a.cfg.Server.BaseURL).Msg("Starting dashboard")
			return tui.Run(cmd.Context(), tui.Config{
				Rows:    a.client,
				Deleter: a.client,
				Tokens:  a.client,
				Surface: surface,
				Report:  a.reportOptions(),
				Zone:    a.zone,
				Window:  a.cfg.Ledger.DeleteWindow,
				Now:     a.now,
				Log:     a.log,
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "report directory or gs://bucket/prefix")
	return cmd
}
