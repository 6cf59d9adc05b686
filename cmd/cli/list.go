package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

// clearScreen moves the cursor home and clears the terminal between watch frames.
const clearScreen = "\x1b[H\x1b[2J"

func listCmd(a *app) *cobra.Command {
	var name, month string
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions with their deletion countdowns",
		Long: `Display the ledger newest first. The Delete column shows how long each
transaction can still be deleted, or "Expired". With --watch the table is redrawn
every --interval until every listed transaction has expired or you press Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := a.loadPage(cmd.Context(), name, month, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.Registry().Visible()) == 0 {
				fmt.Fprintln(out, "No transactions found.")
				return nil
			}
			if !watch {
				return renderList(out, page, page.Tick())
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var renderErr error
			err = page.Clock().Run(ctx, interval, func(cds []ledger.Countdown) {
				fmt.Fprint(out, clearScreen)
				if renderErr = renderList(out, page, cds); renderErr != nil {
					cancel()
					return
				}
				if !anyEligible(page.Registry(), cds) {
					fmt.Fprintln(out, "All listed transactions have expired.")
					cancel()
				}
			})
			if renderErr != nil {
				return renderErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "only names containing this text (case-insensitive)")
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep redrawing the countdowns")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "redraw interval with --watch")
	return cmd
}

// anyEligible reports whether a visible record can still be deleted.
func anyEligible(registry *ledger.Registry, cds []ledger.Countdown) bool {
	for _, cd := range cds {
		if cd.State.Eligible && registry.IsVisible(cd.ID) {
			return true
		}
	}
	return false
}

func renderList(out io.Writer, page *ledger.Page, cds []ledger.Countdown) error {
	states := make(map[string]ledger.State, len(cds))
	for _, cd := range cds {
		states[cd.ID] = cd.State
	}
	visible := page.Registry().Visible()

	fmt.Fprintf(out, "Ledger time: %s\n\n", page.WallClock())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Date"),
		headerStyle.Render("Time"),
		headerStyle.Render("Name"),
		headerStyle.Render("Received"),
		headerStyle.Render("Paid"),
		headerStyle.Render("Balance"),
		headerStyle.Render("Delete"),
	)
	for _, rec := range visible {
		display := ledger.ExpiredDisplay
		if st, ok := states[rec.ID]; ok {
			display = st.Display
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.Date, rec.Time, rec.Name,
			rec.Received.StringFixed(2), rec.Paid.StringFixed(2), rec.BalanceText, display)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d transaction(s)\n", len(visible))
	return nil
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.loadPage(cmd.Context(), "", "", nil)
			if err != nil {
				return err
			}
			if err := page.ShowDetail(args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range page.Detail().Fields() {
				fmt.Fprintf(out, "%-9s %s\n", f.Label+":", f.Value)
			}
			if st, ok := page.Clock().State(args[0]); ok {
				fmt.Fprintf(out, "%-9s %s\n", "Delete:", st.Display)
			}
			return nil
		},
	}
}
