package main

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/dvloznov/expense-ledger/internal/api/client"
	"github.com/dvloznov/expense-ledger/internal/ledger"
	"github.com/spf13/cobra"
)

func addCmd(a *app) *cobra.Command {
	var name, comment, received, paid string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Long: `Add a transaction to the ledger. Fill either --received or --paid (or both);
amounts are rounded to two decimal places.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := ledger.ParseEntry(name, comment, received, paid)
			if errors.Is(err, ledger.ErrEmptyEntry) {
				return errors.New(ledger.MsgEmptyEntry)
			}
			if err != nil {
				return err
			}

			row, err := a.client.AddTransaction(cmd.Context(), client.AddRequest{
				Name:           entry.Name,
				Comment:        entry.Comment,
				AmountReceived: entry.Received.StringFixed(2),
				AmountPaid:     entry.Paid.StringFixed(2),
			})
			if err != nil {
				var rej *ledger.ServerRejection
				if errors.As(err, &rej) && rej.Reason != "" {
					return fmt.Errorf("server rejected transaction: %s", rej.Reason)
				}
				return fmt.Errorf("failed to add transaction: %w", err)
			}

			rec, err := ledger.DecodeRecord([]byte(row.Details))
			if err != nil {
				return fmt.Errorf("failed to read added row: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added transaction %s (balance %s)\n", rec.ID, rec.BalanceText)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "transaction name (required)")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")
	cmd.Flags().StringVar(&received, "received", "", "amount received")
	cmd.Flags().StringVar(&paid, "paid", "", "amount paid")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction created within the deletion window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier := &promptNotifier{
				in:     bufio.NewReader(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
				assume: yes,
			}
			page, err := a.loadPage(cmd.Context(), "", "", notifier)
			if err != nil {
				return err
			}

			err = page.Workflow().Delete(cmd.Context(), args[0])
			switch {
			case err == nil:
				return nil
			case errors.Is(err, ledger.ErrCancelled):
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			case errors.Is(err, ledger.ErrExpired):
				// The notifier already printed the expired notice.
				return errors.New("transaction can no longer be deleted")
			}
			return fmt.Errorf("deletion failed: %w", err)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
