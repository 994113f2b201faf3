// internal/app/history_command.go
package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-wallet/internal/history"
)

func (s *runtimeState) newHistoryCommand() *cobra.Command {
	var (
		address, before, export, dir string
		limit                        int
		local                        bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List account transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var format history.Format
			if export != "" {
				f, err := history.ParseFormat(export)
				if err != nil {
					return err
				}
				format = f
			}

			owner, err := s.account(address)
			if err != nil {
				return err
			}
			svc, err := s.svc()
			if err != nil {
				return err
			}

			var entries []history.Entry
			var next string
			if local {
				if limit <= 0 {
					limit = history.DefaultPageSize
				}
				txs, err := svc.Store.ListTransactions(ctx, owner.String(), limit, 0)
				if err != nil {
					return err
				}
				entries = history.FromJournal(txs)
			} else {
				page, err := svc.History.Page(ctx, owner.String(), before, limit)
				if err != nil {
					return err
				}
				entries = page.Entries
				if page.HasMore {
					next = page.Next
				}
			}

			printHistory(s.out(), entries, local)
			if next != "" {
				fmt.Fprintf(s.out(), "More: wallet history --before %s\n", next)
			}
			if export != "" {
				path, err := svc.Exporter.Export(entries, format, dir, owner.String())
				if err != nil {
					return err
				}
				fmt.Fprintf(s.out(), "Exported %d transactions to %s\n", len(entries), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Account to inspect (defaults to the keyring key)")
	cmd.Flags().StringVar(&before, "before", "", "Return transactions older than this signature")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultPageSize, "Page size")
	cmd.Flags().BoolVar(&local, "local", false, "Show the local journal of submitted transactions")
	cmd.Flags().StringVar(&export, "export", "", "Export the listed page: csv or json")
	cmd.Flags().StringVar(&dir, "dir", ".", "Export directory")
	return cmd
}

func printHistory(w io.Writer, entries []history.Entry, local bool) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No transactions")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if local {
		fmt.Fprintln(tw, "TIME\tKIND\tAMOUNT\tMINT\tSTATUS\tSIGNATURE")
	} else {
		fmt.Fprintln(tw, "TIME\tSLOT\tSTATUS\tSIGNATURE")
	}
	for _, e := range entries {
		ts := "-"
		if e.BlockTime != nil {
			ts = e.BlockTime.Format("2006-01-02 15:04:05")
		}
		if local {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", ts, e.Kind, e.Amount, e.Mint, e.Status, e.Signature)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", ts, e.Slot, e.Status, e.Signature)
	}
	_ = tw.Flush()
}
