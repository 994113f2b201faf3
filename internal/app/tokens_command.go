// internal/app/tokens_command.go
package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/storage"
)

func (s *runtimeState) newTokensCommand() *cobra.Command {
	root := &cobra.Command{Use: "tokens", Short: "Token list cache"}

	var force bool
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Download the aggregator token list into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.svc()
			if err != nil {
				return err
			}
			n, err := svc.Syncer.Sync(cmd.Context(), force)
			if err != nil {
				return err
			}
			if n == 0 && !force {
				fmt.Fprintln(s.out(), "Token list is up to date")
				return nil
			}
			fmt.Fprintf(s.out(), "Synced %d tokens\n", n)
			return nil
		},
	}
	sync.Flags().BoolVar(&force, "force", false, "Sync even if the list is fresh")

	var kind string
	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search synced tokens by address, symbol or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sk := storage.SearchKind(kind)
			switch sk {
			case storage.SearchAny, storage.SearchByAddress, storage.SearchByName:
			default:
				return walleterr.Validation("tokens.search", fmt.Sprintf("unknown search kind %q", kind))
			}
			svc, err := s.svc()
			if err != nil {
				return err
			}
			found, err := svc.Store.SearchTokens(cmd.Context(), args[0], sk, limit)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(s.out(), "No tokens found")
				return nil
			}
			tw := tabwriter.NewWriter(s.out(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tNAME\tDECIMALS\tADDRESS")
			for _, t := range found {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.Symbol, t.Name, t.Decimals, t.Address)
			}
			return tw.Flush()
		},
	}
	search.Flags().StringVar(&kind, "kind", string(storage.SearchAny), "Match on: any, address or name")
	search.Flags().IntVar(&limit, "limit", storage.DefaultSearchLimit, "Maximum results")

	root.AddCommand(sync, search)
	return root
}
