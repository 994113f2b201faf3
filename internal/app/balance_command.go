// internal/app/balance_command.go
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/storage"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

func (s *runtimeState) newBalanceCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show SOL and token balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := s.account(address)
			if err != nil {
				return err
			}
			svc, err := s.svc()
			if err != nil {
				return err
			}
			snap := svc.Oracle.Fetch(cmd.Context(), owner)
			if !snap.Available() {
				return snap.Err
			}
			return printSnapshot(s.out(), snap)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Account to inspect (defaults to the keyring key)")
	return cmd
}

func printSnapshot(w io.Writer, snap *balance.Snapshot) error {
	fmt.Fprintf(w, "Account: %s (%s)\n", snap.Account, snap.Network)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSET\tBALANCE\tMINT")
	fmt.Fprintf(tw, "SOL\t%s\t%s\n", amount.FormatDisplay(*snap.Native, amount.NativeDecimals), solana.SolMint)
	for _, h := range snap.Holdings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Metadata.Symbol, h.Display().String(), h.Mint)
	}
	return tw.Flush()
}

// resolveAsset принимает "SOL", адрес минта или символ из локального списка токенов.
func resolveAsset(ctx context.Context, svc *Services, ref string) (token.Asset, error) {
	const op = "app.resolveAsset"
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "SOL") || ref == solana.SolMint.String() {
		return token.Native(), nil
	}

	mint, err := solana.PublicKeyFromBase58(ref)
	if err != nil {
		found, searchErr := svc.Store.SearchTokens(ctx, ref, storage.SearchByName, storage.DefaultSearchLimit)
		if searchErr != nil {
			return token.Asset{}, searchErr
		}
		for _, t := range found {
			if strings.EqualFold(t.Symbol, ref) {
				mint, err = solana.PublicKeyFromBase58(t.Address)
				break
			}
		}
		if err != nil {
			return token.Asset{}, walleterr.Validation(op, fmt.Sprintf("unknown token %q: use a mint address or run 'wallet tokens sync'", ref))
		}
	}

	return token.LoadAsset(ctx, svc.Client, svc.Resolver, mint)
}
