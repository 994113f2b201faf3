// internal/app/swap_command.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/swap"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

type swapArgs struct {
	in, out  token.Asset
	input    swap.Input
	slippage uint16
}

func (s *runtimeState) swapInput(ctx context.Context, svc *Services, args []string, slippage uint16) (swapArgs, error) {
	in, err := resolveAsset(ctx, svc, args[0])
	if err != nil {
		return swapArgs{}, err
	}
	out, err := resolveAsset(ctx, svc, args[1])
	if err != nil {
		return swapArgs{}, err
	}
	if slippage == 0 {
		slippage = s.cfg.Swap.SlippageBps
	}
	return swapArgs{
		in:       in,
		out:      out,
		slippage: slippage,
		input: swap.Input{
			InputMint:   in.Mint.String(),
			OutputMint:  out.Mint.String(),
			Amount:      args[2],
			InDecimals:  in.Decimals,
			OutDecimals: out.Decimals,
			SlippageBps: slippage,
		},
	}, nil
}

func (s *runtimeState) newQuoteCommand() *cobra.Command {
	var slippage uint16
	var watch bool
	cmd := &cobra.Command{
		Use:   "quote <input> <output> <amount>",
		Short: "Get a swap quote",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := s.svc()
			if err != nil {
				return err
			}
			sa, err := s.swapInput(ctx, svc, args, slippage)
			if err != nil {
				return err
			}
			if !watch {
				view := svc.Quoter.Update(ctx, sa.input)
				if view.State != swap.StateQuoteReady {
					return quoteFailure(view)
				}
				printQuote(s.out(), view, sa)
				return nil
			}

			// обновления приходят через шину; печатаем только готовые котировки
			updates := make(chan struct{}, 1)
			sub := svc.Bus.SubscribeFunc(func(context.Context, events.Event) error {
				select {
				case updates <- struct{}{}:
				default:
				}
				return nil
			}, events.QuoteUpdated)
			defer sub.Unsubscribe()

			last := uint64(0)
			view := svc.Quoter.Watch(ctx, sa.input)
			for {
				if view.State == swap.StateQuoteReady && view.Generation != last {
					last = view.Generation
					printQuote(s.out(), view, sa)
				} else if view.State == swap.StateQuoteError && view.Generation != last {
					last = view.Generation
					fmt.Fprintf(s.out(), "Quote error: %v\n", view.Err)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-updates:
					view = svc.Quoter.Current()
				}
			}
		},
	}
	cmd.Flags().Uint16Var(&slippage, "slippage", 0, "Slippage tolerance in basis points (defaults to config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep refreshing the quote until interrupted")
	return cmd
}

func (s *runtimeState) newSwapCommand() *cobra.Command {
	var slippage uint16
	cmd := &cobra.Command{
		Use:   "swap <input> <output> <amount>",
		Short: "Swap tokens through the aggregator",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			signer, err := s.signer()
			if err != nil {
				return err
			}
			svc, err := s.svc()
			if err != nil {
				return err
			}
			sa, err := s.swapInput(ctx, svc, args, slippage)
			if err != nil {
				return err
			}

			view := svc.Quoter.Update(ctx, sa.input)
			if view.State != swap.StateQuoteReady {
				return quoteFailure(view)
			}
			printQuote(s.out(), view, sa)
			quote, err := svc.Quoter.Accept()
			if err != nil {
				return err
			}

			opts := swap.DefaultSwapOptions()
			opts.InputDecimals = sa.in.Decimals
			pending, err := svc.Swaps.Build(ctx, quote, signer.Address(), opts)
			if err != nil {
				return err
			}

			return s.submit(ctx, svc, submission{
				kind:    "swap",
				signer:  signer,
				pending: pending,
				asset:   sa.in,
				amount:  sa.input.Amount,
				// котировка могла устареть, пока ждали подтверждения
				beforeSubmit: func() error {
					if _, err := svc.Quoter.Accept(); err != nil {
						if errors.Is(err, swap.ErrQuoteStale) {
							return walleterr.Wrap(walleterr.KindValidation, "swap", "quote expired before submission, run the swap again", err)
						}
						return err
					}
					return nil
				},
			})
		},
	}
	cmd.Flags().Uint16Var(&slippage, "slippage", 0, "Slippage tolerance in basis points (defaults to config)")
	cmd.Flags().BoolVarP(&s.flags.Yes, "yes", "y", false, "Submit without confirmation")
	return cmd
}

func quoteFailure(view swap.View) error {
	if view.Err != nil {
		return view.Err
	}
	return walleterr.Validation("quote", "amount is required")
}

func printQuote(w io.Writer, view swap.View, sa swapArgs) {
	d := swap.Details(view.Quote, sa.in.Decimals, sa.out.Decimals)
	fmt.Fprintf(w, "Quote #%d: %s %s → %s %s\n", view.Generation, d.InAmount, sa.in, d.OutAmount, sa.out)
	fmt.Fprintf(w, "  Rate:             1 %s = %s %s\n", sa.in, d.Rate, sa.out)
	fmt.Fprintf(w, "  Minimum received: %s %s (slippage %d bps)\n", d.MinimumReceived, sa.out, sa.slippage)
	impact := d.PriceImpactPct.String() + "%"
	if d.HighImpact() {
		impact += " (high)"
	}
	fmt.Fprintf(w, "  Price impact:     %s\n", impact)
	fmt.Fprintf(w, "  Route:            %s\n", d.Route)
	for _, f := range d.Fees {
		fmt.Fprintf(w, "  Route fee:        %s\n", feeLabel(f, sa))
	}
}

func feeLabel(f swap.Fee, sa swapArgs) string {
	switch f.Mint {
	case sa.in.Mint.String():
		return amount.FormatDisplay(f.Amount, sa.in.Decimals) + " " + sa.in.String()
	case sa.out.Mint.String():
		return amount.FormatDisplay(f.Amount, sa.out.Decimals) + " " + sa.out.String()
	}
	return strconv.FormatUint(f.Amount, 10) + " (raw) " + f.Mint
}
