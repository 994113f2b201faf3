// internal/swap/builder.go
package swap

import (
	"context"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

// Builder превращает принятую котировку в PendingTransaction. Инструкции
// собирает агрегатор; результат подписывается как непрозрачное сообщение.
type Builder struct {
	agg    Aggregator
	logger *zap.Logger
}

func NewBuilder(agg Aggregator, logger *zap.Logger) *Builder {
	return &Builder{agg: agg, logger: logger.Named("swap-builder")}
}

func (b *Builder) Build(ctx context.Context, quote *Quote, signer solana.PublicKey, opts SwapOptions) (*transaction.Pending, error) {
	const op = "swap.Build"
	if quote == nil {
		return nil, walleterr.Wrap(walleterr.KindBuild, op, "no quote", ErrNoQuote)
	}
	if signer.IsZero() {
		return nil, walleterr.Validation(op, "signer is not set")
	}

	swapTx, err := b.agg.BuildSwap(ctx, quote, signer, opts)
	if err != nil {
		if _, ok := walleterr.As(err); ok {
			return nil, err
		}
		return nil, walleterr.Wrap(walleterr.KindBuild, op, "aggregator build failed", err)
	}
	if swapTx == nil || swapTx.Transaction == nil {
		return nil, walleterr.New(walleterr.KindBuild, op, "aggregator returned no transaction")
	}

	msg := swapTx.Transaction.Message
	display := strconv.FormatUint(quote.InAmount, 10)
	if opts.InputDecimals > 0 {
		display = amount.FormatDisplay(quote.InAmount, opts.InputDecimals)
	}

	b.logger.Info("Swap transaction prepared",
		zap.String("input_mint", quote.InputMint),
		zap.String("output_mint", quote.OutputMint),
		zap.Uint64("in_amount", quote.InAmount),
		zap.Int("instructions", len(msg.Instructions)))

	return &transaction.Pending{
		Message:  &msg,
		FeePayer: signer,
		Summary: transaction.Summary{
			Kind:      "swap",
			Amount:    display,
			Mint:      quote.InputMint,
			Recipient: quote.OutputMint,
		},
	}, nil
}
