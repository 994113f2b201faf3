// internal/fee/estimator.go
package fee

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
)

// Estimate – комиссия сети в лампортах. Known=false означает, что оценка не удалась;
// такое значение никогда не считается покрытым балансом.
type Estimate struct {
	Lamports uint64
	Known    bool
}

// Unknown возвращает неизвестную оценку.
func Unknown() Estimate { return Estimate{} }

// Known возвращает известную оценку.
func Known(lamports uint64) Estimate { return Estimate{Lamports: lamports, Known: true} }

// String форматирует комиссию в SOL.
func (e Estimate) String() string {
	if !e.Known {
		return "unknown"
	}
	return amount.FormatDisplay(e.Lamports, amount.NativeDecimals) + " SOL"
}

type Estimator struct {
	client     blockchain.Client
	logger     *zap.Logger
	commitment rpc.CommitmentType
}

func NewEstimator(client blockchain.Client, logger *zap.Logger, commitment rpc.CommitmentType) *Estimator {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &Estimator{
		client:     client,
		logger:     logger.Named("fee-estimator"),
		commitment: commitment,
	}
}

// Estimate оценивает комиссию для неподписанной транзакции. Любая ошибка даёт Unknown.
func (e *Estimator) Estimate(ctx context.Context, p *transaction.Pending) Estimate {
	bh, err := e.client.GetLatestBlockhash(ctx, e.commitment)
	if err != nil {
		e.logger.Warn("Fee estimate: blockhash unavailable", zap.Error(err))
		return Unknown()
	}
	tx, err := p.Build(bh.Hash)
	if err != nil {
		e.logger.Warn("Fee estimate: cannot build message", zap.Error(err))
		return Unknown()
	}
	lamports, err := e.client.GetFeeForMessage(ctx, &tx.Message, e.commitment)
	if err != nil {
		e.logger.Warn("Fee estimate failed", zap.Error(err))
		return Unknown()
	}
	e.logger.Debug("Fee estimated", zap.Uint64("lamports", lamports))
	return Known(lamports)
}
