// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

type Monitor struct {
	client blockchain.Client
	logger *zap.Logger
	config Config
}

func NewMonitor(client blockchain.Client, logger *zap.Logger, config Config) *Monitor {
	return &Monitor{
		client: client,
		logger: logger.Named("tx-monitor"),
		config: config.withDefaults(),
	}
}

// reached сообщает, достигнут ли требуемый уровень подтверждения.
func reached(status rpc.ConfirmationStatusType, target rpc.CommitmentType) bool {
	switch target {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status != ""
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}

// checkStatus возвращает терминальный результат, если леджер уже знает о транзакции.
func (m *Monitor) checkStatus(ctx context.Context, signature solana.Signature) (*Result, error) {
	response, err := m.client.GetSignatureStatuses(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return nil, nil
	}

	status := response.Value[0]
	if status.Err != nil {
		return &Result{
			Signature: signature,
			State:     StateRejected,
			Slot:      status.Slot,
			Err: &walleterr.Error{
				Kind:    walleterr.KindOnChainRejection,
				Op:      "confirm",
				Msg:     fmt.Sprintf("transaction failed on-chain: %v", status.Err),
				Payload: status.Err,
			},
		}, nil
	}
	if !reached(status.ConfirmationStatus, m.config.Commitment) {
		return nil, nil
	}
	return &Result{
		Signature: signature,
		Success:   true,
		State:     StateConfirmed,
		Slot:      status.Slot,
	}, nil
}

// expired сообщает, что высота блока превысила срок действия blockhash.
func (m *Monitor) expired(ctx context.Context, lastValidBlockHeight uint64) bool {
	height, err := m.client.GetBlockHeight(ctx, m.config.Commitment)
	if err != nil {
		m.logger.Warn("Block height check failed", zap.Error(err))
		return false
	}
	return height > lastValidBlockHeight
}

// AwaitConfirmation опрашивает статус, пока транзакция не попадёт в леджер
// либо не истечёт окно действия blockhash. ConfirmTimeout ограничивает ожидание,
// когда высота блока недоступна.
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature, lastValidBlockHeight uint64) (*Result, error) {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(m.config.ConfirmTimeout)
	defer deadline.Stop()

	for round := 1; ; round++ {
		res, err := m.checkStatus(ctx, signature)
		switch {
		case err != nil:
			m.logger.Warn("Confirmation check failed", zap.Int("round", round), zap.Error(err))
		case res != nil:
			m.logger.Debug("Transaction landed",
				zap.String("signature", signature.String()),
				zap.String("state", string(res.State)),
				zap.Int("round", round))
			return res, res.Err
		}

		if m.expired(ctx, lastValidBlockHeight) {
			return m.lastCheck(ctx, signature, "blockhash expired before the transaction was observed")
		}

		select {
		case <-ctx.Done():
			return m.timedOut(signature, "confirmation wait cancelled", ctx.Err())
		case <-deadline.C:
			m.logger.Warn("Confirmation wait exceeded", zap.Duration("timeout", m.config.ConfirmTimeout), zap.Int("rounds", round))
			return m.lastCheck(ctx, signature, fmt.Sprintf("no confirmation observed within %s", m.config.ConfirmTimeout))
		case <-ticker.C:
		}
	}
}

// lastCheck: транзакция могла попасть в блок на границе окна.
func (m *Monitor) lastCheck(ctx context.Context, signature solana.Signature, msg string) (*Result, error) {
	if res, err := m.checkStatus(ctx, signature); err == nil && res != nil {
		return res, res.Err
	}
	return m.timedOut(signature, msg, nil)
}

func (m *Monitor) timedOut(signature solana.Signature, msg string, cause error) (*Result, error) {
	err := walleterr.Wrap(walleterr.KindConfirmationTimeout, "confirm",
		msg+"; the transaction may or may not have succeeded, check before retrying", cause)
	m.logger.Warn("Transaction outcome is ambiguous", zap.String("signature", signature.String()))
	return &Result{Signature: signature, State: StateTimedOut, Err: err}, err
}
