// internal/blockchain/solbc/transaction/manager.go
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
)

type Manager struct {
	client    blockchain.Client
	logger    *zap.Logger
	config    Config
	validator *Validator
	monitor   *Monitor
	metrics   *Metrics
	analyzer  *solbc.ErrorAnalyzer
	onState   func(State)
}

type Option func(*Manager)

// WithMetrics подключает общий набор метрик.
func WithMetrics(m *Metrics) Option {
	return func(tm *Manager) { tm.metrics = m }
}

// WithStateHook вызывает fn при каждом переходе состояния.
func WithStateHook(fn func(State)) Option {
	return func(tm *Manager) { tm.onState = fn }
}

func NewManager(client blockchain.Client, logger *zap.Logger, config Config, opts ...Option) *Manager {
	config = config.withDefaults()
	tm := &Manager{
		client:    client,
		logger:    logger.Named("tx-manager"),
		config:    config,
		validator: NewValidator(logger),
		monitor:   NewMonitor(client, logger, config),
		analyzer:  solbc.NewErrorAnalyzer(logger),
	}
	for _, opt := range opts {
		opt(tm)
	}
	if tm.metrics == nil {
		tm.metrics = NewMetrics(nil)
	}
	return tm
}

// SendAndConfirm подписывает, симулирует, отправляет и дожидается подтверждения.
// Результат возвращается всегда; ошибка дублирует Result.Err.
func (tm *Manager) SendAndConfirm(ctx context.Context, p *Pending, signer Signer) (*Result, error) {
	start := time.Now()
	res := tm.run(ctx, p, signer)
	res.Duration = time.Since(start)
	tm.metrics.TrackOutcome(res.State, start)
	tm.setState(res.State)

	if res.Err != nil {
		tm.logger.Error("Transaction failed",
			zap.String("signature", res.Signature.String()),
			zap.String("state", string(res.State)),
			zap.String("kind", walleterr.KindOf(res.Err).String()),
			zap.Error(res.Err))
		return res, res.Err
	}
	tm.logger.Info("Transaction confirmed",
		zap.String("signature", res.Signature.String()),
		zap.Uint64("slot", res.Slot),
		zap.Int("attempts", res.Attempts),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (tm *Manager) run(ctx context.Context, p *Pending, signer Signer) *Result {
	tm.setState(StateIdle)
	if err := tm.validator.ValidatePending(p); err != nil {
		return failed(walleterr.Wrap(walleterr.KindValidation, "submit", "invalid transaction", err))
	}

	tx, bh, fetchedAt, err := tm.signFresh(ctx, p, signer)
	if err != nil {
		return failed(err)
	}

	tm.setState(StateSimulating)
	if err := tm.simulate(ctx, tx); err != nil {
		return failed(err)
	}

	// отправляются только байты, прошедшие симуляцию
	if time.Since(fetchedAt) > tm.config.BlockhashMaxAge {
		tm.logger.Debug("Blockhash is older than max age, re-signing")
		if tx, bh, _, err = tm.signFresh(ctx, p, signer); err != nil {
			return failed(err)
		}
		if err := tm.simulate(ctx, tx); err != nil {
			return failed(err)
		}
	}

	tm.setState(StateSubmitting)
	sig, attempts, err := tm.sendWithRetry(ctx, tx)
	if err != nil {
		res := failed(err)
		res.Attempts = attempts
		return res
	}

	tm.setState(StateConfirming)
	res, _ := tm.monitor.AwaitConfirmation(ctx, sig, bh.LastValidBlockHeight)
	res.Attempts = attempts
	return res
}

func failed(err error) *Result {
	return &Result{State: StateFailed, Err: err}
}

func (tm *Manager) setState(s State) {
	tm.logger.Debug("Transaction state", zap.String("state", string(s)))
	if tm.onState != nil {
		tm.onState(s)
	}
}

// signFresh запрашивает свежий blockhash непосредственно перед подписью.
func (tm *Manager) signFresh(ctx context.Context, p *Pending, signer Signer) (*solana.Transaction, *blockchain.Blockhash, time.Time, error) {
	bh, err := tm.client.GetLatestBlockhash(ctx, tm.config.Commitment)
	if err != nil {
		return nil, nil, time.Time{}, tm.analyzer.Classify("blockhash", err)
	}
	fetchedAt := time.Now()

	tx, err := p.Build(bh.Hash)
	if err != nil {
		return nil, nil, time.Time{}, walleterr.Wrap(walleterr.KindBuild, "submit", "failed to build transaction", err)
	}
	if err := signer.SignTransaction(tx); err != nil {
		return nil, nil, time.Time{}, walleterr.Wrap(walleterr.KindInternal, "sign", "failed to sign transaction", err)
	}
	if err := tm.validator.ValidateSigned(tx); err != nil {
		return nil, nil, time.Time{}, walleterr.Wrap(walleterr.KindInternal, "sign", "signature not applied", err)
	}
	return tx, bh, fetchedAt, nil
}

// simulate прогоняет подписанную транзакцию; ошибка симуляции не повторяется.
func (tm *Manager) simulate(ctx context.Context, tx *solana.Transaction) error {
	sim, err := tm.client.SimulateTransaction(ctx, tx, tm.config.Commitment)
	if err != nil {
		return tm.analyzer.Classify("simulate", err)
	}
	if sim.Err != nil {
		e := walleterr.New(walleterr.KindSimulation, "simulate", fmt.Sprintf("simulation failed: %v", sim.Err))
		e.Logs = sim.Logs
		e.Payload = sim.Err
		tm.logger.Warn("Simulation failed",
			zap.Any("err", sim.Err),
			zap.Strings("logs", sim.Logs),
			zap.Uint64("units_consumed", sim.UnitsConsumed))
		return e
	}
	tm.logger.Debug("Simulation ok", zap.Uint64("units_consumed", sim.UnitsConsumed))
	return nil
}

// sendWithRetry отправляет одни и те же подписанные байты не более MaxRetries раз.
func (tm *Manager) sendWithRetry(ctx context.Context, tx *solana.Transaction) (solana.Signature, int, error) {
	attempts := 0
	operation := func() (solana.Signature, error) {
		attempts++
		signature, err := tm.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
			SkipPreflight:       tm.config.SkipPreflight,
			PreflightCommitment: tm.config.Commitment,
		})
		tm.metrics.TrackAttempt(err)
		if err == nil {
			return signature, nil
		}

		classified := tm.analyzer.Classify("submit", err)
		if !walleterr.Retryable(classified) {
			return solana.Signature{}, backoff.Permanent(classified)
		}
		tm.logger.Warn("Submission attempt failed",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", tm.config.MaxRetries),
			zap.Error(err))
		return solana.Signature{}, classified
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = tm.config.RetryDelay
	b.MaxInterval = 8 * tm.config.RetryDelay

	signature, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(tm.config.MaxRetries)),
	)
	if err != nil {
		if _, ok := walleterr.As(err); !ok {
			err = tm.analyzer.Classify("submit", err)
		}
		if walleterr.Retryable(err) {
			err = walleterr.Wrap(walleterr.KindTransientNetwork, "submit",
				fmt.Sprintf("giving up after %d attempts", attempts), err)
		}
		return solana.Signature{}, attempts, err
	}
	if signature.IsZero() {
		signature = tx.Signatures[0]
	}
	return signature, attempts, nil
}
