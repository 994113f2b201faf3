// internal/report/reporter.go
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/explorer"
	"github.com/rovshanmuradov/solana-wallet/internal/storage"
	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

// AmbiguousWarning показывается пользователю, если окно действия blockhash
// истекло без наблюдаемого результата.
const AmbiguousWarning = "The transaction may or may not have succeeded. Check the explorer before retrying."

// Refresher обновляет баланс после того, как транзакция попала в леджер.
type Refresher interface {
	Refresh(ctx context.Context) (*balance.Snapshot, error)
}

// Outcome – то, что видит пользователь после отправки.
type Outcome struct {
	Signature   string
	State       transaction.State
	Success     bool
	Ambiguous   bool
	ExplorerURL string
	Message     string
	// Logs – логи программ для ошибок симуляции.
	Logs []string
}

// Reporter доводит терминальный результат до пользователя: событие, запись в
// журнал, ссылка в обозревателе и обновление баланса.
type Reporter struct {
	journal  storage.Journal
	bus      events.Publisher
	balances Refresher
	explorer explorer.Explorer
	network  string
	logger   *zap.Logger
}

func NewReporter(journal storage.Journal, bus events.Publisher, balances Refresher, exp explorer.Explorer, network string, logger *zap.Logger) *Reporter {
	return &Reporter{
		journal:  journal,
		bus:      bus,
		balances: balances,
		explorer: exp,
		network:  network,
		logger:   logger.Named("reporter"),
	}
}

// StateHook возвращает обработчик переходов состояния для transaction.WithStateHook.
func (r *Reporter) StateHook(kind string) func(transaction.State) {
	return func(s transaction.State) {
		if r.bus == nil {
			return
		}
		_ = r.bus.Publish(events.TransactionStateChangedEvent{
			BaseEvent: events.NewBase(events.TransactionStateChanged),
			Kind:      kind,
			State:     string(s),
			Terminal:  s.Terminal(),
		})
	}
}

// Report публикует итог, пишет его в журнал и запускает обновление баланса,
// если транзакция попала в леджер (успешно или с ошибкой).
func (r *Reporter) Report(ctx context.Context, owner string, summary transaction.Summary, res *transaction.Result) Outcome {
	if res == nil {
		res = &transaction.Result{State: transaction.StateFailed, Err: walleterr.New(walleterr.KindInternal, "report", "no result")}
	}
	out := r.outcome(res)

	if out.Signature != "" {
		r.journalResult(ctx, owner, summary, res)
	}

	if r.bus != nil {
		ev := events.TransactionCompletedEvent{
			BaseEvent:   events.NewBase(events.TransactionCompleted),
			Signature:   out.Signature,
			Kind:        summary.Kind,
			Amount:      summary.Amount,
			Mint:        summary.Mint,
			Recipient:   summary.Recipient,
			State:       string(res.State),
			Success:     res.Success,
			Ambiguous:   out.Ambiguous,
			ExplorerURL: out.ExplorerURL,
		}
		if res.Err != nil {
			ev.ErrorKind = walleterr.KindOf(res.Err).String()
			ev.Error = res.Err.Error()
		}
		if err := r.bus.Publish(ev); err != nil {
			r.logger.Warn("Failed to publish transaction result", zap.Error(err))
		}
	}

	if landed(res.State) && r.balances != nil {
		if _, err := r.balances.Refresh(ctx); err != nil && !errors.Is(err, balance.ErrSessionChanged) {
			r.logger.Warn("Balance refresh after transaction failed", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("kind", summary.Kind),
		zap.String("signature", out.Signature),
		zap.String("state", string(res.State)),
	}
	switch {
	case res.Success:
		r.logger.Info("Transaction reported", fields...)
	case out.Ambiguous:
		r.logger.Warn("Transaction outcome unknown", fields...)
	default:
		r.logger.Error("Transaction reported as failed", append(fields, zap.Error(res.Err))...)
	}
	return out
}

func (r *Reporter) outcome(res *transaction.Result) Outcome {
	out := Outcome{
		State:     res.State,
		Success:   res.Success,
		Ambiguous: res.Ambiguous() || walleterr.Ambiguous(res.Err),
	}
	if !res.Signature.IsZero() {
		out.Signature = res.Signature.String()
		out.ExplorerURL = r.explorer.TxURL(out.Signature)
	}
	if e, ok := walleterr.As(res.Err); ok {
		out.Logs = e.Logs
	}
	out.Message = describe(res, out.Ambiguous)
	return out
}

func (r *Reporter) journalResult(ctx context.Context, owner string, summary transaction.Summary, res *transaction.Result) {
	if r.journal == nil {
		return
	}
	sig := res.Signature.String()
	var errKind, errMsg string
	if res.Err != nil {
		errKind = walleterr.KindOf(res.Err).String()
		errMsg = res.Err.Error()
	}

	err := r.journal.UpdateTransactionState(ctx, sig, string(res.State), errKind, errMsg)
	if err == nil {
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("Failed to update journal entry", zap.String("signature", sig), zap.Error(err))
		return
	}
	entry := &models.Transaction{
		Signature:     sig,
		WalletAddress: owner,
		Network:       r.network,
		Kind:          summary.Kind,
		Amount:        summary.Amount,
		Mint:          summary.Mint,
		Recipient:     summary.Recipient,
		State:         string(res.State),
		ErrorKind:     errKind,
		ErrorMessage:  errMsg,
		Slot:          res.Slot,
	}
	if err := r.journal.SaveTransaction(ctx, entry); err != nil {
		r.logger.Warn("Failed to journal transaction", zap.String("signature", sig), zap.Error(err))
	}
}

func landed(s transaction.State) bool {
	return s == transaction.StateConfirmed || s == transaction.StateRejected
}

func describe(res *transaction.Result, ambiguous bool) string {
	switch {
	case res.Success:
		return "Transaction confirmed"
	case ambiguous:
		return AmbiguousWarning
	}
	var b strings.Builder
	switch walleterr.KindOf(res.Err) {
	case walleterr.KindOnChainRejection:
		b.WriteString("Transaction failed on-chain")
	case walleterr.KindSimulation:
		b.WriteString("Simulation failed, nothing was submitted")
	case walleterr.KindTransientNetwork:
		b.WriteString("Network error, submission attempts exhausted")
	default:
		b.WriteString("Transaction failed")
	}
	if res.Err != nil {
		fmt.Fprintf(&b, ": %v", res.Err)
	}
	return b.String()
}
