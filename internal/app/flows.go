// internal/app/flows.go
package app

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/solana-wallet/internal/report"
	"github.com/rovshanmuradov/solana-wallet/internal/sufficiency"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
	"github.com/rovshanmuradov/solana-wallet/internal/wallet"
)

// submission – всё, что нужно для проверки и отправки одной транзакции.
type submission struct {
	kind    string
	signer  *wallet.Wallet
	pending *transaction.Pending
	asset   token.Asset
	amount  string
	// beforeSubmit вызывается после подтверждения, перед подписью.
	beforeSubmit func() error
}

// startSession привязывает трекер к аккаунту и возвращает свежий снимок.
func (s *runtimeState) startSession(ctx context.Context, svc *Services, owner solana.PublicKey) (*balance.Snapshot, error) {
	if err := svc.Tracker.Switch(ctx, balance.Session{Account: owner, Oracle: svc.Oracle}); err != nil {
		return nil, err
	}
	snap, err := svc.Tracker.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.Available() {
		return nil, snap.Err
	}
	return snap, nil
}

// submit оценивает комиссию, проверяет достаточность средств, спрашивает
// подтверждение и отправляет транзакцию.
func (s *runtimeState) submit(ctx context.Context, svc *Services, sub submission) error {
	owner := sub.signer.Address()
	snap, err := s.startSession(ctx, svc, owner)
	if err != nil {
		return err
	}

	estimate := svc.Fees.Estimate(ctx, sub.pending)
	in := sufficiency.Input{
		Asset:         &sub.asset,
		Amount:        sub.amount,
		NativeBalance: snap.Native,
		Fee:           estimate,
	}
	if !sub.asset.Native {
		if h, ok := snap.Holding(sub.asset.Mint.String()); ok {
			in.TokenBalance = h.Raw
		}
	}
	verdict := sufficiency.Check(in)

	fmt.Fprintf(s.out(), "Network fee: %s\n", estimate)
	if !verdict.OK {
		fmt.Fprintf(s.out(), "Cannot submit: %v\n", verdict.Err)
		return verdict.Err
	}
	fmt.Fprintln(s.out(), "Balance check: OK")

	if err := s.confirm(fmt.Sprintf("Submit %s of %s %s?", sub.kind, sub.amount, sub.asset)); err != nil {
		return err
	}
	if sub.beforeSubmit != nil {
		if err := sub.beforeSubmit(); err != nil {
			return err
		}
	}

	result, err := svc.Manager(sub.kind).SendAndConfirm(ctx, sub.pending, sub.signer)
	outcome := svc.Reporter.Report(ctx, owner.String(), sub.pending.Summary, result)
	if s.log != nil && outcome.Signature != "" {
		s.log.WithTransaction(outcome.Signature).Info("Transaction reported",
			zap.String("kind", sub.kind),
			zap.String("state", string(outcome.State)),
			zap.Bool("ambiguous", outcome.Ambiguous))
	}
	s.printOutcome(outcome)
	if err != nil {
		s.zlog().Debug("Submission finished with error", zap.Error(err))
		return err
	}
	return nil
}

func (s *runtimeState) printOutcome(o report.Outcome) {
	w := s.out()
	if o.Signature != "" {
		fmt.Fprintf(w, "Signature: %s\n", o.Signature)
	}
	fmt.Fprintf(w, "Status: %s\n", o.Message)
	for _, line := range o.Logs {
		fmt.Fprintf(w, "  log: %s\n", line)
	}
	if o.ExplorerURL != "" {
		fmt.Fprintf(w, "Explorer: %s\n", o.ExplorerURL)
	}
}
