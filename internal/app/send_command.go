// internal/app/send_command.go
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/fee"
	"github.com/rovshanmuradov/solana-wallet/internal/transfer"
)

// priorityAuto запрашивает цену CU у сервиса оценки.
const priorityAuto = "auto"

func (s *runtimeState) newSendCommand() *cobra.Command {
	var mint, priority string
	cmd := &cobra.Command{
		Use:   "send <recipient> <amount>",
		Short: "Send SOL or an SPL token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			recipient, amountStr := args[0], args[1]
			if _, err := transfer.ParseRecipient(recipient); err != nil {
				return err
			}

			signer, err := s.signer()
			if err != nil {
				return err
			}
			svc, err := s.svc()
			if err != nil {
				return err
			}
			asset, err := resolveAsset(ctx, svc, mint)
			if err != nil {
				return err
			}

			req := transfer.Request{
				Sender:    signer.Address(),
				Recipient: recipient,
				Asset:     asset,
				Amount:    amountStr,
			}
			if err := s.applyPriority(ctx, svc, &req, priority); err != nil {
				return err
			}
			pending, err := svc.Transfers.Build(ctx, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(s.out(), "Send %s %s to %s\n", amountStr, asset, recipient)
			return s.submit(ctx, svc, submission{
				kind:    "send",
				signer:  signer,
				pending: pending,
				asset:   asset,
				amount:  amountStr,
			})
		},
	}
	cmd.Flags().StringVar(&mint, "mint", "SOL", "Asset to send: SOL, a mint address or a synced token symbol")
	cmd.Flags().StringVar(&priority, "priority", string(fee.PriorityNone), "Priority fee: none, low, medium, high, extreme or auto")
	cmd.Flags().BoolVarP(&s.flags.Yes, "yes", "y", false, "Submit without confirmation")
	return cmd
}

// applyPriority выставляет профиль приоритета или, для auto, цену из оценщика.
func (s *runtimeState) applyPriority(ctx context.Context, svc *Services, req *transfer.Request, priority string) error {
	if !strings.EqualFold(strings.TrimSpace(priority), priorityAuto) {
		level, err := fee.ParseLevel(priority)
		if err != nil {
			return walleterr.Wrap(walleterr.KindValidation, "send", "invalid priority", err)
		}
		req.Priority = level
		return nil
	}

	// черновик без compute-budget инструкций нужен только для списка аккаунтов
	draft := *req
	draft.Priority = fee.PriorityNone
	pending, err := svc.Transfers.Build(ctx, draft)
	if err != nil {
		return err
	}
	tx, err := pending.Build(solana.Hash{})
	if err != nil {
		return walleterr.Wrap(walleterr.KindBuild, "send", "draft transaction", err)
	}
	pf := svc.PriorityFees.Estimate(ctx, tx)
	s.zlog().Info("Priority fee selected",
		zap.Uint64("micro_lamports", pf.MicroLamports),
		zap.Bool("fallback", pf.Fallback))
	req.PriorityMicroLamports = pf.MicroLamports
	req.PriorityComputeUnits = fee.DefaultComputeUnits
	return nil
}
