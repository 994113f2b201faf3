// internal/app/dashboard_command.go
package app

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/ui"
)

func (s *runtimeState) newDashboardCommand() *cobra.Command {
	var address, metricsAddr string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live balances and transaction results in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			owner, err := s.account(address)
			if err != nil {
				return err
			}
			svc, err := s.svc()
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				ms, err := startMetricsServer(metricsAddr, svc.Registry, s.zlog())
				if err != nil {
					return err
				}
				defer ms.Close()
			}

			updates := ui.NewUpdateSender(0, s.zlog())
			defer updates.Close()
			sub := svc.Bus.SubscribeFunc(updates.Forward,
				events.BalanceUpdated,
				events.TransactionStateChanged,
				events.TransactionCompleted,
				events.TokenListSynced)
			defer sub.Unsubscribe()

			if err := svc.Tracker.Switch(ctx, balance.Session{Account: owner, Oracle: svc.Oracle}); err != nil {
				return err
			}
			if err := svc.ScheduleTokenSync(ctx); err != nil {
				s.zlog().Warn("Token list sync is not scheduled", zap.Error(err))
			}

			return ui.Run(ctx, ui.Config{
				Account:  owner.String(),
				Network:  svc.Network.Name,
				Balances: svc.Tracker,
				Logs:     s.ring,
				Updates:  updates,
			}, s.zlog())
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Account to watch (defaults to the keyring key)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve transaction metrics on this address (e.g. 127.0.0.1:9100)")
	return cmd
}
