// internal/app/services.go
package app

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/solana-wallet/internal/config"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/explorer"
	"github.com/rovshanmuradov/solana-wallet/internal/fee"
	"github.com/rovshanmuradov/solana-wallet/internal/history"
	"github.com/rovshanmuradov/solana-wallet/internal/httpx"
	"github.com/rovshanmuradov/solana-wallet/internal/report"
	"github.com/rovshanmuradov/solana-wallet/internal/scheduler"
	"github.com/rovshanmuradov/solana-wallet/internal/storage/sqlite"
	"github.com/rovshanmuradov/solana-wallet/internal/swap"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
	"github.com/rovshanmuradov/solana-wallet/internal/transfer"
)

const (
	tokenSyncJob  = "token-list-sync"
	tokenAPIURL   = "https://tokens.jup.ag/token"
	httpRetries   = 2
	eventsBufSize = 128
)

// Services – собранный граф компонентов кошелька для одного запуска.
type Services struct {
	Config   *config.Config
	Network  config.Network
	Explorer explorer.Explorer

	Client    blockchain.Client
	Store     *sqlite.Store
	Bus       *events.Bus
	Scheduler *scheduler.Scheduler
	Metrics   *transaction.Metrics
	Registry  *prometheus.Registry

	Resolver *token.Resolver
	Syncer   *token.ListSyncer
	Oracle   *balance.Oracle
	Tracker  *balance.Tracker

	Fees         *fee.Estimator
	Priority     *fee.PriorityManager
	PriorityFees *fee.PriorityEstimator

	Transfers *transfer.Builder
	Jupiter   *swap.Jupiter
	Quoter    *swap.Quoter
	Swaps     *swap.Builder

	Reporter *report.Reporter
	History  *history.Service
	Exporter *history.Exporter

	logger *zap.Logger
}

func newServices(cfg *config.Config, logger *zap.Logger) (*Services, error) {
	network := cfg.ActiveNetwork()
	exp, err := cfg.NewExplorer()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.Tokens.DBPath, logger)
	if err != nil {
		return nil, err
	}
	sched, err := scheduler.New(logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	commitment := rpc.CommitmentType(cfg.Commitment)
	urls := network.RPCURLs()
	client := solbc.NewClient(urls[0], logger, urls[1:]...)
	httpClient := httpx.New(cfg.Aggregator.Timeout, httpRetries, logger)
	bus := events.NewBus(logger, eventsBufSize)
	registry := prometheus.NewRegistry()
	metrics := transaction.NewMetrics(registry)

	resolver := token.NewResolver(logger,
		token.NewStoreProvider(store),
		token.KnownProvider{},
		token.NewAPIProvider(httpClient, tokenAPIURL),
	)
	syncer := token.NewListSyncer(httpClient, store, cfg.Aggregator.TokenListURL, cfg.Tokens.RefreshInterval, logger)
	syncer.OnSynced(func() {
		resolver.Invalidate()
		_ = bus.Publish(events.TokenListSyncedEvent{BaseEvent: events.NewBase(events.TokenListSynced)})
	})

	oracle := balance.NewOracle(client, resolver, network.Name, commitment, logger)
	tracker := balance.NewTracker(sched, cfg.Balance.RefreshInterval, bus, logger)

	priority := fee.NewPriorityManager(logger)
	jupiter := swap.NewJupiter(httpClient, cfg.Aggregator.QuoteURL, cfg.Aggregator.SwapURL, cfg.Aggregator.APIKey, logger)

	s := &Services{
		Config:       cfg,
		Network:      network,
		Explorer:     exp,
		Client:       client,
		Store:        store,
		Bus:          bus,
		Scheduler:    sched,
		Metrics:      metrics,
		Registry:     registry,
		Resolver:     resolver,
		Syncer:       syncer,
		Oracle:       oracle,
		Tracker:      tracker,
		Fees:         fee.NewEstimator(client, logger, commitment),
		Priority:     priority,
		PriorityFees: fee.NewPriorityEstimator(httpClient, cfg.PriorityFee.URL, cfg.PriorityFee.Level, cfg.PriorityFee.DefaultMicroLamports, logger),
		Transfers:    transfer.NewBuilder(client, priority, logger),
		Jupiter:      jupiter,
		Quoter: swap.NewQuoter(jupiter, sched, bus, swap.QuoterConfig{
			RefreshInterval: cfg.Swap.RefreshInterval,
			QuoteTTL:        cfg.Swap.QuoteTTL,
		}, logger),
		Swaps:    swap.NewBuilder(jupiter, logger),
		Reporter: report.NewReporter(store, bus, tracker, exp, network.Name, logger),
		History:  history.NewService(client, logger),
		Exporter: history.NewExporter(logger),
		logger:   logger.Named("services"),
	}
	return s, nil
}

// Manager создаёт отправщик, публикующий переходы состояния для kind.
func (s *Services) Manager(kind string) *transaction.Manager {
	sub := s.Config.Submit
	return transaction.NewManager(s.Client, s.logger, transaction.Config{
		MaxRetries:      sub.MaxRetries,
		RetryDelay:      sub.RetryDelay,
		PollInterval:    sub.PollInterval,
		BlockhashMaxAge: sub.BlockhashMaxAge,
		ConfirmTimeout:  sub.ConfirmTimeout,
		Commitment:      rpc.CommitmentType(sub.Commitment),
	}, transaction.WithMetrics(s.Metrics), transaction.WithStateHook(s.Reporter.StateHook(kind)))
}

// ScheduleTokenSync ставит периодическую синхронизацию списка токенов.
func (s *Services) ScheduleTokenSync(ctx context.Context) error {
	return s.Scheduler.Schedule(ctx, tokenSyncJob, s.Syncer.Interval(), func(ctx context.Context) error {
		_, err := s.Syncer.Sync(ctx, false)
		return err
	}, scheduler.Options{RunImmediately: true})
}

// Close останавливает фоновые задачи и закрывает хранилище.
func (s *Services) Close() error {
	s.Quoter.Stop()
	s.Tracker.Stop()
	var errs []error
	if err := s.Scheduler.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Bus.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
