// internal/balance/oracle.go
package balance

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

// Holding – позиция по одному минту.
type Holding struct {
	Mint         string
	TokenAccount string
	Raw          uint64
	Decimals     uint8
	Metadata     token.Metadata
}

// Display возвращает баланс в отображаемых единицах.
func (h Holding) Display() decimal.Decimal {
	return amount.ToDisplay(h.Raw, h.Decimals)
}

// Snapshot – неизменяемый снимок балансов. При сетевой ошибке Native == nil
// и Holdings пуст: "неизвестно" отличается от нуля.
type Snapshot struct {
	Account   string
	Network   string
	Native    *uint64
	Holdings  []Holding
	FetchedAt time.Time
	Err       error
}

// Available сообщает, удалось ли получить балансы.
func (s *Snapshot) Available() bool {
	return s != nil && s.Native != nil
}

// Holding ищет позицию по минту.
func (s *Snapshot) Holding(mint string) (Holding, bool) {
	if s == nil {
		return Holding{}, false
	}
	for _, h := range s.Holdings {
		if h.Mint == mint {
			return h, true
		}
	}
	return Holding{}, false
}

// Oracle читает нативный баланс и токен-аккаунты владельца.
type Oracle struct {
	client     blockchain.Client
	resolver   *token.Resolver
	analyzer   *solbc.ErrorAnalyzer
	commitment rpc.CommitmentType
	network    string
	logger     *zap.Logger
	now        func() time.Time
}

func NewOracle(client blockchain.Client, resolver *token.Resolver, network string, commitment rpc.CommitmentType, logger *zap.Logger) *Oracle {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &Oracle{
		client:     client,
		resolver:   resolver,
		analyzer:   solbc.NewErrorAnalyzer(logger),
		commitment: commitment,
		network:    network,
		logger:     logger.Named("balance-oracle"),
		now:        time.Now,
	}
}

// Network возвращает имя сети, к которой привязан оракул.
func (o *Oracle) Network() string { return o.network }

// Fetch никогда не возвращает частичный результат.
func (o *Oracle) Fetch(ctx context.Context, account solana.PublicKey) *Snapshot {
	snap := &Snapshot{Account: account.String(), Network: o.network, FetchedAt: o.now()}

	var (
		lamports uint64
		accounts []blockchain.TokenAccountBalance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lamports, err = o.client.GetBalance(gctx, account, o.commitment)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = o.client.GetTokenAccountsByOwner(gctx, account, o.commitment)
		return err
	})
	if err := g.Wait(); err != nil {
		snap.Err = o.analyzer.Classify("balance.Fetch", err)
		o.logger.Warn("Balance unavailable",
			zap.String("account", snap.Account),
			zap.String("network", o.network),
			zap.Error(err))
		return snap
	}

	mints := make([]string, len(accounts))
	decimals := make([]uint8, len(accounts))
	for i, a := range accounts {
		mints[i] = a.Mint.String()
		decimals[i] = a.Decimals
	}
	metas := o.resolver.ResolveMany(ctx, mints, decimals)

	holdings := make([]Holding, len(accounts))
	for i, a := range accounts {
		md := metas[i]
		// decimals токен-аккаунта приоритетнее метаданных
		md.Decimals = a.Decimals
		holdings[i] = Holding{
			Mint:         mints[i],
			TokenAccount: a.Address.String(),
			Raw:          a.Amount,
			Decimals:     a.Decimals,
			Metadata:     md,
		}
	}
	sortHoldings(holdings)

	snap.Native = &lamports
	snap.Holdings = holdings
	o.logger.Debug("Balance fetched",
		zap.String("account", snap.Account),
		zap.Uint64("lamports", lamports),
		zap.Int("holdings", len(holdings)))
	return snap
}

// sortHoldings: известные токены по символу, затем неизвестные по минту.
func sortHoldings(h []Holding) {
	sort.SliceStable(h, func(i, j int) bool {
		a, b := h[i], h[j]
		if a.Metadata.Unknown != b.Metadata.Unknown {
			return !a.Metadata.Unknown
		}
		sa, sb := strings.ToUpper(a.Metadata.Symbol), strings.ToUpper(b.Metadata.Symbol)
		if sa != sb {
			return sa < sb
		}
		return a.Mint < b.Mint
	})
}
