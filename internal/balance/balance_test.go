package balance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/blockchain/blockchaintest"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/scheduler"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

var (
	usdcMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	bonkMint  = solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263")
	weirdMint = solana.NewWallet().PublicKey()
)

func newOracle(t *testing.T, client blockchain.Client, network string) *Oracle {
	logger := zaptest.NewLogger(t)
	resolver := token.NewResolver(logger,
		token.ProviderFunc{ProviderName: "broken", Fn: func(context.Context, string) (*token.Metadata, error) {
			return nil, errors.New("metadata service down")
		}},
		token.KnownProvider{},
	)
	return NewOracle(client, resolver, network, rpc.CommitmentConfirmed, logger)
}

func TestFetchResolvesHoldings(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	client := new(blockchaintest.MockClient)
	client.On("GetBalance", mock.Anything, owner, rpc.CommitmentConfirmed).Return(uint64(1_000_000_000), nil)
	client.On("GetTokenAccountsByOwner", mock.Anything, owner, rpc.CommitmentConfirmed).Return([]blockchain.TokenAccountBalance{
		{Address: solana.NewWallet().PublicKey(), Mint: weirdMint, Owner: owner, Amount: 7, Decimals: 0},
		{Address: solana.NewWallet().PublicKey(), Mint: usdcMint, Owner: owner, Amount: 2_500_000, Decimals: 6},
		{Address: solana.NewWallet().PublicKey(), Mint: bonkMint, Owner: owner, Amount: 100_000, Decimals: 5},
	}, nil)

	snap := newOracle(t, client, "devnet").Fetch(context.Background(), owner)
	require.True(t, snap.Available())
	require.NoError(t, snap.Err)
	assert.Equal(t, uint64(1_000_000_000), *snap.Native)
	require.Len(t, snap.Holdings, 3)

	assert.Equal(t, "Bonk", snap.Holdings[0].Metadata.Symbol)
	assert.Equal(t, "USDC", snap.Holdings[1].Metadata.Symbol)
	assert.True(t, snap.Holdings[2].Metadata.Unknown)
	assert.Equal(t, token.UnknownName, snap.Holdings[2].Metadata.Name)

	usdc, ok := snap.Holding(usdcMint.String())
	require.True(t, ok)
	assert.Equal(t, "2.5", usdc.Display().String())
}

func TestFetchNetworkErrorIsUnavailable(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	client := new(blockchaintest.MockClient)
	client.On("GetBalance", mock.Anything, owner, mock.Anything).Return(uint64(5), nil)
	client.On("GetTokenAccountsByOwner", mock.Anything, owner, mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout"))

	snap := newOracle(t, client, "devnet").Fetch(context.Background(), owner)
	assert.False(t, snap.Available())
	assert.Nil(t, snap.Native)
	assert.Empty(t, snap.Holdings)
	assert.Equal(t, walleterr.KindTransientNetwork, walleterr.KindOf(snap.Err))
}

// blockingClient задерживает GetBalance до закрытия release.
type blockingClient struct {
	*blockchaintest.MockClient
	release chan struct{}
	once    sync.Once
	entered chan struct{}
}

func (c *blockingClient) GetBalance(ctx context.Context, pk solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	c.once.Do(func() { close(c.entered) })
	<-c.release
	return 42, nil
}

func TestTrackerDiscardsStaleSession(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ownerA := solana.NewWallet().PublicKey()
	ownerB := solana.NewWallet().PublicKey()

	slow := &blockingClient{MockClient: new(blockchaintest.MockClient), release: make(chan struct{}), entered: make(chan struct{})}
	slow.On("GetTokenAccountsByOwner", mock.Anything, ownerA, mock.Anything).Return([]blockchain.TokenAccountBalance{}, nil)

	fast := new(blockchaintest.MockClient)
	fast.On("GetBalance", mock.Anything, ownerB, mock.Anything).Return(uint64(7), nil)
	fast.On("GetTokenAccountsByOwner", mock.Anything, ownerB, mock.Anything).Return([]blockchain.TokenAccountBalance{}, nil)

	tracker := NewTracker(nil, 0, nil, logger)
	require.NoError(t, tracker.Switch(context.Background(), Session{Account: ownerA, Oracle: newOracle(t, slow, "mainnet-beta")}))

	errCh := make(chan error, 1)
	go func() {
		_, err := tracker.Refresh(context.Background())
		errCh <- err
	}()
	<-slow.entered
	assert.True(t, tracker.Refreshing())

	require.NoError(t, tracker.Switch(context.Background(), Session{Account: ownerB, Oracle: newOracle(t, fast, "devnet")}))
	snap, err := tracker.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), *snap.Native)

	close(slow.release)
	assert.ErrorIs(t, <-errCh, ErrSessionChanged)
	assert.Equal(t, ownerB.String(), tracker.Current().Account)
	assert.Equal(t, uint64(7), *tracker.Current().Native)
}

// staggeredClient задерживает первый GetBalance; последующие отвечают сразу.
type staggeredClient struct {
	*blockchaintest.MockClient
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (c *staggeredClient) GetBalance(ctx context.Context, pk solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	if c.calls.Add(1) == 1 {
		close(c.entered)
		<-c.release
		return 1_000_000_000, nil
	}
	return 500_000_000, nil
}

func TestTrackerKeepsNewestRefreshInSession(t *testing.T) {
	logger := zaptest.NewLogger(t)
	owner := solana.NewWallet().PublicKey()
	client := &staggeredClient{MockClient: new(blockchaintest.MockClient), entered: make(chan struct{}), release: make(chan struct{})}
	client.On("GetTokenAccountsByOwner", mock.Anything, owner, mock.Anything).Return([]blockchain.TokenAccountBalance{}, nil)

	tracker := NewTracker(nil, 0, nil, logger)
	require.NoError(t, tracker.Switch(context.Background(), Session{Account: owner, Oracle: newOracle(t, client, "devnet")}))

	type result struct {
		snap *Snapshot
		err  error
	}
	older := make(chan result, 1)
	go func() {
		snap, err := tracker.Refresh(context.Background())
		older <- result{snap, err}
	}()
	<-client.entered

	snap, err := tracker.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), *snap.Native)

	close(client.release)
	res := <-older
	require.NoError(t, res.err)
	// запоздавший ответ возвращает более свежий снимок и не публикуется
	assert.Equal(t, uint64(500_000_000), *res.snap.Native)
	assert.Equal(t, uint64(500_000_000), *tracker.Current().Native)
}

func TestTrackerScheduledRefreshPublishes(t *testing.T) {
	logger := zaptest.NewLogger(t)
	owner := solana.NewWallet().PublicKey()
	client := new(blockchaintest.MockClient)
	client.On("GetBalance", mock.Anything, owner, mock.Anything).Return(uint64(99), nil)
	client.On("GetTokenAccountsByOwner", mock.Anything, owner, mock.Anything).Return([]blockchain.TokenAccountBalance{}, nil)

	sched, err := scheduler.New(logger)
	require.NoError(t, err)
	defer sched.Shutdown()

	bus := events.NewBus(logger, 8)
	defer bus.Shutdown(context.Background())
	updates := make(chan events.BalanceUpdatedEvent, 8)
	bus.SubscribeFunc(func(_ context.Context, e events.Event) error {
		updates <- e.(events.BalanceUpdatedEvent)
		return nil
	}, events.BalanceUpdated)

	tracker := NewTracker(sched, time.Hour, bus, logger)
	require.NoError(t, tracker.Switch(context.Background(), Session{Account: owner, Oracle: newOracle(t, client, "devnet")}))

	select {
	case ev := <-updates:
		assert.True(t, ev.Available)
		assert.Equal(t, uint64(99), ev.Lamports)
	case <-time.After(2 * time.Second):
		t.Fatal("no balance update published")
	}
	assert.True(t, sched.Scheduled(refreshJob))

	tracker.Stop()
	assert.False(t, sched.Scheduled(refreshJob))
	assert.Nil(t, tracker.Current())
	_, err = tracker.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
