package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-wallet/internal/storage"
	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

func openTestStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "wallet.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTokenUpsertLookupAndSearch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	last, err := s.LastTokenUpdate(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	_, err = s.TokenByAddress(ctx, usdcMint)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	synced := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n, err := s.UpsertTokens(ctx, []models.Token{
		{Address: usdcMint, ChainID: 101, Decimals: 6, Name: "USD Coin", Symbol: "USDC", LastUpdated: synced},
		{Address: bonkMint, ChainID: 101, Decimals: 5, Name: "Bonk", Symbol: "Bonk", LastUpdated: synced},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tok, err := s.TokenByAddress(ctx, usdcMint)
	require.NoError(t, err)
	assert.Equal(t, "USDC", tok.Symbol)
	assert.Equal(t, uint8(6), tok.Decimals)

	_, err = s.UpsertTokens(ctx, []models.Token{{Address: usdcMint, Decimals: 6, Name: "USD Coin", Symbol: "USDC", LastUpdated: synced.Add(time.Hour)}})
	require.NoError(t, err)
	last, err = s.LastTokenUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, synced.Add(time.Hour), last)

	byName, err := s.SearchTokens(ctx, "bon", storage.SearchByName, 0)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, bonkMint, byName[0].Address)

	byAddr, err := s.SearchTokens(ctx, usdcMint, storage.SearchByAddress, 10)
	require.NoError(t, err)
	require.Len(t, byAddr, 1)

	anyMatch, err := s.SearchTokens(ctx, "coin", storage.SearchAny, 10)
	require.NoError(t, err)
	require.Len(t, anyMatch, 1)
	assert.Equal(t, "USDC", anyMatch[0].Symbol)

	_, err = s.SearchTokens(ctx, "x", "fuzzy", 10)
	assert.Error(t, err)
}

func TestTransactionJournal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	wallet := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

	first := &models.Transaction{Signature: "sig-1", WalletAddress: wallet, Kind: "send", Amount: "0.5", State: "confirming"}
	require.NoError(t, s.SaveTransaction(ctx, first))
	assert.NotZero(t, first.ID)

	second := &models.Transaction{Signature: "sig-2", WalletAddress: wallet, Kind: "swap", Amount: "10", State: "confirmed", Slot: 99}
	require.NoError(t, s.SaveTransaction(ctx, second))

	require.NoError(t, s.UpdateTransactionState(ctx, "sig-1", "timed_out", "confirmation_timeout", "blockhash expired"))
	assert.ErrorIs(t, s.UpdateTransactionState(ctx, "missing", "confirmed", "", ""), storage.ErrNotFound)

	got, err := s.GetTransaction(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, "timed_out", got.State)
	assert.Equal(t, "confirmation_timeout", got.ErrorKind)

	list, err := s.ListTransactions(ctx, wallet, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sig-2", list[0].Signature)
	assert.Equal(t, uint64(99), list[0].Slot)

	other, err := s.ListTransactions(ctx, "someone-else", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
