package ui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/balance"
	"github.com/rovshanmuradov/solana-wallet/internal/events"
	"github.com/rovshanmuradov/solana-wallet/internal/logger"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

type fakeBalances struct {
	snap      atomic.Pointer[balance.Snapshot]
	refreshes atomic.Int32
	err       error
}

func (f *fakeBalances) Current() *balance.Snapshot { return f.snap.Load() }
func (f *fakeBalances) Refreshing() bool           { return false }
func (f *fakeBalances) Refresh(context.Context) (*balance.Snapshot, error) {
	f.refreshes.Add(1)
	return f.snap.Load(), f.err
}

func snapshot() *balance.Snapshot {
	native := uint64(1_500_000_000)
	return &balance.Snapshot{
		Account: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Network: "devnet",
		Native:  &native,
		Holdings: []balance.Holding{{
			Mint:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			Raw:      2_500_000,
			Decimals: 6,
			Metadata: token.Metadata{Symbol: "USDC"},
		}},
		FetchedAt: time.Date(2026, 1, 2, 10, 11, 12, 0, time.UTC),
	}
}

func newTestModel(t *testing.T, b *fakeBalances, ring *logger.Ring) Model {
	t.Helper()
	updates := NewUpdateSender(4, zap.NewNop())
	t.Cleanup(updates.Close)
	cfg := Config{Account: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin", Network: "devnet", Balances: b, Updates: updates}
	if ring != nil {
		cfg.Logs = ring
	}
	return NewModel(context.Background(), cfg, zap.NewNop())
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestDashboardShowsSnapshot(t *testing.T) {
	b := &fakeBalances{}
	b.snap.Store(snapshot())
	m := newTestModel(t, b, nil)

	view := m.View()
	assert.Contains(t, view, "Solana Wallet")
	assert.Contains(t, view, "9xQe…VFin")
	assert.Contains(t, view, "devnet")
	assert.Contains(t, view, "1.5")
	assert.Contains(t, view, "USDC")
	assert.Contains(t, view, "2.5")
	assert.Contains(t, view, "updated 10:11:12")
}

func TestDashboardUnavailableBalance(t *testing.T) {
	b := &fakeBalances{}
	b.snap.Store(&balance.Snapshot{Network: "devnet", Err: errors.New("rpc down"), FetchedAt: time.Now()})
	m := newTestModel(t, b, nil)

	view := m.View()
	assert.Contains(t, view, "Balance unknown: rpc down")
	assert.NotContains(t, view, "USDC")
}

func TestDashboardRefreshKey(t *testing.T) {
	b := &fakeBalances{}
	m := newTestModel(t, b, nil)
	assert.Contains(t, m.View(), "Loading balances")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, m.refreshing)

	// повторное нажатие во время обновления игнорируется
	_, again := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, again)

	b.snap.Store(snapshot())
	msg := cmd()
	assert.Equal(t, int32(1), b.refreshes.Load())

	m, _ = update(t, m, msg)
	assert.False(t, m.refreshing)
	assert.Contains(t, m.View(), "USDC")
}

func TestDashboardIgnoresSessionChange(t *testing.T) {
	b := &fakeBalances{}
	m := newTestModel(t, b, nil)

	m, _ = update(t, m, RefreshDoneMsg{Err: balance.ErrSessionChanged})
	assert.NoError(t, m.err)

	m, _ = update(t, m, RefreshDoneMsg{Err: errors.New("boom")})
	assert.Contains(t, m.View(), "Refresh failed: boom")
}

func TestDashboardQuit(t *testing.T) {
	m := newTestModel(t, &fakeBalances{}, nil)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestDashboardTransactionResult(t *testing.T) {
	m := newTestModel(t, &fakeBalances{}, nil)
	assert.Contains(t, m.View(), "none in this session")

	m, cmd := update(t, m, TxStateMsg{Kind: "send", State: "confirming"})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "send: confirming")

	m, _ = update(t, m, TxResultMsg{Event: events.TransactionCompletedEvent{
		Kind:        "send",
		Amount:      "0.5",
		Mint:        "So11111111111111111111111111111111111111112",
		State:       "timed_out",
		Ambiguous:   true,
		ExplorerURL: "https://explorer.solana.com/tx/abc?cluster=devnet",
	}})
	view := m.View()
	assert.Contains(t, view, "check the explorer before retrying")
	assert.Contains(t, view, "https://explorer.solana.com/tx/abc?cluster=devnet")

	m, _ = update(t, m, TxStateMsg{Kind: "swap", State: "simulating"})
	view = m.View()
	assert.Contains(t, view, "swap: simulating")
	assert.NotContains(t, view, "https://explorer.solana.com/tx/abc?cluster=devnet")
}

func TestDashboardShowsRecentLogs(t *testing.T) {
	ring := logger.NewRing(10)
	ring.Add(logger.Entry{Timestamp: time.Now(), Level: "warn", Message: "Quote failed", Fields: map[string]interface{}{"error": "no route"}})
	m := newTestModel(t, &fakeBalances{}, ring)

	view := m.View()
	assert.Contains(t, view, "Recent Logs")
	assert.Contains(t, view, "Quote failed: no route")
}
