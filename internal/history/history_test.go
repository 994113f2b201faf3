package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
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
	"github.com/rovshanmuradov/solana-wallet/internal/storage/models"
)

func signatures(n int, start byte) []*rpc.TransactionSignature {
	out := make([]*rpc.TransactionSignature, 0, n)
	for i := 0; i < n; i++ {
		bt := solana.UnixTimeSeconds(1_700_000_000 + int64(i))
		out = append(out, &rpc.TransactionSignature{Signature: solana.Signature{start + byte(i)}, Slot: uint64(100 - i), BlockTime: &bt})
	}
	return out
}

func TestPageFullPageHasMore(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	client := &blockchaintest.MockClient{}
	sigs := signatures(10, 1)
	memo := "invoice 42"
	sigs[3].Memo = &memo
	sigs[5].Err = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	client.On("GetSignaturesForAddress", mock.Anything, owner, blockchain.SignaturesOptions{Limit: 10}).Return(sigs, nil)

	page, err := NewService(client, zaptest.NewLogger(t)).Page(context.Background(), owner.String(), "", 0)
	require.NoError(t, err)

	require.Len(t, page.Entries, 10)
	assert.True(t, page.HasMore)
	assert.Equal(t, solana.Signature{10}.String(), page.Next)
	assert.Equal(t, "invoice 42", page.Entries[3].Memo)
	assert.Equal(t, StatusFailed, page.Entries[5].Status)
	assert.Equal(t, StatusConfirmed, page.Entries[0].Status)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), *page.Entries[0].BlockTime)
}

func TestPageBeforeCursorAndLastPage(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	cursor := solana.Signature{10}
	client := &blockchaintest.MockClient{}
	client.On("GetSignaturesForAddress", mock.Anything, owner, blockchain.SignaturesOptions{Before: cursor, Limit: 5}).Return(signatures(3, 20), nil)

	page, err := NewService(client, zaptest.NewLogger(t)).Page(context.Background(), owner.String(), cursor.String(), 5)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 3)
	assert.False(t, page.HasMore)
	client.AssertExpectations(t)
}

func TestPageValidation(t *testing.T) {
	client := &blockchaintest.MockClient{}
	svc := NewService(client, zaptest.NewLogger(t))

	_, err := svc.Page(context.Background(), "not-an-address", "", 10)
	assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))

	_, err = svc.Page(context.Background(), solana.NewWallet().PublicKey().String(), "bad-cursor", 10)
	assert.Equal(t, walleterr.KindValidation, walleterr.KindOf(err))
	client.AssertNotCalled(t, "GetSignaturesForAddress", mock.Anything, mock.Anything, mock.Anything)
}

func TestPageNetworkErrorIsTransient(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	client := &blockchaintest.MockClient{}
	client.On("GetSignaturesForAddress", mock.Anything, owner, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	_, err := NewService(client, zaptest.NewLogger(t)).Page(context.Background(), owner.String(), "", 10)
	assert.True(t, walleterr.Retryable(err))
}

func fixedExporter(t *testing.T) *Exporter {
	ex := NewExporter(zaptest.NewLogger(t))
	ex.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return ex
}

func TestExportCSV(t *testing.T) {
	bt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Signature: "sig1", Slot: 7, BlockTime: &bt, Status: StatusConfirmed, Kind: "send", Amount: "0.5"},
		{Signature: "sig2", Slot: 8, Status: StatusFailed},
	}
	dir := t.TempDir()
	path, err := fixedExporter(t).Export(entries, FormatCSV, dir, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "history_9WzDXwBb_20260301_120000.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeaders, rows[0])
	assert.Equal(t, []string{"sig1", "7", "2026-02-01T10:00:00Z", "confirmed", "send", "0.5", "", "", ""}, rows[1])
	assert.Equal(t, "failed", rows[2][3])
}

func TestExportJSON(t *testing.T) {
	entries := []Entry{{Signature: "sig1", Status: StatusConfirmed}, {Signature: "sig2", Status: StatusFailed}}
	path, err := fixedExporter(t).Export(entries, FormatJSON, t.TempDir(), "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out struct {
		Count        int     `json:"count"`
		Failed       int     `json:"failed"`
		Transactions []Entry `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, "sig2", out.Transactions[1].Signature)
}

func TestExportRejectsEmptyAndUnknownFormat(t *testing.T) {
	_, err := fixedExporter(t).Export(nil, FormatCSV, t.TempDir(), "")
	assert.Error(t, err)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
}

func TestFromJournal(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := FromJournal([]*models.Transaction{
		{Signature: "a", Kind: "send", Amount: "1", State: "confirmed", CreatedAt: created},
		{Signature: "b", Kind: "swap", State: "timed_out", ErrorMessage: "block height exceeded", CreatedAt: created},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, StatusConfirmed, entries[0].Status)
	assert.Equal(t, Status("timed_out"), entries[1].Status)
	assert.Equal(t, "block height exceeded", entries[1].Memo)
	assert.Equal(t, created, *entries[0].BlockTime)
}
