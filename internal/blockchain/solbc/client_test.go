package solbc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// rpcServer отвечает result на любой метод из results.
func rpcServer(t *testing.T, results map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, ok := results[req.Method]
		if !ok {
			http.Error(w, "unexpected method "+req.Method, http.StatusNotImplemented)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientFallsBackToSecondNode(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)
	up := rpcServer(t, map[string]interface{}{
		"getBalance": map[string]interface{}{"context": map[string]interface{}{"slot": 10}, "value": 1_500_000_000},
	})

	c := NewClient(down.URL, zaptest.NewLogger(t), up.URL)
	lamports, err := c.GetBalance(context.Background(), solana.SystemProgramID, rpc.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)
}

func TestClientTokenAccountsSkipsBrokenEntries(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	account := solana.NewWallet().PublicKey()
	parsed := func(mint, amount string) map[string]interface{} {
		return map[string]interface{}{
			"pubkey": account.String(),
			"account": map[string]interface{}{
				"lamports":   2039280,
				"owner":      solana.TokenProgramID.String(),
				"executable": false,
				"rentEpoch":  0,
				"data": map[string]interface{}{
					"program": "spl-token",
					"parsed": map[string]interface{}{
						"type": "account",
						"info": map[string]interface{}{
							"mint":        mint,
							"owner":       owner.String(),
							"tokenAmount": map[string]interface{}{"amount": amount, "decimals": 6},
						},
					},
					"space": 165,
				},
			},
		}
	}
	srv := rpcServer(t, map[string]interface{}{
		"getTokenAccountsByOwner": map[string]interface{}{
			"context": map[string]interface{}{"slot": 10},
			"value": []interface{}{
				parsed(usdcMint, "2500000"),
				parsed("not-a-mint", "1"),
			},
		},
	})

	c := NewClient(srv.URL, zaptest.NewLogger(t))
	accounts, err := c.GetTokenAccountsByOwner(context.Background(), owner, rpc.CommitmentConfirmed)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, usdcMint, accounts[0].Mint.String())
	assert.Equal(t, owner, accounts[0].Owner)
	assert.Equal(t, uint64(2_500_000), accounts[0].Amount)
	assert.Equal(t, uint8(6), accounts[0].Decimals)
}

func TestDecodeParsedTokenAccount(t *testing.T) {
	addr := solana.NewWallet().PublicKey()
	_, err := decodeParsedTokenAccount(addr, nil)
	assert.Error(t, err)

	raw := []byte(`{"program":"spl-token","parsed":{"type":"account","info":{"mint":"` + usdcMint +
		`","owner":"` + addr.String() + `","tokenAmount":{"amount":"18446744073709551616","decimals":6}}}}`)
	_, err = decodeParsedTokenAccount(addr, raw)
	assert.ErrorContains(t, err, "invalid token amount")
}
