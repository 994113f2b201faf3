package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxURL(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		cluster string
		rpc     string
		want    string
	}{
		{"mainnet solana explorer", SolanaExplorer, ClusterMainnet, "", "https://explorer.solana.com/tx/SIG"},
		{"devnet solscan", Solscan, ClusterDevnet, "", "https://solscan.io/tx/SIG?cluster=devnet"},
		{"testnet solanafm", SolanaFM, ClusterTestnet, "", "https://solana.fm/tx/SIG?cluster=testnet"},
		{"localnet custom url", SolanaExplorer, ClusterLocalnet, "http://127.0.0.1:8899", "https://explorer.solana.com/tx/SIG?cluster=custom&customUrl=http%3A%2F%2F127.0.0.1%3A8899"},
		{"localnet solscan", Solscan, ClusterLocalnet, "", "https://solscan.io/tx/SIG?cluster=custom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.kind, tt.cluster, tt.rpc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.TxURL("SIG"))
		})
	}
}

func TestAddressURL(t *testing.T) {
	e, err := New(Solscan, ClusterMainnet, "")
	require.NoError(t, err)
	assert.Equal(t, "https://solscan.io/account/ADDR", e.AddressURL("ADDR"))

	e, err = New("", "", "")
	require.NoError(t, err)
	assert.Equal(t, SolanaExplorer, e.Kind())
	assert.Equal(t, "https://explorer.solana.com/address/ADDR", e.AddressURL("ADDR"))
}

func TestUnknownExplorer(t *testing.T) {
	_, err := New("etherscan", ClusterMainnet, "")
	assert.Error(t, err)
}
