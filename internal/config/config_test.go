// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(EnvPrefix+"_HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Mainnet, cfg.Network)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, 3, cfg.Submit.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Submit.RetryDelay)
	assert.Equal(t, 5*time.Second, cfg.Submit.BlockhashMaxAge)
	assert.Equal(t, 90*time.Second, cfg.Submit.ConfirmTimeout)
	assert.Equal(t, uint16(50), cfg.Swap.SlippageBps)
	assert.Equal(t, 10*time.Second, cfg.Swap.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.Swap.QuoteTTL)
	assert.Equal(t, 30*time.Minute, cfg.Tokens.RefreshInterval)
	assert.Equal(t, uint64(10_000), cfg.PriorityFee.DefaultMicroLamports)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.ActiveNetwork().RPCURL)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
network: devnet
explorer: solscan
networks:
  devnet:
    rpc_url: https://devnet.helius-rpc.com/?api-key=abc
    fallback_rpc_urls:
      - https://api.devnet.solana.com
      - https://devnet.helius-rpc.com/?api-key=abc
swap:
  slippage_bps: 100
  refresh_interval: 5s
submit:
  max_retries: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Devnet, cfg.Network)
	assert.Equal(t, "https://devnet.helius-rpc.com/?api-key=abc", cfg.ActiveNetwork().RPCURL)
	// основной узел не дублируется среди резервных
	assert.Equal(t, []string{
		"https://devnet.helius-rpc.com/?api-key=abc",
		"https://api.devnet.solana.com",
	}, cfg.ActiveNetwork().RPCURLs())
	assert.Equal(t, uint16(100), cfg.Swap.SlippageBps)
	assert.Equal(t, 5*time.Second, cfg.Swap.RefreshInterval)
	assert.Equal(t, 2, cfg.Submit.MaxRetries)

	exp, err := cfg.NewExplorer()
	require.NoError(t, err)
	assert.Equal(t, "https://solscan.io/tx/S?cluster=devnet", exp.TxURL("S"))
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"network": "devnet"}`)
	t.Setenv("SOLANA_WALLET_NETWORK", "testnet")
	t.Setenv("SOLANA_WALLET_SUBMIT_MAX_RETRIES", "5")
	t.Setenv("SOLANA_WALLET_AGGREGATOR_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Testnet, cfg.Network)
	assert.Equal(t, 5, cfg.Submit.MaxRetries)
	assert.Equal(t, "secret", cfg.Aggregator.APIKey)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown network", "network: moonnet\n"},
		{"bad commitment", "commitment: eventually\n"},
		{"bad explorer", "explorer: etherscan\n"},
		{"bad priority level", "priority_fee:\n  level: turbo\n"},
		{"zero retries", "submit:\n  max_retries: 0\n"},
		{"confirm timeout too short", "submit:\n  confirm_timeout: 10ms\n"},
		{"slippage above 100%", "swap:\n  slippage_bps: 20000\n"},
		{"bad rpc url", "networks:\n  devnet:\n    rpc_url: ftp://example.com\n"},
		{"bad fallback url", "networks:\n  devnet:\n    rpc_url: https://example.com\n    fallback_rpc_urls: [\"not a url\"]\n"},
		{"unknown network override", "networks:\n  moonnet:\n    rpc_url: https://example.com\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation")
		})
	}
}

func TestMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "config.yaml", "network: [devnet\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestNetworkNames(t *testing.T) {
	assert.Equal(t, []string{"devnet", "localnet", "mainnet-beta", "testnet"}, NetworkNames())
}
