// internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rovshanmuradov/solana-wallet/internal/explorer"
	"github.com/rovshanmuradov/solana-wallet/internal/swap"
	"github.com/rovshanmuradov/solana-wallet/internal/token"
)

func defaults() map[string]interface{} {
	dataDir := DataDir()
	d := map[string]interface{}{
		"network":                             DefaultNetwork,
		"commitment":                          DefaultCommitment,
		"explorer":                            DefaultExplorer,
		"aggregator.quote_url":                swap.DefaultQuoteURL,
		"aggregator.swap_url":                 swap.DefaultSwapURL,
		"aggregator.api_key":                  "",
		"aggregator.token_list_url":           token.DefaultTokenListURL,
		"aggregator.timeout":                  DefaultAggregatorTimeout,
		"priority_fee.url":                    "",
		"priority_fee.level":                  DefaultPriorityLevel,
		"priority_fee.default_micro_lamports": DefaultPriorityMicroLamports,
		"swap.slippage_bps":                   DefaultSlippageBps,
		"swap.refresh_interval":               DefaultQuoteRefresh,
		"swap.quote_ttl":                      DefaultQuoteTTL,
		"submit.max_retries":                  DefaultMaxRetries,
		"submit.retry_delay":                  DefaultRetryDelay,
		"submit.poll_interval":                DefaultPollInterval,
		"submit.blockhash_max_age":            DefaultBlockhashMaxAge,
		"submit.confirm_timeout":              DefaultConfirmTimeout,
		"submit.commitment":                   DefaultCommitment,
		"balance.refresh_interval":            DefaultBalanceRefresh,
		"tokens.db_path":                      filepath.Join(dataDir, "wallet.db"),
		"tokens.refresh_interval":             DefaultTokenListRefresh,
		"keyring.path":                        filepath.Join(dataDir, "keyring.json"),
		"log.file":                            filepath.Join(dataDir, "logs", "wallet.log"),
		"log.debug":                           false,
		"log.max_size":                        10,
		"log.max_age":                         7,
		"log.max_backups":                     3,
	}
	for name, rpcURL := range DefaultRPCURLs {
		d["networks."+name+".rpc_url"] = rpcURL
	}
	return d
}

// Load читает конфигурацию из файла (YAML/JSON/TOML) и переменных окружения
// SOLANA_WALLET_*. Отсутствующий файл не ошибка: берутся значения по умолчанию.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(DataDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	if cfg.Network == "mainnet" {
		cfg.Network = Mainnet
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewExplorer строит обозреватель для активного кластера.
func (c *Config) NewExplorer() (explorer.Explorer, error) {
	n := c.ActiveNetwork()
	return explorer.New(explorer.Kind(c.Explorer), n.Name, n.RPCURL)
}
