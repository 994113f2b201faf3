// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const EnvPrefix = "SOLANA_WALLET"

// Имена кластеров.
const (
	Localnet = "localnet"
	Devnet   = "devnet"
	Testnet  = "testnet"
	Mainnet  = "mainnet-beta"
)

// DefaultRPCURLs – публичные RPC для каждого кластера.
var DefaultRPCURLs = map[string]string{
	Localnet: "http://127.0.0.1:8899",
	Devnet:   "https://api.devnet.solana.com",
	Testnet:  "https://api.testnet.solana.com",
	Mainnet:  "https://api.mainnet-beta.solana.com",
}

const (
	DefaultNetwork               = Mainnet
	DefaultCommitment            = "confirmed"
	DefaultExplorer              = "solana-explorer"
	DefaultAggregatorTimeout     = 15 * time.Second
	DefaultPriorityLevel         = "medium"
	DefaultPriorityMicroLamports = 10_000
	DefaultSlippageBps           = 50
	DefaultQuoteRefresh          = 10 * time.Second
	DefaultQuoteTTL              = 30 * time.Second
	DefaultMaxRetries            = 3
	DefaultRetryDelay            = 500 * time.Millisecond
	DefaultPollInterval          = 500 * time.Millisecond
	DefaultBlockhashMaxAge       = 5 * time.Second
	DefaultConfirmTimeout        = 90 * time.Second
	DefaultBalanceRefresh        = 30 * time.Second
	DefaultTokenListRefresh      = 30 * time.Minute
)

type Config struct {
	Network     string                   `mapstructure:"network" validate:"required,network"`
	Networks    map[string]NetworkConfig `mapstructure:"networks" validate:"dive"`
	Commitment  string                   `mapstructure:"commitment" validate:"required,commitment"`
	Explorer    string                   `mapstructure:"explorer" validate:"required,oneof=solana-explorer solscan solanafm"`
	Aggregator  AggregatorConfig         `mapstructure:"aggregator"`
	PriorityFee PriorityFeeConfig        `mapstructure:"priority_fee"`
	Swap        SwapConfig               `mapstructure:"swap"`
	Submit      SubmitConfig             `mapstructure:"submit"`
	Balance     BalanceConfig            `mapstructure:"balance"`
	Tokens      TokensConfig             `mapstructure:"tokens"`
	Keyring     KeyringConfig            `mapstructure:"keyring"`
	Log         LogConfig                `mapstructure:"log"`
}

type NetworkConfig struct {
	RPCURL string `mapstructure:"rpc_url" validate:"required,rpc_url"`
	// FallbackRPCURLs опрашиваются по очереди, если основной узел недоступен.
	FallbackRPCURLs []string `mapstructure:"fallback_rpc_urls" validate:"dive,rpc_url"`
}

type AggregatorConfig struct {
	QuoteURL     string        `mapstructure:"quote_url" validate:"required,url"`
	SwapURL      string        `mapstructure:"swap_url" validate:"required,url"`
	APIKey       string        `mapstructure:"api_key"`
	TokenListURL string        `mapstructure:"token_list_url" validate:"required,url"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"min=1s"`
}

type PriorityFeeConfig struct {
	URL                  string `mapstructure:"url" validate:"omitempty,url"`
	Level                string `mapstructure:"level" validate:"required,oneof=min low medium high veryHigh unsafeMax"`
	DefaultMicroLamports uint64 `mapstructure:"default_micro_lamports" validate:"min=1"`
}

type SwapConfig struct {
	SlippageBps     uint16        `mapstructure:"slippage_bps" validate:"min=1,max=10000"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
	QuoteTTL        time.Duration `mapstructure:"quote_ttl" validate:"min=1s"`
}

type SubmitConfig struct {
	MaxRetries      int           `mapstructure:"max_retries" validate:"min=1,max=10"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" validate:"min=0"`
	PollInterval    time.Duration `mapstructure:"poll_interval" validate:"min=1ms"`
	BlockhashMaxAge time.Duration `mapstructure:"blockhash_max_age" validate:"min=1s"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout" validate:"min=1s"`
	Commitment      string        `mapstructure:"commitment" validate:"required,commitment"`
}

type BalanceConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
}

type TokensConfig struct {
	DBPath          string        `mapstructure:"db_path" validate:"required"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
}

type KeyringConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Debug      bool   `mapstructure:"debug"`
	MaxSize    int    `mapstructure:"max_size" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
}

// Network – выбранный кластер с его RPC.
type Network struct {
	Name      string
	RPCURL    string
	Fallbacks []string
}

// ActiveNetwork возвращает выбранный кластер.
func (c *Config) ActiveNetwork() Network {
	n := Network{Name: c.Network, RPCURL: DefaultRPCURLs[c.Network]}
	if nc, ok := c.Networks[c.Network]; ok {
		if nc.RPCURL != "" {
			n.RPCURL = nc.RPCURL
		}
		n.Fallbacks = nc.FallbackRPCURLs
	}
	return n
}

// RPCURLs возвращает основной RPC и резервные без повторов.
func (n Network) RPCURLs() []string {
	urls := make([]string, 0, 1+len(n.Fallbacks))
	seen := make(map[string]struct{}, 1+len(n.Fallbacks))
	for _, u := range append([]string{n.RPCURL}, n.Fallbacks...) {
		if _, ok := seen[u]; ok || u == "" {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// NetworkNames возвращает известные кластеры в стабильном порядке.
func NetworkNames() []string {
	names := make([]string, 0, len(DefaultRPCURLs))
	for name := range DefaultRPCURLs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DataDir – каталог данных кошелька по умолчанию.
func DataDir() string {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".solana-wallet"
	}
	return filepath.Join(home, ".solana-wallet")
}

func networkValidator(fl validator.FieldLevel) bool {
	_, ok := DefaultRPCURLs[fl.Field().String()]
	return ok
}

func commitmentValidator(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "processed", "confirmed", "finalized":
		return true
	}
	return false
}

var urlCache sync.Map

// rpcURLValidator принимает http(s) и ws(s) адреса.
func rpcURLValidator(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if _, ok := urlCache.Load(raw); ok {
		return true
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	if !strings.HasPrefix(parsed.Scheme, "http") && !strings.HasPrefix(parsed.Scheme, "ws") {
		return false
	}
	urlCache.Store(raw, parsed)
	return true
}

// NewValidator создаёт валидатор с правилами кошелька.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("network", networkValidator)
	_ = validate.RegisterValidation("commitment", commitmentValidator)
	_ = validate.RegisterValidation("rpc_url", rpcURLValidator)
	return validate
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if err := NewValidator().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	for name := range c.Networks {
		if _, ok := DefaultRPCURLs[name]; !ok {
			return fmt.Errorf("config validation failed: unknown network %q", name)
		}
	}
	return nil
}
