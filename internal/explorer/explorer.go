// internal/explorer/explorer.go
package explorer

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind – поддерживаемый обозреватель блоков.
type Kind string

const (
	SolanaExplorer Kind = "solana-explorer"
	Solscan        Kind = "solscan"
	SolanaFM       Kind = "solanafm"
)

const (
	ClusterMainnet  = "mainnet-beta"
	ClusterDevnet   = "devnet"
	ClusterTestnet  = "testnet"
	ClusterLocalnet = "localnet"
)

type site struct {
	base        string
	txPath      string
	addressPath string
}

var sites = map[Kind]site{
	SolanaExplorer: {base: "https://explorer.solana.com", txPath: "/tx/", addressPath: "/address/"},
	Solscan:        {base: "https://solscan.io", txPath: "/tx/", addressPath: "/account/"},
	SolanaFM:       {base: "https://solana.fm", txPath: "/tx/", addressPath: "/address/"},
}

// Kinds возвращает имена всех обозревателей.
func Kinds() []Kind {
	return []Kind{SolanaExplorer, Solscan, SolanaFM}
}

// Explorer строит ссылки для выбранного обозревателя и кластера.
// Значение неизменяемо и передаётся в компоненты при создании.
type Explorer struct {
	kind    Kind
	cluster string
	rpcURL  string
}

// New проверяет имя обозревателя. rpcURL нужен только для localnet.
func New(kind Kind, cluster, rpcURL string) (Explorer, error) {
	if kind == "" {
		kind = SolanaExplorer
	}
	if _, ok := sites[kind]; !ok {
		return Explorer{}, fmt.Errorf("unknown explorer %q", kind)
	}
	if cluster == "" {
		cluster = ClusterMainnet
	}
	return Explorer{kind: kind, cluster: cluster, rpcURL: rpcURL}, nil
}

func (e Explorer) Kind() Kind { return e.kind }

// TxURL – ссылка на транзакцию.
func (e Explorer) TxURL(signature string) string {
	s := sites[e.kind]
	return s.base + s.txPath + signature + e.query()
}

// AddressURL – ссылка на аккаунт.
func (e Explorer) AddressURL(address string) string {
	s := sites[e.kind]
	return s.base + s.addressPath + address + e.query()
}

func (e Explorer) query() string {
	switch e.cluster {
	case ClusterMainnet:
		return ""
	case ClusterLocalnet:
		if e.kind == SolanaExplorer {
			custom := e.rpcURL
			if custom == "" {
				custom = "http://localhost:8899"
			}
			return "?cluster=custom&customUrl=" + url.QueryEscape(custom)
		}
		return "?cluster=custom"
	default:
		return "?cluster=" + url.QueryEscape(strings.ToLower(e.cluster))
	}
}
