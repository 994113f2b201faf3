// internal/token/providers.go
package token

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solana-wallet/internal/blockchain"
	"github.com/rovshanmuradov/solana-wallet/internal/httpx"
	"github.com/rovshanmuradov/solana-wallet/internal/storage"
)

// StoreProvider – локальная таблица токенов (быстрый уровень).
type StoreProvider struct {
	store storage.TokenStore
}

func NewStoreProvider(store storage.TokenStore) *StoreProvider {
	return &StoreProvider{store: store}
}

func (p *StoreProvider) Name() string { return "store" }

func (p *StoreProvider) Lookup(ctx context.Context, mint string) (*Metadata, error) {
	t, err := p.store.TokenByAddress(ctx, mint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Mint:     t.Address,
		Symbol:   t.Symbol,
		Name:     t.Name,
		Decimals: t.Decimals,
		LogoURI:  NormalizeIconURL(t.LogoURI),
	}, nil
}

var knownTokens = map[string]Metadata{
	"So11111111111111111111111111111111111111112":  {Symbol: "SOL", Name: "Wrapped SOL", Decimals: 9},
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Name: "USDT", Decimals: 6},
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {Symbol: "Bonk", Name: "Bonk", Decimals: 5},
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {Symbol: "JUP", Name: "Jupiter", Decimals: 6},
}

// KnownProvider возвращает встроенные записи для популярных минтов.
type KnownProvider struct{}

func (KnownProvider) Name() string { return "known" }

func (KnownProvider) Lookup(_ context.Context, mint string) (*Metadata, error) {
	md, ok := knownTokens[mint]
	if !ok {
		return nil, nil
	}
	return &md, nil
}

// APIProvider запрашивает метаданные у внешнего сервиса токенов.
type APIProvider struct {
	http    *httpx.Client
	baseURL string
}

// NewAPIProvider; baseURL – например https://tokens.jup.ag/token.
func NewAPIProvider(client *httpx.Client, baseURL string) *APIProvider {
	return &APIProvider{http: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *APIProvider) Name() string { return "api" }

type apiToken struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

func (p *APIProvider) Lookup(ctx context.Context, mint string) (*Metadata, error) {
	if p.baseURL == "" {
		return nil, nil
	}
	var resp *apiToken
	err := p.http.Get(ctx, p.baseURL+"/"+url.PathEscape(mint), nil, &resp)
	if err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == 404 {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil || resp.Symbol == "" {
		return nil, nil
	}
	return &Metadata{
		Symbol:   resp.Symbol,
		Name:     resp.Name,
		Decimals: resp.Decimals,
		LogoURI:  NormalizeIconURL(resp.LogoURI),
	}, nil
}

const (
	mintAccountSize    = 82
	mintDecimalsOffset = 44
)

// ErrNotMint – аккаунт не существует или не является минтом SPL.
var ErrNotMint = errors.New("account is not a token mint")

// MintAccount – данные минта, нужные для перевода.
type MintAccount struct {
	Decimals uint8
	// Program – владелец минта (Token или Token-2022).
	Program solana.PublicKey
}

// LoadMint читает аккаунт минта. Отсутствующий аккаунт и чужой владелец дают ErrNotMint,
// ошибки RPC возвращаются как есть.
func LoadMint(ctx context.Context, client blockchain.Client, mint solana.PublicKey) (MintAccount, error) {
	info, err := client.GetAccountInfo(ctx, mint)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return MintAccount{}, fmt.Errorf("%w: %s not found", ErrNotMint, mint)
		}
		return MintAccount{}, fmt.Errorf("get mint account %s: %w", mint, err)
	}
	if info == nil || info.Value == nil {
		return MintAccount{}, fmt.Errorf("%w: %s not found", ErrNotMint, mint)
	}
	owner := info.Value.Owner
	if !owner.Equals(solana.TokenProgramID) && !owner.Equals(solana.Token2022ProgramID) {
		return MintAccount{}, fmt.Errorf("%w: %s is owned by %s", ErrNotMint, mint, owner)
	}
	data := info.Value.Data.GetBinary()
	if len(data) < mintAccountSize {
		return MintAccount{}, fmt.Errorf("%w: invalid data length %d", ErrNotMint, len(data))
	}
	return MintAccount{Decimals: data[mintDecimalsOffset], Program: owner}, nil
}

// MintDecimals читает decimals прямо из аккаунта минта.
func MintDecimals(ctx context.Context, client blockchain.Client, mint solana.PublicKey) (uint8, error) {
	m, err := LoadMint(ctx, client, mint)
	if err != nil {
		return 0, err
	}
	return m.Decimals, nil
}

// LoadAsset собирает актив для минта. Decimals всегда берутся из аккаунта минта,
// метаданные только дополняют символ.
func LoadAsset(ctx context.Context, client blockchain.Client, resolver *Resolver, mint solana.PublicKey) (Asset, error) {
	if mint.Equals(solana.SolMint) {
		return Native(), nil
	}
	decimals, err := MintDecimals(ctx, client, mint)
	if err != nil {
		return Asset{}, err
	}
	md := resolver.ResolveWithDecimals(ctx, mint.String(), decimals)
	md.Decimals = decimals
	return FromMetadata(mint, md), nil
}
