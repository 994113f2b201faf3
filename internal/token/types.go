// internal/token/types.go
package token

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
)

const (
	UnknownSymbol = "UNKNOWN"
	UnknownName   = "Unknown Token"
)

// Metadata хранит отображаемую информацию о токене.
type Metadata struct {
	Mint     string
	Symbol   string
	Name     string
	Decimals uint8
	LogoURI  string
	// Source – провайдер, вернувший запись ("store", "api", "chain", "known", "unknown").
	Source  string
	Unknown bool
}

// Unknown возвращает синтетическую запись для нераспознанного минта.
func Unknown(mint string, decimals uint8) Metadata {
	return Metadata{
		Mint:     mint,
		Symbol:   UnknownSymbol,
		Name:     UnknownName,
		Decimals: decimals,
		Source:   "unknown",
		Unknown:  true,
	}
}

// Asset – выбранный для операции актив: нативный SOL или SPL-токен.
type Asset struct {
	Native   bool
	Mint     solana.PublicKey
	Decimals uint8
	Symbol   string
}

// Native возвращает нативный актив.
func Native() Asset {
	return Asset{Native: true, Mint: solana.SolMint, Decimals: amount.NativeDecimals, Symbol: "SOL"}
}

// FromMetadata строит токен-актив из метаданных.
func FromMetadata(mint solana.PublicKey, md Metadata) Asset {
	return Asset{Mint: mint, Decimals: md.Decimals, Symbol: md.Symbol}
}

func (a Asset) String() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.Mint.String()
}
