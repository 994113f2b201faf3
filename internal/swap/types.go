// internal/swap/types.go
package swap

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

var (
	ErrNoRoute    = errors.New("aggregator returned no route")
	ErrQuoteStale = errors.New("quote is stale")
	ErrNoQuote    = errors.New("no quote available")
)

// QuoteRequest – параметры запроса котировки в минимальных единицах.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps uint16
}

// RouteStep – один шаг маршрута агрегатора.
type RouteStep struct {
	Label      string
	AmmKey     string
	InputMint  string
	OutputMint string
	InAmount   uint64
	OutAmount  uint64
	FeeAmount  uint64
	FeeMint    string
	Percent    int
}

// Quote – котировка агрегатора. Raw – исходный JSON ответа, его возвращают
// в эндпоинт сборки без изменений.
type Quote struct {
	InputMint            string
	OutputMint           string
	InAmount             uint64
	OutAmount            uint64
	OtherAmountThreshold uint64
	SlippageBps          uint16
	PriceImpactPct       decimal.Decimal
	Route                []RouteStep
	ContextSlot          uint64
	FetchedAt            time.Time
	Raw                  json.RawMessage
}

// Expired сообщает, что котировка старше ttl.
func (q *Quote) Expired(now time.Time, ttl time.Duration) bool {
	return q == nil || (ttl > 0 && now.Sub(q.FetchedAt) >= ttl)
}

// SwapOptions передаются в эндпоинт сборки транзакции.
type SwapOptions struct {
	WrapAndUnwrapSol        bool
	DynamicComputeUnitLimit bool
	// PrioritizationFeeLamports – 0 означает "auto" на стороне агрегатора.
	PrioritizationFeeLamports uint64
	// InputDecimals используется только для описания транзакции в журнале.
	InputDecimals uint8
}

// DefaultSwapOptions – настройки по умолчанию для сборки свопа.
func DefaultSwapOptions() SwapOptions {
	return SwapOptions{WrapAndUnwrapSol: true, DynamicComputeUnitLimit: true}
}

// SwapTransaction – неподписанная транзакция, собранная агрегатором.
type SwapTransaction struct {
	Transaction          *solana.Transaction
	LastValidBlockHeight uint64
}
