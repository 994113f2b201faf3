// internal/swap/jupiter.go
package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/httpx"
)

const (
	DefaultQuoteURL = "https://quote-api.jup.ag/v6/quote"
	DefaultSwapURL  = "https://quote-api.jup.ag/v6/swap"
)

// Aggregator – внешний сервис котировок и сборки транзакций.
type Aggregator interface {
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	BuildSwap(ctx context.Context, quote *Quote, user solana.PublicKey, opts SwapOptions) (*SwapTransaction, error)
}

// Jupiter – клиент Jupiter v6 (/quote, /swap).
type Jupiter struct {
	http     *httpx.Client
	quoteURL string
	swapURL  string
	apiKey   string
	logger   *zap.Logger
	now      func() time.Time
}

func NewJupiter(client *httpx.Client, quoteURL, swapURL, apiKey string, logger *zap.Logger) *Jupiter {
	if quoteURL == "" {
		quoteURL = DefaultQuoteURL
	}
	if swapURL == "" {
		swapURL = DefaultSwapURL
	}
	return &Jupiter{
		http:     client,
		quoteURL: quoteURL,
		swapURL:  swapURL,
		apiKey:   strings.TrimSpace(apiKey),
		logger:   logger.Named("jupiter"),
		now:      time.Now,
	}
}

type routePlanStep struct {
	SwapInfo struct {
		AmmKey     string `json:"ammKey"`
		Label      string `json:"label"`
		InputMint  string `json:"inputMint"`
		OutputMint string `json:"outputMint"`
		InAmount   string `json:"inAmount"`
		OutAmount  string `json:"outAmount"`
		FeeAmount  string `json:"feeAmount"`
		FeeMint    string `json:"feeMint"`
	} `json:"swapInfo"`
	Percent int `json:"percent"`
}

type quoteResponse struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SlippageBps          uint16          `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []routePlanStep `json:"routePlan"`
	ContextSlot          uint64          `json:"contextSlot"`
	Error                string          `json:"error"`
}

func (j *Jupiter) headers() map[string]string {
	if j.apiKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": j.apiKey}
}

// Quote запрашивает котировку. Пустой маршрут – ErrNoRoute.
func (j *Jupiter) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	const op = "swap.Quote"
	if req.InputMint == "" || req.OutputMint == "" {
		return nil, walleterr.Validation(op, "input and output mints are required")
	}
	if req.InputMint == req.OutputMint {
		return nil, walleterr.Validation(op, "input and output mints must differ")
	}
	if req.Amount == 0 {
		return nil, walleterr.Validation(op, "amount must be greater than zero")
	}

	vals := url.Values{}
	vals.Set("inputMint", req.InputMint)
	vals.Set("outputMint", req.OutputMint)
	vals.Set("amount", strconv.FormatUint(req.Amount, 10))
	vals.Set("slippageBps", strconv.Itoa(int(req.SlippageBps)))
	endpoint := j.quoteURL + "?" + vals.Encode()

	raw := json.RawMessage{}
	if err := j.http.Get(ctx, endpoint, j.headers(), &raw); err != nil {
		return nil, err
	}
	var resp quoteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, "decode quote", err)
	}
	if resp.Error != "" {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, resp.Error, ErrNoRoute)
	}
	if len(resp.RoutePlan) == 0 || strings.TrimSpace(resp.OutAmount) == "" {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, "empty route", ErrNoRoute)
	}

	q := &Quote{
		InputMint:   resp.InputMint,
		OutputMint:  resp.OutputMint,
		SlippageBps: resp.SlippageBps,
		ContextSlot: resp.ContextSlot,
		FetchedAt:   j.now(),
		Raw:         raw,
	}
	var err error
	if q.InAmount, err = parseUint(resp.InAmount); err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, "invalid inAmount", err)
	}
	if q.OutAmount, err = parseUint(resp.OutAmount); err != nil {
		return nil, walleterr.Wrap(walleterr.KindInternal, op, "invalid outAmount", err)
	}
	if resp.OtherAmountThreshold != "" {
		if q.OtherAmountThreshold, err = parseUint(resp.OtherAmountThreshold); err != nil {
			return nil, walleterr.Wrap(walleterr.KindInternal, op, "invalid otherAmountThreshold", err)
		}
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(resp.PriceImpactPct)); err == nil && !d.IsNegative() {
		q.PriceImpactPct = d
	}
	for _, step := range resp.RoutePlan {
		rs := RouteStep{
			Label:      strings.TrimSpace(step.SwapInfo.Label),
			AmmKey:     step.SwapInfo.AmmKey,
			InputMint:  step.SwapInfo.InputMint,
			OutputMint: step.SwapInfo.OutputMint,
			FeeMint:    step.SwapInfo.FeeMint,
			Percent:    step.Percent,
		}
		rs.InAmount, _ = parseUint(step.SwapInfo.InAmount)
		rs.OutAmount, _ = parseUint(step.SwapInfo.OutAmount)
		rs.FeeAmount, _ = parseUint(step.SwapInfo.FeeAmount)
		q.Route = append(q.Route, rs)
	}

	j.logger.Debug("Quote received",
		zap.String("input_mint", q.InputMint),
		zap.String("output_mint", q.OutputMint),
		zap.Uint64("in_amount", q.InAmount),
		zap.Uint64("out_amount", q.OutAmount),
		zap.Int("route_steps", len(q.Route)))
	return q, nil
}

type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports any             `json:"prioritizationFeeLamports,omitempty"`
}

type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// BuildSwap отправляет котировку в эндпоинт сборки и декодирует транзакцию.
// Любой отказ возвращается как KindBuild.
func (j *Jupiter) BuildSwap(ctx context.Context, quote *Quote, user solana.PublicKey, opts SwapOptions) (*SwapTransaction, error) {
	const op = "swap.BuildSwap"
	if quote == nil || len(quote.Raw) == 0 {
		return nil, walleterr.New(walleterr.KindBuild, op, "quote is required")
	}

	body := swapRequest{
		QuoteResponse:           quote.Raw,
		UserPublicKey:           user.String(),
		WrapAndUnwrapSol:        opts.WrapAndUnwrapSol,
		DynamicComputeUnitLimit: opts.DynamicComputeUnitLimit,
	}
	if opts.PrioritizationFeeLamports > 0 {
		body.PrioritizationFeeLamports = opts.PrioritizationFeeLamports
	} else {
		body.PrioritizationFeeLamports = "auto"
	}

	var resp swapResponse
	if err := j.http.DoBodyJSON(ctx, http.MethodPost, j.swapURL, body, j.headers(), &resp); err != nil {
		return nil, walleterr.Wrap(walleterr.KindBuild, op, "aggregator build failed", err)
	}
	if resp.SwapTransaction == "" {
		return nil, walleterr.New(walleterr.KindBuild, op, "aggregator returned no transaction")
	}
	tx, err := solana.TransactionFromBase64(resp.SwapTransaction)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindBuild, op, "decode swap transaction", err)
	}
	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(user) {
		return nil, walleterr.New(walleterr.KindBuild, op, fmt.Sprintf("swap transaction fee payer is not %s", user))
	}

	j.logger.Debug("Swap transaction built",
		zap.String("user", user.String()),
		zap.Int("instructions", len(tx.Message.Instructions)),
		zap.Uint64("last_valid_block_height", resp.LastValidBlockHeight))
	return &SwapTransaction{Transaction: tx, LastValidBlockHeight: resp.LastValidBlockHeight}, nil
}

func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
