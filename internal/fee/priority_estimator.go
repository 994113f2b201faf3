package fee

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/httpx"
)

// DefaultMicroLamports используется, когда сервис оценки недоступен.
const DefaultMicroLamports uint64 = 10_000

var apiLevels = map[string]string{
	"min":       "Min",
	"low":       "Low",
	"medium":    "Medium",
	"high":      "High",
	"veryhigh":  "VeryHigh",
	"unsafemax": "UnsafeMax",
}

// PriorityFee – цена CU в микролампортах. Fallback=true, если это значение по умолчанию.
type PriorityFee struct {
	MicroLamports uint64
	Fallback      bool
}

type PriorityEstimator struct {
	http       *httpx.Client
	url        string
	level      string
	defaultFee uint64
	logger     *zap.Logger
}

func NewPriorityEstimator(client *httpx.Client, url, level string, defaultFee uint64, logger *zap.Logger) *PriorityEstimator {
	if defaultFee == 0 {
		defaultFee = DefaultMicroLamports
	}
	return &PriorityEstimator{
		http:       client,
		url:        url,
		level:      level,
		defaultFee: defaultFee,
		logger:     logger.Named("priority-estimator"),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type priorityParams struct {
	Transaction string          `json:"transaction"`
	Options     priorityOptions `json:"options"`
}

type priorityOptions struct {
	PriorityLevel string `json:"priorityLevel"`
}

type rpcResponse struct {
	Result *struct {
		PriorityFeeEstimate float64 `json:"priorityFeeEstimate"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Estimate запрашивает getPriorityFeeEstimate для транзакции; при любой ошибке
// возвращает значение по умолчанию с Fallback=true.
func (pe *PriorityEstimator) Estimate(ctx context.Context, tx *solana.Transaction) PriorityFee {
	fee, err := pe.fetch(ctx, tx)
	if err != nil {
		pe.logger.Warn("Priority fee estimate unavailable, using default",
			zap.Uint64("default_micro_lamports", pe.defaultFee),
			zap.Error(err))
		return PriorityFee{MicroLamports: pe.defaultFee, Fallback: true}
	}
	return PriorityFee{MicroLamports: fee}
}

func (pe *PriorityEstimator) fetch(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	if pe.url == "" {
		return 0, fmt.Errorf("priority fee endpoint is not configured")
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("serialize transaction: %w", err)
	}
	level, ok := apiLevels[normalizeLevel(pe.level)]
	if !ok {
		level = "Medium"
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  "getPriorityFeeEstimate",
		Params: []interface{}{priorityParams{
			Transaction: base58.Encode(raw),
			Options:     priorityOptions{PriorityLevel: level},
		}},
	}
	var resp rpcResponse
	if err := pe.http.DoBodyJSON(ctx, http.MethodPost, pe.url, req, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("priority fee api error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil || resp.Result.PriorityFeeEstimate <= 0 {
		return 0, fmt.Errorf("unexpected priority fee response")
	}
	return uint64(math.Ceil(resp.Result.PriorityFeeEstimate)), nil
}

var levelReplacer = strings.NewReplacer("_", "", "-", "")

func normalizeLevel(level string) string {
	return levelReplacer.Replace(strings.ToLower(strings.TrimSpace(level)))
}
