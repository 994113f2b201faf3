// internal/swap/details.go
package swap

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/solana-wallet/internal/amount"
)

// Fee – суммарная комиссия маршрута в одном минте (сырые единицы).
type Fee struct {
	Mint   string
	Amount uint64
}

// QuoteDetails – отображаемые параметры котировки.
type QuoteDetails struct {
	InAmount        decimal.Decimal
	OutAmount       decimal.Decimal
	Rate            decimal.Decimal // out за 1 in
	MinimumReceived decimal.Decimal
	PriceImpactPct  decimal.Decimal
	Fees            []Fee
	Route           string
}

// HighPriceImpact – порог, после которого влияние на цену подсвечивается.
var HighPriceImpact = decimal.NewFromInt(5)

// Details считает отображаемые величины котировки.
func Details(q *Quote, inDecimals, outDecimals uint8) QuoteDetails {
	if q == nil {
		return QuoteDetails{}
	}
	d := QuoteDetails{
		InAmount:       amount.ToDisplay(q.InAmount, inDecimals),
		OutAmount:      amount.ToDisplay(q.OutAmount, outDecimals),
		PriceImpactPct: q.PriceImpactPct.Round(2),
		Route:          RouteLabel(q.Route),
	}
	if !d.InAmount.IsZero() {
		d.Rate = d.OutAmount.DivRound(d.InAmount, 6)
	}

	minRaw := q.OtherAmountThreshold
	if minRaw == 0 && q.SlippageBps <= 10_000 {
		// out * (10000 - bps) / 10000, округление вниз
		keep := decimal.NewFromInt(int64(10_000 - int(q.SlippageBps)))
		minRaw = amount.ToDisplay(q.OutAmount, 0).Mul(keep).Div(decimal.NewFromInt(10_000)).Floor().BigInt().Uint64()
	}
	d.MinimumReceived = amount.ToDisplay(minRaw, outDecimals)

	totals := map[string]uint64{}
	for _, step := range q.Route {
		if step.FeeAmount == 0 {
			continue
		}
		totals[step.FeeMint] += step.FeeAmount
	}
	for mint, amt := range totals {
		d.Fees = append(d.Fees, Fee{Mint: mint, Amount: amt})
	}
	sort.Slice(d.Fees, func(i, j int) bool { return d.Fees[i].Mint < d.Fees[j].Mint })
	return d
}

// HighImpact сообщает, что влияние на цену выше порога.
func (d QuoteDetails) HighImpact() bool {
	return d.PriceImpactPct.GreaterThan(HighPriceImpact)
}

// RouteLabel склеивает метки шагов: "Orca → Raydium".
func RouteLabel(steps []RouteStep) string {
	labels := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.Label == "" {
			continue
		}
		if len(labels) > 0 && labels[len(labels)-1] == s.Label {
			continue
		}
		labels = append(labels, s.Label)
	}
	if len(labels) == 0 {
		return "jupiter"
	}
	return strings.Join(labels, " → ")
}
