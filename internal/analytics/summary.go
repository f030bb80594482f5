package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"backtestvault/internal/domain"
)

// SymbolSummary holds aggregated trade metrics for a single symbol.
type SymbolSummary struct {
	Symbol         domain.Symbol
	Trades         int
	NetProfit      decimal.Decimal
	WinRate        float64 // fraction of trades with positive net profit
	AverageProfit  float64
	ProfitStdDev   float64
	Score          float64
	RoMaD          float64
	Sharpe         float64
	MaxDrawdown    decimal.Decimal
	DrawdownPeriod time.Duration
}

// Summarize groups trades by symbol and computes per-symbol metrics.
// Symbols are matched case-insensitively; the first spelling seen names the
// group and groups are returned in first-seen order.
func Summarize(trades []domain.Trade) []SymbolSummary {
	var order []string
	groups := make(map[string][]domain.Trade)
	names := make(map[string]domain.Symbol)
	for _, t := range trades {
		key := strings.ToUpper(string(t.Symbol))
		if _, ok := groups[key]; !ok {
			order = append(order, key)
			names[key] = t.Symbol
		}
		groups[key] = append(groups[key], t)
	}

	out := make([]SymbolSummary, 0, len(order))
	for _, key := range order {
		group := groups[key]
		profits := make([]float64, len(group))
		wins := 0
		for i := range group {
			p := group[i].NetProfit()
			profits[i] = p.InexactFloat64()
			if p.IsPositive() {
				wins++
			}
		}
		mean, variance := stat.PopMeanVariance(profits, nil)
		drawdown, period := MaxDrawdown(group)

		out = append(out, SymbolSummary{
			Symbol:         names[key],
			Trades:         len(group),
			NetProfit:      netProfit(group),
			WinRate:        float64(wins) / float64(len(group)),
			AverageProfit:  mean,
			ProfitStdDev:   math.Sqrt(variance),
			Score:          Score(group),
			RoMaD:          RoMaD(group),
			Sharpe:         Sharpe(group),
			MaxDrawdown:    drawdown,
			DrawdownPeriod: period,
		})
	}
	return out
}
