// Package analytics computes risk-adjusted performance metrics over closed
// trades and equity series. Every function is pure: inputs are never
// modified and results depend only on the arguments.
package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
)

// DaysInYear is the year length used to annualise scores.
const DaysInYear = 365.24

const year = time.Duration(DaysInYear * float64(24*time.Hour))

// Scale maps any real score into (-1, 1) so that Scale(1) == 0.1.
func Scale(x float64) float64 {
	const c = 99
	return x / math.Sqrt(c+x*x)
}

// Score rates a trade sequence by net profit per unit of risk per year,
// passed through Scale. Risk combines the worst adverse excursion with the
// deviation of the cumulative profit from a straight line.
func Score(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}

	worst := trades[0].MAE
	first := trades[0].EntryTime
	last := trades[0].ExitTime
	for i := range trades {
		t := &trades[i]
		if t.MAE.LessThan(worst) {
			worst = t.MAE
		}
		if t.EntryTime.Before(first) {
			first = t.EntryTime
		}
		if t.ExitTime.After(last) {
			last = t.ExitTime
		}
	}
	linearError := -LinearDeviation(trades)
	risk := math.Sqrt(worst.InexactFloat64() * linearError)
	years := float64(last.Sub(first)) / float64(year)

	net := netProfit(trades)
	// A positive worst excursion makes risk imaginary; treat it as no risk.
	if risk == 0 || math.IsNaN(risk) || years == 0 {
		return float64(net.Sign())
	}
	return Scale(net.InexactFloat64() / risk / years)
}

// SeriesScore rates an equity series by how closely it follows the straight
// line from its first to its last value. Series with fewer than two points
// score 0.
func SeriesScore(points []domain.ChartPoint) float64 {
	count := len(points)
	if count < 2 {
		return 0
	}

	first := points[0].Y
	net := points[count-1].Y.Sub(first)
	avg := net.Div(decimal.NewFromInt(int64(count - 1)))
	ideal := first
	errSum := decimal.Zero
	for _, p := range points {
		errSum = errSum.Add(p.Y.Sub(ideal).Abs())
		ideal = ideal.Add(avg)
	}

	if errSum.IsZero() {
		return float64(net.Sign())
	}
	return Scale(net.Mul(decimal.NewFromInt(int64(count))).Div(errSum).InexactFloat64())
}

// AthScore returns the fraction of samples that set a new all-time high.
// The first sample establishes the high and is not counted as one.
func AthScore(points []domain.ChartPoint) float64 {
	var (
		ath     decimal.Decimal
		seen    bool
		athDays int
	)
	for _, p := range points {
		if !seen || p.Y.GreaterThan(ath) {
			if seen {
				athDays++
			}
			ath = p.Y
			seen = true
		}
	}
	if len(points) == 0 {
		return 0
	}
	return float64(athDays) / float64(len(points))
}

// MaxDrawdown walks the trades in order and returns the deepest drop from a
// running peak (including open excursions) together with the longest span
// measured from a peak. The drawdown is never positive.
func MaxDrawdown(trades []domain.Trade) (decimal.Decimal, time.Duration) {
	var period time.Duration
	if len(trades) == 0 {
		return decimal.Zero, period
	}

	drawdown := decimal.Zero
	top := decimal.Zero
	bottom := decimal.Zero
	closed := decimal.Zero
	topTime := trades[0].EntryTime
	for i := range trades {
		t := &trades[i]
		if peak := closed.Add(t.MFE); peak.GreaterThan(top) {
			top = peak
			bottom = closed.Add(t.ProfitLoss)
			topTime = t.ExitTime
		} else {
			bottom = decimal.Min(bottom, closed.Add(t.MAE))
			if span := t.ExitTime.Sub(topTime); span > period {
				period = span
			}
		}

		drawdown = decimal.Min(drawdown, bottom.Sub(top))
		closed = closed.Add(t.ProfitLoss)
	}
	return drawdown, period
}

// RoMaD returns net profit over maximum drawdown, 0 without drawdown.
func RoMaD(trades []domain.Trade) float64 {
	drawdown, _ := MaxDrawdown(trades)
	if drawdown.IsZero() {
		return 0
	}
	return netProfit(trades).Div(drawdown.Neg()).InexactFloat64()
}

// Sharpe returns net profit over the population standard deviation of the
// per-trade net profits. It is not annualised.
func Sharpe(trades []domain.Trade) float64 {
	values := netProfits(trades)
	stddev := StandardDeviation(values)
	if stddev.IsZero() {
		return 0
	}
	return sum(values).Div(stddev).InexactFloat64()
}

// StandardDeviation returns the population standard deviation of values,
// 0 for empty input.
func StandardDeviation(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(len(values)))
	avg := sum(values).Div(n)
	sq := decimal.Zero
	for _, v := range values {
		d := v.Sub(avg)
		sq = sq.Add(d.Mul(d))
	}
	if sq.IsZero() {
		return decimal.Zero
	}
	variance := sq.InexactFloat64() / float64(len(values))
	return decimal.NewFromFloat(math.Sqrt(variance))
}

// LinearDeviation returns the root mean squared distance between the
// cumulative net profit and the straight line from zero to the total.
func LinearDeviation(trades []domain.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	values := netProfits(trades)
	avg := sum(values).Div(decimal.NewFromInt(int64(len(values))))

	profit := decimal.Zero
	ideal := decimal.Zero
	sq := decimal.Zero
	for _, v := range values {
		profit = profit.Add(v)
		ideal = ideal.Add(avg)
		eps := profit.Sub(ideal)
		sq = sq.Add(eps.Mul(eps))
	}
	return math.Sqrt(sq.InexactFloat64() / float64(len(values)))
}

func netProfits(trades []domain.Trade) []decimal.Decimal {
	out := make([]decimal.Decimal, len(trades))
	for i := range trades {
		out[i] = trades[i].NetProfit()
	}
	return out
}

func netProfit(trades []domain.Trade) decimal.Decimal {
	return sum(netProfits(trades))
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
