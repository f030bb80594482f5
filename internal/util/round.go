package util

import "github.com/shopspring/decimal"

// RoundSignificant rounds d to n significant digits using banker's rounding.
// Zero is returned unchanged.
func RoundSignificant(d decimal.Decimal, n int) decimal.Decimal {
	if d.IsZero() || n <= 0 {
		return d
	}
	coef := d.Coefficient()
	coef.Abs(coef)
	digits := int32(len(coef.String()))
	places := int32(n) - (d.Exponent() + digits)
	return d.RoundBank(places)
}

// SmartRound rounds a price or value for display: values above 1000 keep
// four decimals, everything else keeps seven significant digits.
func SmartRound(d decimal.Decimal) decimal.Decimal {
	if d.GreaterThan(decimal.NewFromInt(1000)) {
		return d.RoundBank(4)
	}
	return RoundSignificant(d, 7)
}
