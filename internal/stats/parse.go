package stats

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseInvariant parses a number written in the invariant culture:
// surrounding white space, "," group separators, a leading or trailing
// sign, accounting-style parentheses for negatives and exponent notation
// are accepted.
func ParseInvariant(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	switch {
	case strings.HasPrefix(s, "+"):
		s = strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = strings.TrimSpace(s[1:])
	case strings.HasSuffix(s, "+"):
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = strings.TrimSpace(s[:len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s[0] == '+' || s[0] == '-' || strings.ContainsAny(s, "() ") {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
