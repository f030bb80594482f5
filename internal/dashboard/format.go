package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatMoney formats an amount with B/M/K suffixes, keeping two decimals
// below one thousand.
func FormatMoney(d decimal.Decimal) string {
	v := d.InexactFloat64()
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s%.1fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.1fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s%.1fK", sign, v/1e3)
	default:
		return fmt.Sprintf("%s%.2f", sign, v)
	}
}

// FormatPrice formats a price value with two decimals, or "-" for zero.
func FormatPrice(p decimal.Decimal) string {
	if p.IsZero() {
		return "-"
	}
	return p.StringFixed(2)
}

// FormatRatio formats a fraction as a signed percentage, e.g. 0.125 as
// "+12.5%". Drops the decimal for values >= 100% to keep width compact.
func FormatRatio(r float64) string {
	pct := r * 100
	sign := "+"
	if pct < 0 {
		sign = "-"
		pct = -pct
	}
	if pct == 0 {
		return "0.0%"
	}
	if pct >= 100 {
		return fmt.Sprintf("%s%.0f%%", sign, pct)
	}
	return fmt.Sprintf("%s%.1f%%", sign, pct)
}

// FormatDays formats a duration as whole days, e.g. "12d", or "-" for zero.
func FormatDays(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	days := d.Hours() / 24
	if days < 1 {
		return fmt.Sprintf("%.0fh", d.Hours())
	}
	return fmt.Sprintf("%.0fd", days)
}

// FormatCount formats a trade count, using K suffix for large values.
func FormatCount(n int) string {
	if n >= 100_000 {
		return fmt.Sprintf("%.0fK", float64(n)/1e3)
	}
	return FormatInt(n)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", f)
}
