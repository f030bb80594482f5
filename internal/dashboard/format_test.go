package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backtestvault/internal/analytics"
	"backtestvault/internal/chart"
	"backtestvault/internal/domain"
)

func TestFormatInt(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-12345, "-12,345"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.n); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		v    string
		want string
	}{
		{"12.5", "12.50"},
		{"1550", "1.6K"},
		{"-2500000", "-2.5M"},
		{"3000000000", "3.0B"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.v)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{0, "0.0%"},
		{0.125, "+12.5%"},
		{-0.03, "-3.0%"},
		{1.5, "+150%"},
	}
	for _, tt := range tests {
		if got := FormatRatio(tt.r); got != tt.want {
			t.Errorf("FormatRatio(%v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestFormatDays(t *testing.T) {
	if got := FormatDays(0); got != "-" {
		t.Errorf("FormatDays(0) = %q, want -", got)
	}
	if got := FormatDays(6 * time.Hour); got != "6h" {
		t.Errorf("FormatDays(6h) = %q, want 6h", got)
	}
	if got := FormatDays(72 * time.Hour); got != "3d" {
		t.Errorf("FormatDays(72h) = %q, want 3d", got)
	}
}

func TestRenderStatistics(t *testing.T) {
	stats := domain.NewStatistics()
	stats.Insert("Net Profit%", decimal.RequireFromString("12.5"))
	stats.Insert("Drawdown%", decimal.RequireFromString("-4.2"))

	out := RenderStatistics("sma", stats)
	for _, want := range []string{"sma", "Net Profit%", "12.5", "Drawdown%", "-4.2"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderStatistics output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Net Profit%") > strings.Index(out, "Drawdown%") {
		t.Error("RenderStatistics did not keep map order")
	}
}

func TestRenderHoldings(t *testing.T) {
	hs := []domain.Holding{
		{Symbol: "SPY", Quantity: decimal.NewFromInt(15), EntryPrice: decimal.RequireFromString("103.3333"), EntryValue: decimal.NewFromInt(1550)},
		{Symbol: "QQQ", Quantity: decimal.NewFromInt(-2), EntryPrice: decimal.NewFromInt(20), EntryValue: decimal.NewFromInt(-40)},
	}
	out := RenderHoldings(hs, "USD")
	for _, want := range []string{"VALUE USD", "SPY", "103.33", "1.6K", "QQQ", "-40.00", "TOTAL", "1.5K"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderHoldings output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSymbolsAndRuns(t *testing.T) {
	out := RenderSymbols([]analytics.SymbolSummary{
		{Symbol: "AAPL", Trades: 3, NetProfit: decimal.NewFromInt(120), WinRate: 2.0 / 3, MaxDrawdown: decimal.NewFromInt(-30), DrawdownPeriod: 48 * time.Hour},
	})
	for _, want := range []string{"AAPL", "120.00", "+66.7%", "-30.00", "2d"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSymbols output missing %q:\n%s", want, out)
		}
	}

	runs := RenderRuns([]domain.Backtest{{
		Name:           "macd",
		Status:         domain.StatusSuccess,
		InitialCapital: decimal.NewFromInt(100000),
		ArchivePath:    "Backtests/backtest1.zip",
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}})
	for _, want := range []string{"macd", "success", "100.0K", "2024-05-01 12:00:00", "Backtests/backtest1.zip"} {
		if !strings.Contains(runs, want) {
			t.Errorf("RenderRuns output missing %q:\n%s", want, runs)
		}
	}
}

func TestRenderCharts(t *testing.T) {
	views := []*chart.View{{
		Name:    "Strategy Equity",
		Visible: true,
		Series: []chart.SeriesView{
			{Name: "Equity", Type: domain.SeriesTypeLine, Points: []chart.Point{{Value: decimal.NewFromInt(100)}, {Value: decimal.NewFromInt(130)}}},
			{Name: chart.RealizedProfit, Type: domain.SeriesTypeLine},
		},
	}}
	out := RenderCharts(views)
	for _, want := range []string{"Strategy Equity", "Equity", "130.00", chart.RealizedProfit} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderCharts output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	out := RenderEvent(at, "finalized", "macd", "success", "")
	for _, want := range []string{"finalized", "macd", "success", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderEvent output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "\n") {
		t.Errorf("RenderEvent output spans lines: %q", out)
	}
}
