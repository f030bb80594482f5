// Package dashboard renders archived backtest runs as terminal tables: the
// run catalog, normalized statistics, holdings, per-symbol summaries and
// chart overviews.
package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"backtestvault/internal/analytics"
	"backtestvault/internal/chart"
	"backtestvault/internal/domain"
	"backtestvault/internal/holdings"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

// column describes one table column.
type column struct {
	title string
	width int
	right bool
}

func cell(c column, style lipgloss.Style, text string) string {
	s := style.Width(c.width)
	if c.right {
		s = s.Align(lipgloss.Right)
	}
	return s.Render(text)
}

func header(cols []column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = cell(c, colHeaderStyle, c.title)
	}
	return strings.Join(parts, " ")
}

func signStyle(sign int) lipgloss.Style {
	switch {
	case sign > 0:
		return gainStyle
	case sign < 0:
		return lossStyle
	}
	return valueStyle
}

// RenderRuns renders the run catalog.
func RenderRuns(runs []domain.Backtest) string {
	cols := []column{
		{title: "NAME", width: 24},
		{title: "STATUS", width: 8},
		{title: "CAPITAL", width: 10, right: true},
		{title: "CREATED", width: 20},
		{title: "ARCHIVE", width: 28},
	}
	var b strings.Builder
	b.WriteString(header(cols))
	b.WriteByte('\n')
	for i := range runs {
		bt := &runs[i]
		style := valueStyle
		if bt.Status == domain.StatusError {
			style = lossStyle
		}
		archive := bt.ArchivePath
		if archive == "" {
			archive = "-"
		}
		b.WriteString(strings.Join([]string{
			cell(cols[0], symbolStyle, bt.Name),
			cell(cols[1], style, string(bt.Status)),
			cell(cols[2], valueStyle, FormatMoney(bt.InitialCapital)),
			cell(cols[3], dimStyle, bt.CreatedAt.Format("2006-01-02 15:04:05")),
			cell(cols[4], dimStyle, archive),
		}, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderEvent renders one catalog event as a single line.
func RenderEvent(at time.Time, typ, name, status, archivePath string) string {
	style := valueStyle
	switch {
	case typ == "deleted":
		style = dimStyle
	case status == string(domain.StatusError):
		style = lossStyle
	case typ == "finalized":
		style = gainStyle
	}
	if archivePath == "" {
		archivePath = "-"
	}
	return strings.Join([]string{
		dimStyle.Render(at.Local().Format("15:04:05")),
		style.Width(10).Render(typ),
		symbolStyle.Width(24).Render(name),
		style.Width(8).Render(status),
		dimStyle.Render(archivePath),
	}, " ")
}

// RenderStatistics renders a statistics map in map order.
func RenderStatistics(title string, stats *domain.Statistics) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + title + " "))
	b.WriteByte('\n')
	if stats == nil {
		return b.String()
	}
	width := 0
	for _, k := range stats.Keys() {
		width = max(width, len(k))
	}
	name := column{width: width}
	value := column{width: 18, right: true}
	for _, e := range stats.Entries() {
		b.WriteString(cell(name, dimStyle, e.Name))
		b.WriteByte(' ')
		b.WriteString(cell(value, signStyle(e.Value.Sign()), e.Value.String()))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderHoldings renders open holdings followed by their total entry value.
func RenderHoldings(hs []domain.Holding, currency string) string {
	cols := []column{
		{title: "SYMBOL", width: 12},
		{title: "QUANTITY", width: 12, right: true},
		{title: "PRICE", width: 12, right: true},
		{title: "VALUE " + currency, width: 14, right: true},
	}
	var b strings.Builder
	b.WriteString(header(cols))
	b.WriteByte('\n')
	for _, h := range hs {
		b.WriteString(strings.Join([]string{
			cell(cols[0], symbolStyle, h.Symbol.String()),
			cell(cols[1], signStyle(h.Quantity.Sign()), h.Quantity.String()),
			cell(cols[2], valueStyle, FormatPrice(h.EntryPrice)),
			cell(cols[3], valueStyle, FormatMoney(h.EntryValue)),
		}, " "))
		b.WriteByte('\n')
	}
	b.WriteString(cell(cols[0], dimStyle, "TOTAL"))
	b.WriteString(strings.Repeat(" ", cols[1].width+cols[2].width+3))
	b.WriteString(cell(cols[3], valueStyle, FormatMoney(holdings.TotalValue(hs))))
	b.WriteByte('\n')
	return b.String()
}

// RenderSymbols renders per-symbol trade summaries.
func RenderSymbols(summaries []analytics.SymbolSummary) string {
	cols := []column{
		{title: "SYMBOL", width: 12},
		{title: "TRADES", width: 7, right: true},
		{title: "NET", width: 10, right: true},
		{title: "WIN", width: 7, right: true},
		{title: "SCORE", width: 7, right: true},
		{title: "SHARPE", width: 7, right: true},
		{title: "ROMAD", width: 7, right: true},
		{title: "MAXDD", width: 10, right: true},
		{title: "DD", width: 5, right: true},
	}
	var b strings.Builder
	b.WriteString(header(cols))
	b.WriteByte('\n')
	for _, s := range summaries {
		b.WriteString(strings.Join([]string{
			cell(cols[0], symbolStyle, s.Symbol.String()),
			cell(cols[1], valueStyle, FormatCount(s.Trades)),
			cell(cols[2], signStyle(s.NetProfit.Sign()), FormatMoney(s.NetProfit)),
			cell(cols[3], valueStyle, FormatRatio(s.WinRate)),
			cell(cols[4], valueStyle, formatFloat(s.Score)),
			cell(cols[5], valueStyle, formatFloat(s.Sharpe)),
			cell(cols[6], valueStyle, formatFloat(s.RoMaD)),
			cell(cols[7], lossStyle, FormatMoney(s.MaxDrawdown)),
			cell(cols[8], dimStyle, FormatDays(s.DrawdownPeriod)),
		}, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderCharts renders one line per series: its chart, type, sample count
// and last value.
func RenderCharts(views []*chart.View) string {
	cols := []column{
		{title: "CHART", width: 20},
		{title: "SERIES", width: 20},
		{title: "TYPE", width: 10},
		{title: "POINTS", width: 7, right: true},
		{title: "LAST", width: 14, right: true},
	}
	var b strings.Builder
	b.WriteString(header(cols))
	b.WriteByte('\n')
	for _, v := range views {
		style := dimStyle
		if v.Visible {
			style = symbolStyle
		}
		for _, s := range v.Series {
			last := "-"
			if n := len(s.Points); n > 0 {
				last = FormatMoney(s.Points[n-1].Value)
			}
			b.WriteString(strings.Join([]string{
				cell(cols[0], style, v.Name),
				cell(cols[1], valueStyle, s.Name),
				cell(cols[2], dimStyle, s.Type.String()),
				cell(cols[3], valueStyle, FormatInt(len(s.Points))),
				cell(cols[4], valueStyle, last),
			}, " "))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
