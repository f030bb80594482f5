package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"backtestvault/internal/analytics"
)

// SymbolRow is the CSV schema for a per-symbol summary.
type SymbolRow struct {
	Symbol        string  `csv:"symbol"`
	Trades        int     `csv:"trades"`
	NetProfit     string  `csv:"net_profit"`
	WinRate       float64 `csv:"win_rate"`
	AverageProfit float64 `csv:"average_profit"`
	ProfitStdDev  float64 `csv:"profit_stddev"`
	Score         float64 `csv:"score"`
	RoMaD         float64 `csv:"romad"`
	Sharpe        float64 `csv:"sharpe"`
	MaxDrawdown   string  `csv:"max_drawdown"`
	DrawdownDays  float64 `csv:"drawdown_days"`
}

// SymbolRows converts summaries to CSV rows.
func SymbolRows(summaries []analytics.SymbolSummary) []*SymbolRow {
	rows := make([]*SymbolRow, len(summaries))
	for i, s := range summaries {
		rows[i] = &SymbolRow{
			Symbol:        s.Symbol.String(),
			Trades:        s.Trades,
			NetProfit:     s.NetProfit.String(),
			WinRate:       s.WinRate,
			AverageProfit: s.AverageProfit,
			ProfitStdDev:  s.ProfitStdDev,
			Score:         s.Score,
			RoMaD:         s.RoMaD,
			Sharpe:        s.Sharpe,
			MaxDrawdown:   s.MaxDrawdown.String(),
			DrawdownDays:  s.DrawdownPeriod.Hours() / 24,
		}
	}
	return rows
}

// WriteSymbolsCSV writes per-symbol summaries as CSV with a header row.
func WriteSymbolsCSV(w io.Writer, summaries []analytics.SymbolSummary) error {
	rows := SymbolRows(summaries)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("encoding symbols csv: %w", err)
	}
	return nil
}

// ExportSymbolsFile writes per-symbol summaries to a CSV file at path.
func ExportSymbolsFile(path string, summaries []analytics.SymbolSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSymbolsCSV(f, summaries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSymbolsCSV parses rows written by WriteSymbolsCSV.
func ReadSymbolsCSV(r io.Reader) ([]*SymbolRow, error) {
	var rows []*SymbolRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decoding symbols csv: %w", err)
	}
	return rows, nil
}
