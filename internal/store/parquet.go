package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
)

// Compile-time interface checks.
var _ TradeStore = (*ParquetStore)(nil)
var _ SeriesStore = (*ParquetStore)(nil)

// ParquetStore implements TradeStore and SeriesStore using Parquet files on
// disk, one directory per run.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// TradeRecord is the Parquet schema for a closed trade.
type TradeRecord struct {
	Symbol     string  `parquet:"symbol"`
	EntryTime  int64   `parquet:"entry_time,timestamp(millisecond)"` // Unix ms
	EntryPrice float64 `parquet:"entry_price"`
	Direction  int32   `parquet:"direction"`
	Quantity   float64 `parquet:"quantity"`
	ExitTime   int64   `parquet:"exit_time,timestamp(millisecond)"` // Unix ms
	ExitPrice  float64 `parquet:"exit_price"`
	ProfitLoss float64 `parquet:"profit_loss"`
	TotalFees  float64 `parquet:"total_fees"`
	MAE        float64 `parquet:"mae"`
	MFE        float64 `parquet:"mfe"`
}

// PointRecord is the Parquet schema for a chart sample.
type PointRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Value     float64 `parquet:"value"`
}

// ---------------------------------------------------------------------------
// TradeStore implementation
// ---------------------------------------------------------------------------

// WriteTrades writes the trades of a run to <DataDir>/<run>/trades.parquet.
func (s *ParquetStore) WriteTrades(_ context.Context, run string, trades []domain.Trade) error {
	path, err := s.tradePath(run)
	if err != nil {
		return err
	}
	records := make([]TradeRecord, len(trades))
	for i := range trades {
		t := &trades[i]
		records[i] = TradeRecord{
			Symbol:     t.Symbol.String(),
			EntryTime:  t.EntryTime.UnixMilli(),
			EntryPrice: t.EntryPrice.InexactFloat64(),
			Direction:  int32(t.Direction),
			Quantity:   t.Quantity.InexactFloat64(),
			ExitTime:   t.ExitTime.UnixMilli(),
			ExitPrice:  t.ExitPrice.InexactFloat64(),
			ProfitLoss: t.ProfitLoss.InexactFloat64(),
			TotalFees:  t.TotalFees.InexactFloat64(),
			MAE:        t.MAE.InexactFloat64(),
			MFE:        t.MFE.InexactFloat64(),
		}
	}
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing trades for %s: %w", run, err)
	}
	return nil
}

// ReadTrades reads the trades of a run. A run without exported trades
// yields no trades and no error.
func (s *ParquetStore) ReadTrades(_ context.Context, run string) ([]domain.Trade, error) {
	path, err := s.tradePath(run)
	if err != nil {
		return nil, err
	}
	records, err := readParquetFile[TradeRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading trades for %s: %w", run, err)
	}

	trades := make([]domain.Trade, len(records))
	for i, r := range records {
		trades[i] = domain.Trade{
			Symbol:     domain.Symbol(r.Symbol),
			EntryTime:  time.UnixMilli(r.EntryTime).UTC(),
			EntryPrice: decimal.NewFromFloat(r.EntryPrice),
			Direction:  domain.TradeDirection(r.Direction),
			Quantity:   decimal.NewFromFloat(r.Quantity),
			ExitTime:   time.UnixMilli(r.ExitTime).UTC(),
			ExitPrice:  decimal.NewFromFloat(r.ExitPrice),
			ProfitLoss: decimal.NewFromFloat(r.ProfitLoss),
			TotalFees:  decimal.NewFromFloat(r.TotalFees),
			MAE:        decimal.NewFromFloat(r.MAE),
			MFE:        decimal.NewFromFloat(r.MFE),
		}
	}
	return trades, nil
}

// ---------------------------------------------------------------------------
// SeriesStore implementation
// ---------------------------------------------------------------------------

// WriteSeries writes a chart series of a run to
// <DataDir>/<run>/<series>.parquet, sorted by time.
func (s *ParquetStore) WriteSeries(_ context.Context, run, name string, points []domain.ChartPoint) error {
	path, err := s.seriesPath(run, name)
	if err != nil {
		return err
	}
	records := make([]PointRecord, len(points))
	for i, p := range points {
		records[i] = PointRecord{Timestamp: p.Time.UnixMilli(), Value: p.Y.InexactFloat64()}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing series %s for %s: %w", name, run, err)
	}
	return nil
}

// ReadSeries reads a chart series of a run.
func (s *ParquetStore) ReadSeries(_ context.Context, run, name string) ([]domain.ChartPoint, error) {
	path, err := s.seriesPath(run, name)
	if err != nil {
		return nil, err
	}
	records, err := readParquetFile[PointRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading series %s for %s: %w", name, run, err)
	}
	points := make([]domain.ChartPoint, len(records))
	for i, r := range records {
		points[i] = domain.ChartPoint{
			Time: time.UnixMilli(r.Timestamp).UTC(),
			Y:    decimal.NewFromFloat(r.Value),
		}
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// tradePath returns the filesystem path for the trades of a run.
// Layout: <dataDir>/<run>/trades.parquet
func (s *ParquetStore) tradePath(run string) (string, error) {
	dir, err := s.runDir(run)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trades.parquet"), nil
}

// seriesPath returns the filesystem path for a series of a run.
// Layout: <dataDir>/<run>/<series-name>.parquet, e.g. equity.parquet
func (s *ParquetStore) seriesPath(run, name string) (string, error) {
	dir, err := s.runDir(run)
	if err != nil {
		return "", err
	}
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if slug == "" || slug == "trades" || !filepath.IsLocal(slug) || strings.ContainsAny(slug, `/\`) {
		return "", fmt.Errorf("invalid series name %q", name)
	}
	return filepath.Join(dir, slug+".parquet"), nil
}

func (s *ParquetStore) runDir(run string) (string, error) {
	if run == "" || !filepath.IsLocal(run) || strings.ContainsAny(run, `/\`) {
		return "", fmt.Errorf("invalid run name %q", run)
	}
	return filepath.Join(s.DataDir, run), nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}
