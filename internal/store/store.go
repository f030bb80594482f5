// Package store defines storage interfaces for the catalog of persisted
// backtest runs and for columnar exports of their results.
package store

import (
	"context"
	"errors"

	"backtestvault/internal/domain"
)

// ErrNotFound is returned when a requested run is not in the catalog.
var ErrNotFound = errors.New("not found")

// BacktestStore persists and retrieves catalog entries for archived runs.
type BacktestStore interface {
	// SaveBacktest inserts or replaces the catalog entry of a run. A run
	// without an ID is assigned one.
	SaveBacktest(ctx context.Context, bt *domain.Backtest) error

	// GetBacktest retrieves a run by its ID.
	GetBacktest(ctx context.Context, id string) (*domain.Backtest, error)

	// GetBacktestByName retrieves the most recent run with the given name.
	GetBacktestByName(ctx context.Context, name string) (*domain.Backtest, error)

	// ListBacktests returns all runs, oldest first.
	ListBacktests(ctx context.Context) ([]domain.Backtest, error)

	// DeleteBacktest removes a run from the catalog.
	DeleteBacktest(ctx context.Context, id string) error
}

// TradeStore persists and retrieves the closed trades of a run.
type TradeStore interface {
	// WriteTrades replaces the stored trades of run.
	WriteTrades(ctx context.Context, run string, trades []domain.Trade) error

	// ReadTrades returns the stored trades of run.
	ReadTrades(ctx context.Context, run string) ([]domain.Trade, error)
}

// SeriesStore persists and retrieves chart series of a run.
type SeriesStore interface {
	// WriteSeries replaces the stored series of run with the given name.
	WriteSeries(ctx context.Context, run, name string, points []domain.ChartPoint) error

	// ReadSeries returns the stored series of run with the given name.
	ReadSeries(ctx context.Context, run, name string) ([]domain.ChartPoint, error)
}
