// Package engine coordinates the result pipeline of a backtest run: archiving
// the engine output, normalizing statistics, cataloging the run and turning
// an archive back into everything a viewer displays.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"backtestvault/internal/analytics"
	"backtestvault/internal/archive"
	"backtestvault/internal/chart"
	"backtestvault/internal/domain"
	"backtestvault/internal/holdings"
	"backtestvault/internal/live"
	"backtestvault/internal/stats"
	"backtestvault/internal/store"
	"backtestvault/internal/trace"
	"backtestvault/internal/util"
)

// Custom statistics computed from the equity curve.
const (
	ScoreStatistic    = "Score"
	AthScoreStatistic = "ATH Score"
)

// ErrNotFinished is returned by Finalize for a run that has not completed.
var ErrNotFinished = errors.New("backtest not finished")

// View is everything displayed for an archived run.
type View struct {
	Trades     []domain.Trade
	Symbols    []analytics.SymbolSummary
	Orders     []domain.Order
	Holdings   []domain.Holding
	Charts     []*chart.View
	Logs       string
	LogLines   int
	Statistics *domain.Statistics
}

// Service orchestrates archives, statistics, charts and the run catalog.
type Service struct {
	archives *archive.Store
	catalog  store.BacktestStore
	charts   *chart.Builder
	events   *live.Hub
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes finalized and deleted runs to hub.
func WithEvents(hub *live.Hub) Option {
	return func(s *Service) { s.events = hub }
}

// NewService creates a Service. A nil catalog disables cataloging; a nil
// chart builder uses local time.
func NewService(
	archives *archive.Store,
	catalog store.BacktestStore,
	charts *chart.Builder,
	log *slog.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if charts == nil {
		charts = chart.NewBuilder(log, nil)
	}
	s := &Service{
		archives: archives,
		catalog:  catalog,
		charts:   charts,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Finalize archives the output of a completed run, replaces its statistics
// with the normalized statistics of the result document and records it in
// the catalog. A run without a result document is only cataloged.
func (s *Service) Finalize(ctx context.Context, bt *domain.Backtest) (err error) {
	ctx, span := trace.StartSpan(ctx, "engine.Finalize")
	span.SetAttributes(attribute.String("backtest.name", bt.Name), attribute.String("backtest.status", string(bt.Status)))
	defer func() { endSpan(span, err) }()

	if !bt.Status.Finished() {
		return fmt.Errorf("%w: %s is %s", ErrNotFinished, bt.Name, bt.Status)
	}

	if bt.Result != "" {
		doc := bt.Result

		start := time.Now()
		if err := s.archives.Persist(ctx, bt); err != nil {
			return fmt.Errorf("persisting %s: %w", bt.Name, err)
		}
		persistLatency.Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.String("backtest.archive", bt.ArchivePath))

		result, err := domain.DecodeResult([]byte(doc))
		if err != nil {
			return fmt.Errorf("decoding result of %s: %w", bt.Name, err)
		}
		bt.Statistics = ReadStatistics(result)
	}

	if bt.CreatedAt.IsZero() {
		bt.CreatedAt = time.Now().UTC()
	}
	if s.catalog != nil {
		if err := s.catalog.SaveBacktest(ctx, bt); err != nil {
			return fmt.Errorf("cataloging %s: %w", bt.Name, err)
		}
	}

	finalizedRuns.WithLabelValues(string(bt.Status)).Inc()
	s.publish(live.EventFinalized, bt)
	s.log.Info("backtest finalized",
		"name", bt.Name,
		"status", bt.Status,
		"archive", bt.ArchivePath,
	)
	return nil
}

// FinalizeAsync runs Finalize on a separate goroutine. The returned channel
// receives its error and is then closed. bt must not be used by the caller
// until the error has been received.
func (s *Service) FinalizeAsync(ctx context.Context, bt *domain.Backtest) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Finalize(ctx, bt)
	}()
	return done
}

// Open loads the archive of a run and derives the displayed view. A run
// without an archive, or whose archive is missing, yields an empty view.
func (s *Service) Open(ctx context.Context, bt *domain.Backtest) (v *View, err error) {
	ctx, span := trace.StartSpan(ctx, "engine.Open")
	span.SetAttributes(attribute.String("backtest.name", bt.Name), attribute.String("backtest.archive", bt.ArchivePath))
	defer func() { endSpan(span, err) }()

	v = &View{Statistics: domain.NewStatistics()}
	b, err := s.archives.Load(ctx, bt.ArchivePath)
	if err != nil {
		openedRuns.WithLabelValues(outcomeFailed).Inc()
		return nil, fmt.Errorf("opening %s: %w", bt.Name, err)
	}
	if b == nil {
		openedRuns.WithLabelValues(outcomeMissing).Inc()
		return v, nil
	}
	openedRuns.WithLabelValues(outcomeLoaded).Inc()

	v.Logs = b.Logs
	v.LogLines = strings.Count(b.Logs, "\n")
	if b.Result == nil {
		return v, nil
	}

	result := b.Result
	v.Trades = result.TotalPerformance.ClosedTrades
	v.Symbols = analytics.Summarize(v.Trades)
	v.Orders = result.OrdersByID()
	v.Holdings = holdings.Reconstruct(result.Orders)
	v.Charts = s.charts.Build(bt.Name, result, bt.InitialCapital)
	v.Statistics = ReadStatistics(result)
	closedTrades.Add(float64(len(v.Trades)))

	span.SetAttributes(
		attribute.Int("backtest.trades", len(v.Trades)),
		attribute.Int("backtest.charts", len(v.Charts)),
	)
	return v, nil
}

// Delete removes the archive and the catalog entry of a run.
func (s *Service) Delete(ctx context.Context, bt *domain.Backtest) (err error) {
	ctx, span := trace.StartSpan(ctx, "engine.Delete")
	span.SetAttributes(attribute.String("backtest.name", bt.Name))
	defer func() { endSpan(span, err) }()

	if err := s.archives.Remove(ctx, bt.ArchivePath); err != nil {
		return err
	}
	if s.catalog != nil && bt.ID != "" {
		if err := s.catalog.DeleteBacktest(ctx, bt.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("removing %s from catalog: %w", bt.Name, err)
		}
	}
	s.publish(live.EventDeleted, bt)
	bt.ArchivePath = ""
	s.log.Info("backtest deleted", "name", bt.Name, "id", bt.ID)
	return nil
}

func (s *Service) publish(typ live.EventType, bt *domain.Backtest) {
	if s.events == nil {
		return
	}
	s.events.Publish(live.NewEvent(typ, bt))
}

// ReadStatistics normalizes the statistics of a result, led by the score
// and ATH score of its equity curve.
func ReadStatistics(result *domain.Result) *domain.Statistics {
	return stats.Read(result, customStatistics(result)...)
}

func customStatistics(result *domain.Result) []domain.StatisticEntry {
	if result == nil {
		return nil
	}
	equity := result.Equity()
	if equity == nil {
		return nil
	}
	return []domain.StatisticEntry{
		{Name: ScoreStatistic, Value: significant(analytics.SeriesScore(equity.Values))},
		{Name: AthScoreStatistic, Value: significant(analytics.AthScore(equity.Values))},
	}
}

func significant(f float64) decimal.Decimal {
	return util.RoundSignificant(decimal.NewFromFloat(f), 4)
}

func endSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
