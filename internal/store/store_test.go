package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backtestvault/internal/analytics"
	"backtestvault/internal/domain"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	tp, err := ps.tradePath("run-1")
	if err != nil {
		t.Fatalf("tradePath: %v", err)
	}
	wantTradePath := filepath.Join("/data", "run-1", "trades.parquet")
	if tp != wantTradePath {
		t.Errorf("tradePath mismatch:\n  got  %s\n  want %s", tp, wantTradePath)
	}

	sp, err := ps.seriesPath("run-1", "Equity")
	if err != nil {
		t.Fatalf("seriesPath: %v", err)
	}
	wantSeriesPath := filepath.Join("/data", "run-1", "equity.parquet")
	if sp != wantSeriesPath {
		t.Errorf("seriesPath mismatch:\n  got  %s\n  want %s", sp, wantSeriesPath)
	}

	sp, _ = ps.seriesPath("run-1", "Realized Profit")
	if !strings.HasSuffix(sp, "realized-profit.parquet") {
		t.Errorf("seriesPath should slug the series name: %s", sp)
	}

	for _, bad := range []string{"", "..", "a/b", "../x"} {
		if _, err := ps.tradePath(bad); err == nil {
			t.Errorf("tradePath(%q) should fail", bad)
		}
	}
	if _, err := ps.seriesPath("run-1", "trades"); err == nil {
		t.Error("seriesPath must not collide with the trades file")
	}
}

func TestParquetStoreWriteReadTrades(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	trades := []domain.Trade{
		{
			Symbol:     "AAPL",
			EntryTime:  time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
			EntryPrice: decimal.RequireFromString("185.5"),
			Direction:  domain.TradeDirectionShort,
			Quantity:   decimal.NewFromInt(-10),
			ExitTime:   time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),
			ExitPrice:  decimal.RequireFromString("180.25"),
			ProfitLoss: decimal.RequireFromString("52.5"),
			TotalFees:  decimal.NewFromInt(2),
			MAE:        decimal.NewFromInt(-10),
			MFE:        decimal.NewFromInt(60),
		},
	}
	if err := ps.WriteTrades(ctx, "run-1", trades); err != nil {
		t.Fatalf("WriteTrades: %v", err)
	}

	got, err := ps.ReadTrades(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadTrades: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ReadTrades returned %d trades, want 1", len(got))
	}
	g := got[0]
	if g.Symbol != "AAPL" || g.Direction != domain.TradeDirectionShort {
		t.Errorf("symbol/direction = %s/%v", g.Symbol, g.Direction)
	}
	if !g.EntryTime.Equal(trades[0].EntryTime) || !g.ExitTime.Equal(trades[0].ExitTime) {
		t.Errorf("times = %v..%v", g.EntryTime, g.ExitTime)
	}
	if !g.ProfitLoss.Equal(decimal.RequireFromString("52.5")) {
		t.Errorf("ProfitLoss = %s, want 52.5", g.ProfitLoss)
	}

	// Missing runs read as empty.
	none, err := ps.ReadTrades(ctx, "run-2")
	if err != nil || len(none) != 0 {
		t.Errorf("ReadTrades(missing) = %v, %v", none, err)
	}
}

func TestParquetStoreWriteReadSeries(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := []domain.ChartPoint{
		{Time: t0.AddDate(0, 0, 1), Y: decimal.NewFromInt(101)},
		{Time: t0, Y: decimal.NewFromInt(100)},
	}
	if err := ps.WriteSeries(ctx, "run-1", "Equity", points); err != nil {
		t.Fatalf("WriteSeries: %v", err)
	}
	got, err := ps.ReadSeries(ctx, "run-1", "equity")
	if err != nil {
		t.Fatalf("ReadSeries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadSeries returned %d points, want 2", len(got))
	}
	if !got[0].Time.Equal(t0) || !got[0].Y.Equal(decimal.NewFromInt(100)) {
		t.Errorf("first point = %+v, want sorted by time", got[0])
	}
}

func TestSQLiteStoreOpen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	store, err := NewSQLiteStore(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("Close() returned error: %v", cerr)
		}
	}()

	// Verify the store is usable by pinging the database.
	if err := store.db.Ping(); err != nil {
		t.Fatalf("db.Ping() returned error: %v", err)
	}
}

func TestSQLiteStoreBacktests(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	stats := domain.NewStatistics()
	stats.Insert("Net Profit%", decimal.RequireFromString("1.5"))
	stats.Insert("Score", decimal.RequireFromString("0.1234"))

	bt := &domain.Backtest{
		Name:            "macd",
		InitialCapital:  decimal.NewFromInt(100000),
		AccountCurrency: "USD",
		Status:          domain.StatusSuccess,
		ArchivePath:     "Backtests/backtest1.zip",
		Statistics:      stats,
		CreatedAt:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.SaveBacktest(ctx, bt); err != nil {
		t.Fatalf("SaveBacktest: %v", err)
	}
	if bt.ID == "" {
		t.Fatal("SaveBacktest did not assign an ID")
	}

	got, err := store.GetBacktest(ctx, bt.ID)
	if err != nil {
		t.Fatalf("GetBacktest: %v", err)
	}
	if got.Name != "macd" || got.Status != domain.StatusSuccess || got.ArchivePath != bt.ArchivePath {
		t.Errorf("GetBacktest = %+v", got)
	}
	if !got.InitialCapital.Equal(bt.InitialCapital) || !got.CreatedAt.Equal(bt.CreatedAt) {
		t.Errorf("capital/created = %s/%v", got.InitialCapital, got.CreatedAt)
	}
	keys := got.Statistics.Keys()
	if len(keys) != 2 || keys[0] != "Net Profit%" || keys[1] != "Score" {
		t.Errorf("statistics keys = %v", keys)
	}

	// Upsert keeps a single row.
	bt.Status = domain.StatusError
	if err := store.SaveBacktest(ctx, bt); err != nil {
		t.Fatalf("SaveBacktest (update): %v", err)
	}
	second := &domain.Backtest{Name: "macd", Status: domain.StatusSuccess, CreatedAt: bt.CreatedAt.Add(time.Hour)}
	if err := store.SaveBacktest(ctx, second); err != nil {
		t.Fatalf("SaveBacktest (second): %v", err)
	}

	list, err := store.ListBacktests(ctx)
	if err != nil {
		t.Fatalf("ListBacktests: %v", err)
	}
	if len(list) != 2 || list[0].ID != bt.ID || list[0].Status != domain.StatusError {
		t.Errorf("ListBacktests = %+v", list)
	}

	byName, err := store.GetBacktestByName(ctx, "macd")
	if err != nil {
		t.Fatalf("GetBacktestByName: %v", err)
	}
	if byName.ID != second.ID {
		t.Errorf("GetBacktestByName returned %s, want latest %s", byName.ID, second.ID)
	}

	if err := store.DeleteBacktest(ctx, bt.ID); err != nil {
		t.Fatalf("DeleteBacktest: %v", err)
	}
	if _, err := store.GetBacktest(ctx, bt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBacktest after delete error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteBacktest(ctx, bt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteBacktest twice error = %v, want ErrNotFound", err)
	}
}

func TestWriteSymbolsCSV(t *testing.T) {
	summaries := []analytics.SymbolSummary{
		{Symbol: "SPY", Trades: 2, NetProfit: decimal.NewFromInt(38), WinRate: 1, MaxDrawdown: decimal.NewFromInt(-5), DrawdownPeriod: 48 * time.Hour},
		{Symbol: "QQQ", Trades: 1, NetProfit: decimal.NewFromInt(-11)},
	}
	var buf bytes.Buffer
	if err := WriteSymbolsCSV(&buf, summaries); err != nil {
		t.Fatalf("WriteSymbolsCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "symbol,trades,net_profit,") {
		t.Errorf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	rows, err := ReadSymbolsCSV(&buf)
	if err != nil {
		t.Fatalf("ReadSymbolsCSV: %v", err)
	}
	if len(rows) != 2 || rows[0].Symbol != "SPY" || rows[0].NetProfit != "38" || rows[0].DrawdownDays != 2 {
		t.Errorf("rows = %+v", rows)
	}
}
