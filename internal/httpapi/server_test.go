package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"backtestvault/internal/archive"
	"backtestvault/internal/domain"
	"backtestvault/internal/engine"
	"backtestvault/internal/live"
	"backtestvault/internal/store"
)

const runResult = `{
  "Charts": {
    "Strategy Equity": {"Name": "Strategy Equity", "Series": {
      "Equity": {"Name": "Equity", "SeriesType": 0, "Values": [{"x": 1704153600, "y": 1000}, {"x": 1704240000, "y": 1040}]}
    }}
  },
  "Orders": {"1": {"Type": 0, "Id": 1, "Symbol": "SPY", "Quantity": 2, "Price": 470, "Status": 3}},
  "ProfitLoss": {"2024-01-03T00:00:00Z": 40},
  "TotalPerformance": {
    "ClosedTrades": [
      {"Symbol": "SPY", "EntryTime": "2024-01-02T15:00:00Z", "EntryPrice": 460, "Quantity": 4,
       "ExitTime": "2024-01-03T15:00:00Z", "ExitPrice": 470, "ProfitLoss": 40, "TotalFees": 0, "MAE": -8, "MFE": 44}
    ]
  },
  "Statistics": {"Net Profit": "4%"}
}`

func newTestServer(t *testing.T) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	ts, catalog, _ := newTestServerWithEngine(t)
	return ts, catalog
}

func newTestServerWithEngine(t *testing.T) (*httptest.Server, *store.SQLiteStore, *engine.Service) {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	catalog, err := store.NewSQLiteStore(ctx, filepath.Join(root, "catalog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	hub := live.NewHub()
	eng := engine.NewService(archive.NewStore(root, nil), catalog, nil, nil, engine.WithEvents(hub))
	bt := &domain.Backtest{
		Name:           "sma",
		InitialCapital: decimal.NewFromInt(1000),
		Status:         domain.StatusSuccess,
		Logs:           "a\nb\nc\n",
		Result:         runResult,
	}
	if err := eng.Finalize(ctx, bt); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	ts := httptest.NewServer(NewServer(catalog, eng, hub, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		catalog.Close()
	})
	return ts, catalog, eng
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleList(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := get(t, ts.URL+"/api/backtests")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q, want *", got)
	}
	var runs []RunJSON
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(runs) != 1 || runs[0].Name != "sma" || runs[0].InitialCapital != 1000 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestHandleDetail(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := get(t, ts.URL+"/api/backtests/sma")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var d DetailJSON
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if d.Trades != 1 || d.LogLines != 3 {
		t.Errorf("trades/logLines = %d/%d, want 1/3", d.Trades, d.LogLines)
	}
	if len(d.Holdings) != 1 || d.Holdings[0].EntryValue != 940 {
		t.Errorf("holdings = %+v", d.Holdings)
	}
	if len(d.Symbols) != 1 || d.Symbols[0].NetProfit != 40 {
		t.Errorf("symbols = %+v", d.Symbols)
	}
	if v, ok := d.Statistics.Get("Net Profit%"); !ok || !v.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Net Profit%% = %s, %v", v, ok)
	}
}

func TestHandleCharts(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := get(t, ts.URL+"/api/backtests/sma/charts")
	var charts []ChartJSON
	if err := json.NewDecoder(resp.Body).Decode(&charts); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(charts) != 1 || !charts[0].Visible || len(charts[0].Series) != 2 {
		t.Fatalf("charts = %+v", charts)
	}
	profit := charts[0].Series[1]
	if profit.Name != "Realized Profit" || len(profit.Points) != 1 || profit.Points[0].V != 1040 {
		t.Errorf("realized profit = %+v", profit)
	}
}

func TestHandleSymbolsCSVAndLogs(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := get(t, ts.URL+"/api/backtests/sma/symbols.csv")
	buf := new(strings.Builder)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "symbol,trades,") || !strings.Contains(buf.String(), "SPY,1,40") {
		t.Errorf("csv = %q", buf.String())
	}

	resp = get(t, ts.URL+"/api/backtests/sma/logs")
	buf.Reset()
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a\nb\nc\n" {
		t.Errorf("logs = %q", buf.String())
	}
}

func TestHandleNotFoundAndDelete(t *testing.T) {
	ts, catalog := newTestServer(t)
	if resp := get(t, ts.URL+"/api/backtests/missing"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/backtests/sma", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
	runs, err := catalog.ListBacktests(context.Background())
	if err != nil || len(runs) != 0 {
		t.Errorf("runs after delete = %v, %v", runs, err)
	}
}

// nextEvent reads one server-sent event and returns its name and payload.
func nextEvent(t *testing.T, r *bufio.Reader) (string, EventJSON) {
	t.Helper()
	var name string
	var evt EventJSON
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return name, evt
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
				t.Fatalf("decoding event: %v", err)
			}
		}
	}
}

func TestHandleEvents(t *testing.T) {
	ts, _, eng := newTestServerWithEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}
	r := bufio.NewReader(resp.Body)

	name, evt := nextEvent(t, r)
	if name != "snapshot" || evt.Name != "sma" || evt.Status != "success" {
		t.Errorf("snapshot = %s %+v", name, evt)
	}

	bt := &domain.Backtest{
		Name:           "ema",
		InitialCapital: decimal.NewFromInt(1000),
		Status:         domain.StatusError,
	}
	if err := eng.Finalize(ctx, bt); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	name, evt = nextEvent(t, r)
	if name != "finalized" || evt.Name != "ema" || evt.ID != bt.ID {
		t.Errorf("event = %s %+v, want finalized ema", name, evt)
	}
}
