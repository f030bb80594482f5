package backtestvault

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"backtestvault/internal/api"
	"backtestvault/internal/archive"
	"backtestvault/internal/config"
	"backtestvault/internal/domain"
	"backtestvault/internal/engine"
	"backtestvault/internal/live"
	"backtestvault/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, _ := newTestClientWithEngine(t)
	return c
}

func newTestClientWithEngine(t *testing.T) (*Client, *engine.Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	root := t.TempDir()

	catalog, err := store.NewSQLiteStore(ctx, filepath.Join(root, "catalog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	hub := live.NewHub()
	eng := engine.NewService(archive.NewStore(root, nil), catalog, nil, nil, engine.WithEvents(hub))
	bt := &domain.Backtest{
		Name:            "breakout",
		InitialCapital:  decimal.NewFromInt(50000),
		AccountCurrency: "USD",
		Status:          domain.StatusSuccess,
		Result:          `{"Orders":{"1":{"Type":0,"Id":1,"Symbol":"AAPL","Quantity":3,"Price":190,"Status":3}},"Statistics":{"Sharpe Ratio":"1.1"}}`,
	}
	if err := eng.Finalize(ctx, bt); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := api.NewServer(config.Default(), api.NewResultService(catalog, eng, hub, nil), nil)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, lis) }()

	c, err := NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		cancel()
		select {
		case <-served:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
		catalog.Close()
	})
	return c, eng
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("localhost:9090")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()
	if c.conn == nil {
		t.Fatal("expected non-nil connection")
	}
}

func TestClientQueries(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	runs, err := c.ListBacktests(ctx)
	if err != nil {
		t.Fatalf("ListBacktests: %v", err)
	}
	if len(runs) != 1 || runs[0].Name != "breakout" || runs[0].InitialCapital != 50000 {
		t.Fatalf("runs = %+v", runs)
	}
	if runs[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not decoded")
	}

	stats, err := c.GetStatistics(ctx, "breakout")
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats["Sharpe Ratio"] != 1.1 {
		t.Errorf("Sharpe Ratio = %v, want 1.1", stats["Sharpe Ratio"])
	}

	holdings, err := c.GetHoldings(ctx, "breakout")
	if err != nil {
		t.Fatalf("GetHoldings: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Symbol != "AAPL" || holdings[0].EntryValue != 570 {
		t.Errorf("holdings = %+v", holdings)
	}

	if _, err := c.GetStatistics(ctx, "unknown"); status.Code(err) != codes.NotFound {
		t.Errorf("GetStatistics(unknown) code = %v, want NotFound", status.Code(err))
	}
}

func TestClientWatchBacktests(t *testing.T) {
	c, eng := newTestClientWithEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errStop := errors.New("stop")
	var got []Event
	done := make(chan error, 1)
	go func() {
		done <- c.WatchBacktests(ctx, func(e Event) error {
			got = append(got, e)
			if e.Type == "snapshot" {
				bt := &domain.Backtest{Name: "pullback", InitialCapital: decimal.NewFromInt(1000), Status: domain.StatusSuccess}
				if err := eng.Finalize(ctx, bt); err != nil {
					return err
				}
				return nil
			}
			return errStop
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, errStop) {
			t.Fatalf("WatchBacktests: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for events")
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Name != "breakout" || got[1].Type != "finalized" || got[1].Name != "pullback" {
		t.Errorf("events = %+v", got)
	}
	if got[1].Time.IsZero() {
		t.Error("event time not decoded")
	}
}
