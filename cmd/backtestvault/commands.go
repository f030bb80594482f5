package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"backtestvault/internal/api"
	"backtestvault/internal/dashboard"
	"backtestvault/internal/domain"
	"backtestvault/internal/httpapi"
	"backtestvault/internal/store"
	"backtestvault/pkg/backtestvault"
)

func runImport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	name := fs.String("name", "", "run name (required)")
	capital := fs.Float64("capital", a.cfg.Results.InitialCapital, "initial capital")
	currency := fs.String("currency", a.cfg.Results.AccountCurrency, "account currency")
	status := fs.String("status", string(domain.StatusSuccess), "completion status: success or error")
	logsPath := fs.String("logs", "", "engine log file")
	resultPath := fs.String("result", "", "result document (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *resultPath == "" {
		fs.Usage()
		return errors.New("-name and -result are required")
	}

	doc, err := os.ReadFile(*resultPath)
	if err != nil {
		return err
	}
	var logs []byte
	if *logsPath != "" {
		if logs, err = os.ReadFile(*logsPath); err != nil {
			return err
		}
	}

	bt := &domain.Backtest{
		Name:            *name,
		InitialCapital:  decimal.NewFromFloat(*capital),
		AccountCurrency: *currency,
		Status:          domain.ParseCompletionStatus(*status),
		Logs:            string(logs),
		Result:          string(doc),
	}
	if err := <-a.engine.FinalizeAsync(ctx, bt); err != nil {
		return err
	}
	fmt.Printf("archived %s to %s\n\n", bt.Name, bt.ArchivePath)
	fmt.Print(dashboard.RenderStatistics(bt.Name, bt.Statistics))
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	charts := fs.Bool("charts", false, "list chart series")
	logs := fs.Bool("logs", false, "print the engine log")
	bt, err := parseRun(ctx, a, fs, args)
	if err != nil {
		return err
	}

	v, err := a.engine.Open(ctx, bt)
	if err != nil {
		return err
	}
	fmt.Print(dashboard.RenderStatistics(bt.Name, v.Statistics))
	fmt.Println()
	fmt.Print(dashboard.RenderHoldings(v.Holdings, bt.AccountCurrency))
	fmt.Println()
	fmt.Print(dashboard.RenderSymbols(v.Symbols))
	if *charts {
		fmt.Println()
		fmt.Print(dashboard.RenderCharts(v.Charts))
	}
	if *logs {
		fmt.Printf("\n%d log lines\n%s", v.LogLines, v.Logs)
	}
	return nil
}

func runList(ctx context.Context, a *app, _ []string) error {
	runs, err := a.catalog.ListBacktests(ctx)
	if err != nil {
		return err
	}
	fmt.Print(dashboard.RenderRuns(runs))
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	bt, err := parseRun(ctx, a, flag.NewFlagSet("delete", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := a.engine.Delete(ctx, bt); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", bt.Name)
	return nil
}

func runExportSymbols(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export-symbols", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default <export_dir>/<name>-symbols.csv)")
	bt, err := parseRun(ctx, a, fs, args)
	if err != nil {
		return err
	}
	v, err := a.engine.Open(ctx, bt)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(a.cfg.Storage.ExportDir, bt.Name+"-symbols.csv")
	}
	if err := store.ExportSymbolsFile(path, v.Symbols); err != nil {
		return err
	}
	fmt.Printf("wrote %d symbols to %s\n", len(v.Symbols), path)
	return nil
}

func runExportTrades(ctx context.Context, a *app, args []string) error {
	bt, err := parseRun(ctx, a, flag.NewFlagSet("export-trades", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	v, err := a.engine.Open(ctx, bt)
	if err != nil {
		return err
	}

	ps := store.NewParquetStore(a.cfg.Storage.ExportDir)
	if err := ps.WriteTrades(ctx, bt.ID, v.Trades); err != nil {
		return err
	}
	series := 0
	if len(v.Charts) > 0 && v.Charts[0].Visible {
		for _, s := range v.Charts[0].Series {
			points := make([]domain.ChartPoint, len(s.Points))
			for i, p := range s.Points {
				points[i] = domain.ChartPoint{Time: p.Time, Y: p.Value}
			}
			if err := ps.WriteSeries(ctx, bt.ID, s.Name, points); err != nil {
				return err
			}
			series++
		}
	}
	fmt.Printf("wrote %d trades and %d series to %s\n", len(v.Trades), series, filepath.Join(ps.DataDir, bt.ID))
	return nil
}

func runServe(ctx context.Context, a *app, _ []string) error {
	if addr := a.cfg.HTTPAddr(); addr != "" {
		mux := http.NewServeMux()
		httpapi.NewServer(a.catalog, a.engine, a.events, a.log).RegisterRoutes(mux)
		mux.Handle("GET /metrics", promhttp.Handler())
		hs := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.log.Info("http server listening", "addr", addr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("http server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := hs.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("http server shutdown", "error", err)
			}
		}()
	}

	srv := api.NewServer(a.cfg, api.NewResultService(a.catalog, a.engine, a.events, a.log), a.log)
	return srv.ListenAndServe(ctx)
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.GRPCAddr(), "server gRPC address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := backtestvault.NewClient(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.WatchBacktests(ctx, func(e backtestvault.Event) error {
		fmt.Println(dashboard.RenderEvent(e.Time, e.Type, e.Name, e.Status, e.ArchivePath))
		return nil
	})
}

// parseRun parses fs and resolves its single positional argument to the most
// recent cataloged run of that name.
func parseRun(ctx context.Context, a *app, fs *flag.FlagSet, args []string) (*domain.Backtest, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("usage: backtestvault %s [options] <name>", fs.Name())
	}
	bt, err := a.catalog.GetBacktestByName(ctx, fs.Arg(0))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no run named %q", fs.Arg(0))
	}
	return bt, err
}
