package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"backtestvault/internal/archive"
	"backtestvault/internal/chart"
	"backtestvault/internal/config"
	"backtestvault/internal/engine"
	"backtestvault/internal/live"
	"backtestvault/internal/store"
	"backtestvault/internal/trace"
	"backtestvault/internal/util"
)

const version = "0.1.0"

const defaultConfigPath = "config/backtestvault.yaml"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: backtestvault <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  import          Archive a finished run and record its statistics\n")
		fmt.Fprintf(os.Stderr, "  show            Show statistics, holdings and symbols of a run\n")
		fmt.Fprintf(os.Stderr, "  list            List cataloged runs\n")
		fmt.Fprintf(os.Stderr, "  delete          Delete a run and its archive\n")
		fmt.Fprintf(os.Stderr, "  export-symbols  Write per-symbol summaries of a run to CSV\n")
		fmt.Fprintf(os.Stderr, "  export-trades   Write trades and equity of a run to Parquet\n")
		fmt.Fprintf(os.Stderr, "  serve           Serve the catalog over gRPC and HTTP\n")
		fmt.Fprintf(os.Stderr, "  watch           Follow catalog changes of a running server\n")
		fmt.Fprintf(os.Stderr, "  version         Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	// .env is optional.
	_ = godotenv.Load()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "version" {
		fmt.Printf("backtestvault %s\n", version)
		return
	}

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	err = run(ctx, a, args)
	a.close()
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

var commands = map[string]func(context.Context, *app, []string) error{
	"import":         runImport,
	"show":           runShow,
	"list":           runList,
	"delete":         runDelete,
	"export-symbols": runExportSymbols,
	"export-trades":  runExportTrades,
	"serve":          runServe,
	"watch":          runWatch,
}

// app holds the components shared by every command.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	archives   *archive.Store
	catalog    *store.SQLiteStore
	engine     *engine.Service
	events     *live.Hub
	stopTraces func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := util.NewLoggerWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	stopTraces, err := trace.Init(ctx, trace.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Output:         os.Stderr,
		Pretty:         cfg.Tracing.Pretty,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, err
	}
	catalog, err := store.NewSQLiteStore(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	archives := archive.NewStore(cfg.Storage.DataDir, logger)
	events := live.NewHub()
	eng := engine.NewService(archives, catalog, chart.NewBuilder(logger, loc), logger, engine.WithEvents(events))
	return &app{
		cfg:        cfg,
		log:        logger,
		archives:   archives,
		catalog:    catalog,
		engine:     eng,
		events:     events,
		stopTraces: stopTraces,
	}, nil
}

func (a *app) close() {
	if err := a.catalog.Close(); err != nil {
		a.log.Warn("closing catalog", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.stopTraces(ctx); err != nil {
		a.log.Warn("flushing traces", "error", err)
	}
}

// loadConfig reads BACKTESTVAULT_CONFIG, or the default path when it
// exists, or runs on defaults and environment overrides alone.
func loadConfig() (*config.Config, error) {
	if p := os.Getenv("BACKTESTVAULT_CONFIG"); p != "" {
		return config.Load(p)
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return config.Load("")
	}
	return config.Load(defaultConfigPath)
}
