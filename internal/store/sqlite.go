package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
	"backtestvault/internal/util"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ BacktestStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS backtests (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	status          TEXT NOT NULL,
	initial_capital TEXT NOT NULL,
	currency        TEXT NOT NULL DEFAULT '',
	archive_path    TEXT NOT NULL DEFAULT '',
	statistics      TEXT NOT NULL DEFAULT '{}',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtests_name ON backtests(name);
`

const backtestColumns = `id, name, status, initial_capital, currency, archive_path, statistics, created_at`

// SQLiteStore implements BacktestStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	// Another process may hold the write lock while migrating.
	err = util.Retry(ctx, 5, 50*time.Millisecond, func() error {
		return s.migrate(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// BacktestStore implementation
// ---------------------------------------------------------------------------

// SaveBacktest inserts or replaces the catalog entry of a run.
func (s *SQLiteStore) SaveBacktest(ctx context.Context, bt *domain.Backtest) error {
	if bt.ID == "" {
		bt.ID = uuid.NewString()
	}
	if bt.CreatedAt.IsZero() {
		bt.CreatedAt = time.Now().UTC()
	}

	stats := []byte("{}")
	if bt.Statistics != nil {
		var err error
		if stats, err = json.Marshal(bt.Statistics); err != nil {
			return fmt.Errorf("encoding statistics of %s: %w", bt.ID, err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO backtests (`+backtestColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	status = excluded.status,
	initial_capital = excluded.initial_capital,
	currency = excluded.currency,
	archive_path = excluded.archive_path,
	statistics = excluded.statistics`,
		bt.ID, bt.Name, string(bt.Status), bt.InitialCapital.String(),
		bt.AccountCurrency, bt.ArchivePath, string(stats), bt.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving backtest %s: %w", bt.ID, err)
	}
	return nil
}

// GetBacktest retrieves a run by its ID.
func (s *SQLiteStore) GetBacktest(ctx context.Context, id string) (*domain.Backtest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+backtestColumns+` FROM backtests WHERE id = ?`, id)
	return scanBacktest(row)
}

// GetBacktestByName retrieves the most recent run with the given name.
func (s *SQLiteStore) GetBacktestByName(ctx context.Context, name string) (*domain.Backtest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+backtestColumns+` FROM backtests WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, name)
	return scanBacktest(row)
}

// ListBacktests returns all runs, oldest first.
func (s *SQLiteStore) ListBacktests(ctx context.Context) ([]domain.Backtest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+backtestColumns+` FROM backtests ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing backtests: %w", err)
	}
	defer rows.Close()

	var out []domain.Backtest
	for rows.Next() {
		bt, err := scanBacktest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *bt)
	}
	return out, rows.Err()
}

// DeleteBacktest removes a run from the catalog. Deleting an unknown run
// returns ErrNotFound.
func (s *SQLiteStore) DeleteBacktest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM backtests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting backtest %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("backtest %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBacktest(row scanner) (*domain.Backtest, error) {
	var (
		bt        domain.Backtest
		status    string
		capital   string
		stats     string
		createdAt int64
	)
	err := row.Scan(&bt.ID, &bt.Name, &status, &capital,
		&bt.AccountCurrency, &bt.ArchivePath, &stats, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning backtest: %w", err)
	}

	bt.Status = domain.ParseCompletionStatus(status)
	bt.CreatedAt = time.UnixMilli(createdAt).UTC()
	if bt.InitialCapital, err = decimal.NewFromString(capital); err != nil {
		return nil, fmt.Errorf("backtest %s initial capital: %w", bt.ID, err)
	}
	if s := strings.TrimSpace(stats); s != "" && s != "null" {
		bt.Statistics = domain.NewStatistics()
		if err := json.Unmarshal([]byte(s), bt.Statistics); err != nil {
			return nil, fmt.Errorf("backtest %s statistics: %w", bt.ID, err)
		}
	}
	return &bt, nil
}
