// Package domain defines the core types of the backtest result pipeline: the
// engine's raw result document, trades, orders, chart series, reconstructed
// holdings and the run handle that ties them to a persisted archive.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Holding is an open position reconstructed from the order stream. A
// holding never has zero quantity.
type Holding struct {
	Symbol     Symbol
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	EntryValue decimal.Decimal
}

// CompletionStatus is the outcome of a backtest run.
type CompletionStatus string

const (
	StatusNone    CompletionStatus = "none"
	StatusRunning CompletionStatus = "running"
	StatusSuccess CompletionStatus = "success"
	StatusError   CompletionStatus = "error"
)

// ParseCompletionStatus maps a status name to a CompletionStatus. Unknown
// names map to StatusNone.
func ParseCompletionStatus(s string) CompletionStatus {
	switch CompletionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusRunning:
		return StatusRunning
	case StatusSuccess:
		return StatusSuccess
	case StatusError:
		return StatusError
	}
	return StatusNone
}

// Finished reports whether the run produced output worth archiving.
func (s CompletionStatus) Finished() bool {
	return s == StatusSuccess || s == StatusError
}

// Backtest is the run handle exchanged with the simulation engine. Logs and
// Result hold the engine output until it is archived; afterwards
// ArchivePath, relative to the program-data root, is the source of truth.
type Backtest struct {
	ID              string
	Name            string
	InitialCapital  decimal.Decimal
	AccountCurrency string
	Status          CompletionStatus
	Logs            string
	Result          string
	ArchivePath     string
	Statistics      *Statistics
	CreatedAt       time.Time
}
