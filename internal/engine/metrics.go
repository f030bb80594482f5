package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	finalizedRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtestvault_finalized_runs_total",
		Help: "Total number of backtest runs archived, by completion status",
	}, []string{"status"})

	persistLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backtestvault_persist_latency_seconds",
		Help:    "Latency of writing a run archive",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	openedRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtestvault_opened_runs_total",
		Help: "Total number of archived runs opened, by outcome",
	}, []string{"outcome"})

	closedTrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtestvault_closed_trades_total",
		Help: "Total number of closed trades read from opened runs",
	})
)

// Outcome labels for openedRuns.
const (
	outcomeLoaded  = "loaded"
	outcomeMissing = "missing"
	outcomeFailed  = "failed"
)
