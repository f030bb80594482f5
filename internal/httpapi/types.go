// Package httpapi provides an HTTP REST API over the run catalog, serving
// the same data as the CLI in JSON format.
package httpapi

import (
	"time"

	"backtestvault/internal/analytics"
	"backtestvault/internal/chart"
	"backtestvault/internal/domain"
	"backtestvault/internal/live"
)

// RunJSON is the JSON representation of a cataloged run.
type RunJSON struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	InitialCapital  float64   `json:"initialCapital"`
	AccountCurrency string    `json:"accountCurrency,omitempty"`
	ArchivePath     string    `json:"archivePath,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// HoldingJSON is an open position.
type HoldingJSON struct {
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entryPrice"`
	EntryValue float64 `json:"entryValue"`
}

// SymbolJSON is the trade summary of one symbol.
type SymbolJSON struct {
	Symbol       string  `json:"symbol"`
	Trades       int     `json:"trades"`
	NetProfit    float64 `json:"netProfit"`
	WinRate      float64 `json:"winRate"`
	Score        float64 `json:"score"`
	Sharpe       float64 `json:"sharpe"`
	RoMaD        float64 `json:"romad"`
	MaxDrawdown  float64 `json:"maxDrawdown"`
	DrawdownDays float64 `json:"drawdownDays"`
}

// DetailJSON is everything shown for a single run.
type DetailJSON struct {
	Run        RunJSON            `json:"run"`
	Statistics *domain.Statistics `json:"statistics"`
	Holdings   []HoldingJSON      `json:"holdings"`
	Symbols    []SymbolJSON       `json:"symbols"`
	Trades     int                `json:"trades"`
	LogLines   int                `json:"logLines"`
}

// PointJSON is one chart sample; T is Unix milliseconds.
type PointJSON struct {
	T int64   `json:"t"`
	V float64 `json:"v"`
}

// SeriesJSON is one chart series.
type SeriesJSON struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Points []PointJSON `json:"points"`
}

// ChartJSON is one chart in display order.
type ChartJSON struct {
	Name    string       `json:"name"`
	Visible bool         `json:"visible,omitempty"`
	Series  []SeriesJSON `json:"series"`
}

func runToJSON(bt *domain.Backtest) RunJSON {
	return RunJSON{
		ID:              bt.ID,
		Name:            bt.Name,
		Status:          string(bt.Status),
		InitialCapital:  bt.InitialCapital.InexactFloat64(),
		AccountCurrency: bt.AccountCurrency,
		ArchivePath:     bt.ArchivePath,
		CreatedAt:       bt.CreatedAt,
	}
}

func holdingsToJSON(hs []domain.Holding) []HoldingJSON {
	out := make([]HoldingJSON, len(hs))
	for i, h := range hs {
		out[i] = HoldingJSON{
			Symbol:     h.Symbol.String(),
			Quantity:   h.Quantity.InexactFloat64(),
			EntryPrice: h.EntryPrice.InexactFloat64(),
			EntryValue: h.EntryValue.InexactFloat64(),
		}
	}
	return out
}

func symbolsToJSON(summaries []analytics.SymbolSummary) []SymbolJSON {
	out := make([]SymbolJSON, len(summaries))
	for i, s := range summaries {
		out[i] = SymbolJSON{
			Symbol:       s.Symbol.String(),
			Trades:       s.Trades,
			NetProfit:    s.NetProfit.InexactFloat64(),
			WinRate:      s.WinRate,
			Score:        s.Score,
			Sharpe:       s.Sharpe,
			RoMaD:        s.RoMaD,
			MaxDrawdown:  s.MaxDrawdown.InexactFloat64(),
			DrawdownDays: s.DrawdownPeriod.Hours() / 24,
		}
	}
	return out
}

func chartsToJSON(views []*chart.View) []ChartJSON {
	out := make([]ChartJSON, len(views))
	for i, v := range views {
		c := ChartJSON{Name: v.Name, Visible: v.Visible, Series: make([]SeriesJSON, len(v.Series))}
		for j, s := range v.Series {
			points := make([]PointJSON, len(s.Points))
			for k, p := range s.Points {
				points[k] = PointJSON{T: p.Time.UnixMilli(), V: p.Value.InexactFloat64()}
			}
			c.Series[j] = SeriesJSON{Name: s.Name, Type: s.Type.String(), Points: points}
		}
		out[i] = c
	}
	return out
}

// EventJSON is the payload of one server-sent catalog event.
type EventJSON struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	ArchivePath string `json:"archivePath,omitempty"`
	Time        int64  `json:"time"`
}

func eventToJSON(e live.Event) EventJSON {
	return EventJSON{
		Type:        string(e.Type),
		ID:          e.ID,
		Name:        e.Name,
		Status:      string(e.Status),
		ArchivePath: e.ArchivePath,
		Time:        e.Time.UnixMilli(),
	}
}
