// Package chart turns the charts of a backtest result into display views
// and synthesizes the realized-profit series.
package chart

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
)

// RealizedProfit names the synthesized series added to the equity chart.
const RealizedProfit = "Realized Profit"

// Point is a single sample of a view series.
type Point struct {
	Time  time.Time
	Value decimal.Decimal
}

// SeriesView is a display-ready series.
type SeriesView struct {
	Name   string
	Type   domain.SeriesType
	Points []Point
}

// View is a display-ready chart.
type View struct {
	Name    string
	Visible bool
	Series  []SeriesView
}

// FindSeries returns the series with the given name, or nil.
func (v *View) FindSeries(name string) *SeriesView {
	for i := range v.Series {
		if strings.EqualFold(v.Series[i].Name, name) {
			return &v.Series[i]
		}
	}
	return nil
}

// Builder converts result charts into views. Timestamps are converted to
// the builder's location.
type Builder struct {
	log *slog.Logger
	loc *time.Location
}

// NewBuilder returns a builder logging to log and converting timestamps to
// loc. A nil loc means time.Local.
func NewBuilder(log *slog.Logger, loc *time.Location) *Builder {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Builder{log: log, loc: loc}
}

// Build returns one view per chart in definition order. A chart that cannot
// be converted is logged and skipped. The strategy equity chart is marked
// visible, receives the realized-profit series and is moved to the front.
func (b *Builder) Build(strategy string, result *domain.Result, initialCapital decimal.Decimal) []*View {
	if result == nil {
		return nil
	}

	views := make([]*View, 0, len(result.Charts))
	equity := -1
	for _, c := range result.Charts {
		v, err := b.convert(c)
		if err != nil {
			b.log.Error("chart conversion failed",
				"strategy", strategy,
				"chart", c.Name,
				"error", err,
			)
			continue
		}
		if equity < 0 && strings.EqualFold(c.Name, domain.EquityChart) {
			equity = len(views)
		}
		views = append(views, v)
	}

	if equity >= 0 {
		v := views[equity]
		v.Visible = true
		v.Series = append(v.Series, b.Profit(result.ProfitLoss, initialCapital))
		copy(views[1:equity+1], views[:equity])
		views[0] = v
	}
	return views
}

// Profit accumulates initialCapital plus each realized profit/loss delta
// into a line series.
func (b *Builder) Profit(deltas []domain.ProfitPoint, initialCapital decimal.Decimal) SeriesView {
	s := SeriesView{
		Name:   RealizedProfit,
		Type:   domain.SeriesTypeLine,
		Points: make([]Point, 0, len(deltas)),
	}
	profit := initialCapital
	for _, d := range deltas {
		profit = profit.Add(d.Value)
		s.Points = append(s.Points, Point{Time: d.Time.In(b.loc), Value: profit})
	}
	return s
}

func (b *Builder) convert(c *domain.Chart) (*View, error) {
	v := &View{Name: c.Name, Series: make([]SeriesView, 0, len(c.Series))}
	for _, s := range c.Series {
		sv := SeriesView{Name: s.Name, Type: s.Type, Points: make([]Point, 0, len(s.Values))}
		for i, p := range s.Values {
			if i > 0 && p.Time.Before(s.Values[i-1].Time) {
				return nil, fmt.Errorf("series %q: point %d at %s precedes %s",
					s.Name, i, p.Time.Format(time.RFC3339), s.Values[i-1].Time.Format(time.RFC3339))
			}
			sv.Points = append(sv.Points, Point{Time: p.Time.In(b.loc), Value: p.Y})
		}
		v.Series = append(v.Series, sv)
	}
	return v, nil
}
