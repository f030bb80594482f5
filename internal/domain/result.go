package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EquityChart and EquitySeries name the chart and series that carry the
// portfolio equity curve.
const (
	EquityChart  = "Strategy Equity"
	EquitySeries = "Equity"
)

// Result is the raw result document produced by the simulation engine.
// Charts, orders and statistics keep their document order.
type Result struct {
	Charts            []*Chart
	Orders            []Order
	ProfitLoss        []ProfitPoint
	TotalPerformance  Performance
	Statistics        []StringPair
	RuntimeStatistics []StringPair
}

// ProfitPoint is one realized profit/loss delta.
type ProfitPoint struct {
	Time  time.Time
	Value decimal.Decimal
}

// StringPair is one textual statistic.
type StringPair struct {
	Key   string
	Value string
}

// Performance groups the closed trades and the summary statistic records.
type Performance struct {
	ClosedTrades        []Trade
	PortfolioStatistics PortfolioStatistics
	TradeStatistics     TradeStatistics
}

// FindChart returns the chart with the given name, compared
// case-insensitively, or nil.
func (r *Result) FindChart(name string) *Chart {
	for _, c := range r.Charts {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Equity returns the equity series of the strategy equity chart, or nil.
func (r *Result) Equity() *Series {
	c := r.FindChart(EquityChart)
	if c == nil {
		return nil
	}
	return c.FindSeries(EquitySeries)
}

// OrdersByID returns the orders sorted by id ascending. The receiver is not
// modified.
func (r *Result) OrdersByID() []Order {
	out := make([]Order, len(r.Orders))
	copy(out, r.Orders)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().ID < out[j].Base().ID
	})
	return out
}

// DecodeResult parses a result document. A document consisting of the JSON
// literal null yields a nil Result and no error.
func DecodeResult(data []byte) (*Result, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	r := &Result{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UnmarshalJSON decodes the result document, resolving order variants and
// preserving the document order of every keyed collection.
func (r *Result) UnmarshalJSON(data []byte) error {
	var aux struct {
		Charts            json.RawMessage `json:"Charts"`
		Orders            json.RawMessage `json:"Orders"`
		ProfitLoss        json.RawMessage `json:"ProfitLoss"`
		TotalPerformance  *Performance    `json:"TotalPerformance"`
		Statistics        json.RawMessage `json:"Statistics"`
		RuntimeStatistics json.RawMessage `json:"RuntimeStatistics"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Result{}
	if aux.TotalPerformance != nil {
		r.TotalPerformance = *aux.TotalPerformance
	}

	err := decodeOrderedObject(aux.Charts, func(key string, raw json.RawMessage) error {
		c := &Chart{}
		if err := json.Unmarshal(raw, c); err != nil {
			return fmt.Errorf("chart %q: %w", key, err)
		}
		if c.Name == "" {
			c.Name = key
		}
		r.Charts = append(r.Charts, c)
		return nil
	})
	if err != nil {
		return err
	}

	err = decodeOrderedObject(aux.Orders, func(key string, raw json.RawMessage) error {
		o, err := DecodeOrder(raw)
		if err != nil {
			return fmt.Errorf("order %s: %w", key, err)
		}
		if o.Base().ID == 0 {
			if id, err := strconv.Atoi(key); err == nil {
				o.Base().ID = id
			}
		}
		r.Orders = append(r.Orders, o)
		return nil
	})
	if err != nil {
		return err
	}

	err = decodeOrderedObject(aux.ProfitLoss, func(key string, raw json.RawMessage) error {
		t, err := ParseTime(key)
		if err != nil {
			return fmt.Errorf("profit/loss: %w", err)
		}
		var v decimal.Decimal
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("profit/loss at %s: %w", key, err)
		}
		r.ProfitLoss = append(r.ProfitLoss, ProfitPoint{Time: t, Value: v})
		return nil
	})
	if err != nil {
		return err
	}
	sort.SliceStable(r.ProfitLoss, func(i, j int) bool {
		return r.ProfitLoss[i].Time.Before(r.ProfitLoss[j].Time)
	})

	if r.Statistics, err = decodeStringPairs(aux.Statistics); err != nil {
		return fmt.Errorf("statistics: %w", err)
	}
	if r.RuntimeStatistics, err = decodeStringPairs(aux.RuntimeStatistics); err != nil {
		return fmt.Errorf("runtime statistics: %w", err)
	}
	return nil
}

func decodeStringPairs(data json.RawMessage) ([]StringPair, error) {
	var pairs []StringPair
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v Text
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		pairs = append(pairs, StringPair{Key: key, Value: string(v)})
		return nil
	})
	return pairs, err
}

// decodeOrderedObject walks the members of a JSON object in document order.
// Absent or null input is treated as an empty object.
func decodeOrderedObject(data json.RawMessage, fn func(key string, raw json.RawMessage) error) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// Text holds any JSON scalar as its textual form: strings unquoted, numbers
// and booleans verbatim, null as "".
type Text string

// UnmarshalJSON stores the scalar's text.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("expected scalar, got %s", data)
	default:
		*t = Text(data)
	}
	return nil
}
