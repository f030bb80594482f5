package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SeriesType is the rendering style of a chart series.
type SeriesType int

const (
	SeriesTypeLine SeriesType = iota
	SeriesTypeScatter
	SeriesTypeCandle
	SeriesTypeBar
	SeriesTypeFlag
	SeriesTypeStackedArea
	SeriesTypePie
	SeriesTypeTreemap
)

var seriesTypeNames = map[int]string{
	int(SeriesTypeLine):        "Line",
	int(SeriesTypeScatter):     "Scatter",
	int(SeriesTypeCandle):      "Candle",
	int(SeriesTypeBar):         "Bar",
	int(SeriesTypeFlag):        "Flag",
	int(SeriesTypeStackedArea): "StackedArea",
	int(SeriesTypePie):         "Pie",
	int(SeriesTypeTreemap):     "Treemap",
}

func (t SeriesType) String() string { return enumName(seriesTypeNames, int(t)) }

// UnmarshalJSON accepts the numeric or named form.
func (t *SeriesType) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, seriesTypeNames, "series type")
	if err != nil {
		return err
	}
	*t = SeriesType(v)
	return nil
}

// ChartPoint is a single (time, value) sample.
type ChartPoint struct {
	Time time.Time
	Y    decimal.Decimal
}

// UnmarshalJSON accepts {"x": unixSeconds, "y": value} or [x, y, ...]; for
// candle arrays the last element is the close.
func (p *ChartPoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) < 2 {
			return fmt.Errorf("chart point needs at least 2 values, got %d", len(arr))
		}
		var x int64
		if err := json.Unmarshal(arr[0], &x); err != nil {
			return fmt.Errorf("chart point time: %w", err)
		}
		var y decimal.Decimal
		if err := y.UnmarshalJSON(arr[len(arr)-1]); err != nil {
			return fmt.Errorf("chart point value: %w", err)
		}
		p.Time = time.Unix(x, 0).UTC()
		p.Y = y
		return nil
	}
	var obj struct {
		X int64           `json:"x"`
		Y decimal.Decimal `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Time = time.Unix(obj.X, 0).UTC()
	p.Y = obj.Y
	return nil
}

// Series is a named, ordered list of chart points.
type Series struct {
	Name   string
	Type   SeriesType
	Values []ChartPoint
}

// Chart is a named collection of series in document order.
type Chart struct {
	Name   string
	Series []*Series
}

// FindSeries returns the series with the given name, compared
// case-insensitively, or nil.
func (c *Chart) FindSeries(name string) *Series {
	for _, s := range c.Series {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}

// UnmarshalJSON decodes a chart, keeping its series in document order.
func (c *Chart) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name   string          `json:"Name"`
		Series json.RawMessage `json:"Series"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Name = aux.Name
	c.Series = nil
	return decodeOrderedObject(aux.Series, func(key string, raw json.RawMessage) error {
		s := &Series{}
		if err := json.Unmarshal(raw, s); err != nil {
			return fmt.Errorf("series %q: %w", key, err)
		}
		if s.Name == "" {
			s.Name = key
		}
		c.Series = append(c.Series, s)
		return nil
	})
}

// UnmarshalJSON decodes a series record.
func (s *Series) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name       string       `json:"Name"`
		SeriesType SeriesType   `json:"SeriesType"`
		Values     []ChartPoint `json:"Values"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Name = aux.Name
	s.Type = aux.SeriesType
	s.Values = aux.Values
	return nil
}
