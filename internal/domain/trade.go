package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol identifies a traded security by its ticker value.
type Symbol string

// UnmarshalJSON accepts either a bare string or an object carrying the ticker
// in its "Value" field.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Symbol(v)
		return nil
	}
	var obj struct {
		Value string `json:"Value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding symbol: %w", err)
	}
	*s = Symbol(obj.Value)
	return nil
}

// String returns the ticker value.
func (s Symbol) String() string { return string(s) }

// TradeDirection is the side of a closed trade.
type TradeDirection int

const (
	TradeDirectionLong TradeDirection = iota
	TradeDirectionShort
)

var tradeDirectionNames = map[int]string{
	int(TradeDirectionLong):  "Long",
	int(TradeDirectionShort): "Short",
}

func (d TradeDirection) String() string { return enumName(tradeDirectionNames, int(d)) }

// UnmarshalJSON accepts the numeric or named form.
func (d *TradeDirection) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, tradeDirectionNames, "trade direction")
	if err != nil {
		return err
	}
	*d = TradeDirection(v)
	return nil
}

// Trade is a closed round-trip trade as reported by the simulation engine.
// Trades are read-only inputs to every analytic.
type Trade struct {
	Symbol     Symbol
	EntryTime  time.Time
	EntryPrice decimal.Decimal
	Direction  TradeDirection
	Quantity   decimal.Decimal
	ExitTime   time.Time
	ExitPrice  decimal.Decimal
	ProfitLoss decimal.Decimal
	TotalFees  decimal.Decimal
	MAE        decimal.Decimal
	MFE        decimal.Decimal
}

// NetProfit returns the trade's profit after fees.
func (t *Trade) NetProfit() decimal.Decimal {
	return t.ProfitLoss.Sub(t.TotalFees)
}

// UnmarshalJSON decodes a trade record. Newer engines report a "Symbols" list
// instead of a single "Symbol"; the first entry is used.
func (t *Trade) UnmarshalJSON(data []byte) error {
	type plain Trade
	aux := struct {
		*plain
		Symbols   []Symbol `json:"Symbols"`
		EntryTime string   `json:"EntryTime"`
		ExitTime  string   `json:"ExitTime"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.Symbol == "" && len(aux.Symbols) > 0 {
		t.Symbol = aux.Symbols[0]
	}
	var err error
	if t.EntryTime, err = parseOptionalTime(aux.EntryTime); err != nil {
		return fmt.Errorf("trade entry time: %w", err)
	}
	if t.ExitTime, err = parseOptionalTime(aux.ExitTime); err != nil {
		return fmt.Errorf("trade exit time: %w", err)
	}
	return nil
}
