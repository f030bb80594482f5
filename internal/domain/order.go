package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus int

// Numeric values match the engine's wire encoding.
const (
	OrderStatusNew             OrderStatus = 0
	OrderStatusSubmitted       OrderStatus = 1
	OrderStatusPartiallyFilled OrderStatus = 2
	OrderStatusFilled          OrderStatus = 3
	OrderStatusCanceled        OrderStatus = 5
	OrderStatusNone            OrderStatus = 6
	OrderStatusInvalid         OrderStatus = 7
	OrderStatusCancelPending   OrderStatus = 8
	OrderStatusUpdateSubmitted OrderStatus = 9
)

var orderStatusNames = map[int]string{
	int(OrderStatusNew):             "New",
	int(OrderStatusSubmitted):       "Submitted",
	int(OrderStatusPartiallyFilled): "PartiallyFilled",
	int(OrderStatusFilled):          "Filled",
	int(OrderStatusCanceled):        "Canceled",
	int(OrderStatusNone):            "None",
	int(OrderStatusInvalid):         "Invalid",
	int(OrderStatusCancelPending):   "CancelPending",
	int(OrderStatusUpdateSubmitted): "UpdateSubmitted",
}

func (s OrderStatus) String() string { return enumName(orderStatusNames, int(s)) }

// UnmarshalJSON accepts the numeric or named form.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, orderStatusNames, "order status")
	if err != nil {
		return err
	}
	*s = OrderStatus(v)
	return nil
}

// ChangesPosition reports whether an order in this state represents an
// actual change of position.
func (s OrderStatus) ChangesPosition() bool {
	switch s {
	case OrderStatusSubmitted, OrderStatusCanceled, OrderStatusCancelPending,
		OrderStatusNone, OrderStatusNew, OrderStatusInvalid:
		return false
	}
	return true
}

// OrderType is the discriminant of the Order variants.
type OrderType int

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
	OrderTypeMarketOnOpen
	OrderTypeMarketOnClose
	OrderTypeOptionExercise
	OrderTypeLimitIfTouched
	OrderTypeComboMarket
	OrderTypeComboLimit
	OrderTypeComboLegLimit
	OrderTypeTrailingStop
)

var orderTypeNames = map[int]string{
	int(OrderTypeMarket):         "Market",
	int(OrderTypeLimit):          "Limit",
	int(OrderTypeStopMarket):     "StopMarket",
	int(OrderTypeStopLimit):      "StopLimit",
	int(OrderTypeMarketOnOpen):   "MarketOnOpen",
	int(OrderTypeMarketOnClose):  "MarketOnClose",
	int(OrderTypeOptionExercise): "OptionExercise",
	int(OrderTypeLimitIfTouched): "LimitIfTouched",
	int(OrderTypeComboMarket):    "ComboMarket",
	int(OrderTypeComboLimit):     "ComboLimit",
	int(OrderTypeComboLegLimit):  "ComboLegLimit",
	int(OrderTypeTrailingStop):   "TrailingStop",
}

func (t OrderType) String() string { return enumName(orderTypeNames, int(t)) }

// OrderBase holds the fields shared by every order variant.
type OrderBase struct {
	ID       int
	Symbol   Symbol
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Status   OrderStatus
	Time     time.Time
	Tag      string
}

// Base returns the shared order fields.
func (b *OrderBase) Base() *OrderBase { return b }

func (*OrderBase) isOrder() {}

// Order is the closed set of order variants. Each variant embeds OrderBase
// and adds the prices specific to its type.
type Order interface {
	Base() *OrderBase
	Type() OrderType
	isOrder()
}

type MarketOrder struct{ OrderBase }

type LimitOrder struct {
	OrderBase
	LimitPrice decimal.Decimal
}

type StopMarketOrder struct {
	OrderBase
	StopPrice decimal.Decimal
}

type StopLimitOrder struct {
	OrderBase
	StopPrice  decimal.Decimal
	LimitPrice decimal.Decimal
}

type MarketOnOpenOrder struct{ OrderBase }

type MarketOnCloseOrder struct{ OrderBase }

type OptionExerciseOrder struct{ OrderBase }

type LimitIfTouchedOrder struct {
	OrderBase
	TriggerPrice decimal.Decimal
	LimitPrice   decimal.Decimal
}

type ComboMarketOrder struct{ OrderBase }

type ComboLimitOrder struct {
	OrderBase
	GroupLimitPrice decimal.Decimal
}

type ComboLegLimitOrder struct {
	OrderBase
	LimitPrice decimal.Decimal
}

type TrailingStopOrder struct {
	OrderBase
	StopPrice         decimal.Decimal
	TrailingAmount    decimal.Decimal
	TrailingAsPercent bool
}

func (*MarketOrder) Type() OrderType         { return OrderTypeMarket }
func (*LimitOrder) Type() OrderType          { return OrderTypeLimit }
func (*StopMarketOrder) Type() OrderType     { return OrderTypeStopMarket }
func (*StopLimitOrder) Type() OrderType      { return OrderTypeStopLimit }
func (*MarketOnOpenOrder) Type() OrderType   { return OrderTypeMarketOnOpen }
func (*MarketOnCloseOrder) Type() OrderType  { return OrderTypeMarketOnClose }
func (*OptionExerciseOrder) Type() OrderType { return OrderTypeOptionExercise }
func (*LimitIfTouchedOrder) Type() OrderType { return OrderTypeLimitIfTouched }
func (*ComboMarketOrder) Type() OrderType    { return OrderTypeComboMarket }
func (*ComboLimitOrder) Type() OrderType     { return OrderTypeComboLimit }
func (*ComboLegLimitOrder) Type() OrderType  { return OrderTypeComboLegLimit }
func (*TrailingStopOrder) Type() OrderType   { return OrderTypeTrailingStop }

// orderWire is the on-the-wire shape of the shared order fields.
type orderWire struct {
	ID       int             `json:"Id"`
	Symbol   Symbol          `json:"Symbol"`
	Quantity decimal.Decimal `json:"Quantity"`
	Price    decimal.Decimal `json:"Price"`
	Status   OrderStatus     `json:"Status"`
	Time     string          `json:"Time"`
	Tag      string          `json:"Tag"`
}

// orderPrices collects every variant-specific field; each variant picks the
// ones it owns.
type orderPrices struct {
	LimitPrice        decimal.Decimal `json:"LimitPrice"`
	StopPrice         decimal.Decimal `json:"StopPrice"`
	TriggerPrice      decimal.Decimal `json:"TriggerPrice"`
	GroupOrderManager struct {
		LimitPrice decimal.Decimal `json:"LimitPrice"`
	} `json:"GroupOrderManager"`
	TrailingAmount    decimal.Decimal `json:"TrailingAmount"`
	TrailingAsPercent bool            `json:"TrailingAsPercentage"`
}

// DecodeOrder reads the "Type" discriminant first and then decodes the
// record into the matching variant.
func DecodeOrder(data []byte) (Order, error) {
	var head struct {
		Type json.RawMessage `json:"Type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding order: %w", err)
	}
	kind, err := decodeEnum(head.Type, orderTypeNames, "order type")
	if err != nil {
		return nil, err
	}

	var w orderWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding order: %w", err)
	}
	t, err := parseOptionalTime(w.Time)
	if err != nil {
		return nil, fmt.Errorf("order %d time: %w", w.ID, err)
	}
	base := OrderBase{
		ID:       w.ID,
		Symbol:   w.Symbol,
		Quantity: w.Quantity,
		Price:    w.Price,
		Status:   w.Status,
		Time:     t,
		Tag:      w.Tag,
	}

	var p orderPrices
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding order %d: %w", w.ID, err)
	}

	switch OrderType(kind) {
	case OrderTypeMarket:
		return &MarketOrder{OrderBase: base}, nil
	case OrderTypeLimit:
		return &LimitOrder{OrderBase: base, LimitPrice: p.LimitPrice}, nil
	case OrderTypeStopMarket:
		return &StopMarketOrder{OrderBase: base, StopPrice: p.StopPrice}, nil
	case OrderTypeStopLimit:
		return &StopLimitOrder{OrderBase: base, StopPrice: p.StopPrice, LimitPrice: p.LimitPrice}, nil
	case OrderTypeMarketOnOpen:
		return &MarketOnOpenOrder{OrderBase: base}, nil
	case OrderTypeMarketOnClose:
		return &MarketOnCloseOrder{OrderBase: base}, nil
	case OrderTypeOptionExercise:
		return &OptionExerciseOrder{OrderBase: base}, nil
	case OrderTypeLimitIfTouched:
		return &LimitIfTouchedOrder{OrderBase: base, TriggerPrice: p.TriggerPrice, LimitPrice: p.LimitPrice}, nil
	case OrderTypeComboMarket:
		return &ComboMarketOrder{OrderBase: base}, nil
	case OrderTypeComboLimit:
		return &ComboLimitOrder{OrderBase: base, GroupLimitPrice: p.GroupOrderManager.LimitPrice}, nil
	case OrderTypeComboLegLimit:
		return &ComboLegLimitOrder{OrderBase: base, LimitPrice: p.LimitPrice}, nil
	case OrderTypeTrailingStop:
		return &TrailingStopOrder{
			OrderBase:         base,
			StopPrice:         p.StopPrice,
			TrailingAmount:    p.TrailingAmount,
			TrailingAsPercent: p.TrailingAsPercent,
		}, nil
	}
	return nil, fmt.Errorf("unsupported order type %d", kind)
}
