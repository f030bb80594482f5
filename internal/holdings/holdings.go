// Package holdings replays an order stream into open positions using
// weighted-average cost basis.
package holdings

import (
	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
	"backtestvault/internal/util"
)

// Book accumulates holdings keyed by symbol. A Book is not safe for
// concurrent use.
type Book struct {
	order []domain.Symbol
	items map[domain.Symbol]*domain.Holding
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{items: make(map[domain.Symbol]*domain.Holding)}
}

// Apply folds one order into the book. Orders whose status does not
// represent a position change are ignored. It reports whether the order was
// applied.
func (b *Book) Apply(o domain.Order) bool {
	base := o.Base()
	if !base.Status.ChangesPosition() {
		return false
	}

	h, ok := b.items[base.Symbol]
	if !ok {
		if base.Quantity.IsZero() {
			return false
		}
		b.items[base.Symbol] = &domain.Holding{
			Symbol:     base.Symbol,
			Quantity:   base.Quantity,
			EntryPrice: base.Price,
			EntryValue: base.Price.Mul(base.Quantity),
		}
		b.order = append(b.order, base.Symbol)
		return true
	}

	quantity := h.Quantity.Add(base.Quantity)
	switch {
	case quantity.IsZero():
		b.remove(base.Symbol)
	case base.Quantity.IsPositive():
		value := h.EntryPrice.Mul(h.Quantity).Add(base.Price.Mul(base.Quantity))
		h.Quantity = quantity
		h.EntryPrice = util.SmartRound(value.Div(quantity))
		h.EntryValue = util.SmartRound(value)
	default:
		h.Quantity = quantity
		h.EntryValue = util.SmartRound(h.EntryPrice.Mul(quantity))
	}
	return true
}

func (b *Book) remove(sym domain.Symbol) {
	delete(b.items, sym)
	for i, s := range b.order {
		if s == sym {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}

// Holdings returns a copy of the open holdings in the order they were
// opened.
func (b *Book) Holdings() []domain.Holding {
	out := make([]domain.Holding, 0, len(b.order))
	for _, s := range b.order {
		out = append(out, *b.items[s])
	}
	return out
}

// Len returns the number of open holdings.
func (b *Book) Len() int { return len(b.order) }

// Reconstruct replays orders by id ascending and returns the resulting
// holdings.
func Reconstruct(orders []domain.Order) []domain.Holding {
	r := &domain.Result{Orders: orders}
	b := NewBook()
	for _, o := range r.OrdersByID() {
		b.Apply(o)
	}
	return b.Holdings()
}

// TotalValue sums the entry value of the holdings.
func TotalValue(hs []domain.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range hs {
		total = total.Add(h.EntryValue)
	}
	return total
}
