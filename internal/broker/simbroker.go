package broker

import (
	"sync"

	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/kernel"
)

// SimBroker is a reference Brokerage that fills every accepted order
// instantly, at the order's primary price, with a fixed commission. It
// exists so the engine and simulation packages have a concrete, fully
// synchronous Brokerage to exercise in tests — a real brokerage would
// model latency, partial fills, and rejection logic of its own.
type SimBroker struct {
	mu         sync.Mutex
	commission kernel.Decimal
	callback   FillCallback
	rejectNext map[string]bool // asset -> reject the next order for this asset
}

// NewSimBroker builds a SimBroker charging a flat commission per fill.
func NewSimBroker(commission kernel.Decimal) *SimBroker {
	return &SimBroker{
		commission: commission,
		rejectNext: make(map[string]bool),
	}
}

// RegisterFillCallback installs the callback invoked synchronously from
// Submit — SimBroker never defers fills to a later bar.
func (b *SimBroker) RegisterFillCallback(cb FillCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callback = cb
}

// RejectNextOrderFor makes the next Submit call for the given asset return
// false without emitting a fill, so callers can exercise the soft-failure
// path (§4.D.3a: "Submission returning false is a soft failure").
func (b *SimBroker) RejectNextOrderFor(asset string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectNext[asset] = true
}

// Submit fills the order immediately at its primary price.
func (b *SimBroker) Submit(order event.OrderEvent) bool {
	b.mu.Lock()
	if b.rejectNext[order.Asset] {
		delete(b.rejectNext, order.Asset)
		b.mu.Unlock()
		return false
	}
	cb := b.callback
	commission := b.commission
	b.mu.Unlock()

	if cb == nil {
		return false
	}

	quantity := order.Quantity
	if order.Action == event.Sell {
		quantity = -quantity
	}

	cb(event.FillEvent{
		Date:         order.Date,
		StrategyName: order.StrategyName,
		Asset:        order.Asset,
		FillPrice:    order.PrimaryPrice,
		Quantity:     quantity,
		Commission:   commission,
	})
	return true
}
