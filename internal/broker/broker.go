// Package broker defines the abstract Brokerage contract the portfolio
// engine submits orders to, and a reference in-memory implementation used
// by the simulation's own tests. Real brokerage implementations (paper
// trading gateways, live exchange connectivity) live outside the core.
package broker

import "github.com/epeers/backtester/internal/event"

// FillCallback is invoked by a Brokerage once an order is filled. The
// callback runs on the portfolio's dispatch context (§5: "Fill callbacks
// must serialize onto the same kernel context as dispatch"), so
// implementations must not invoke it from a separate goroutine without the
// caller's knowledge.
type FillCallback func(event.FillEvent)

// Brokerage is the abstract interface the portfolio engine submits orders
// to. Submit returns false on a soft rejection (logged, not fatal, per
// §4.D.3a); fills are delivered asynchronously via the registered callback,
// which may or may not fire within the same bar.
type Brokerage interface {
	// RegisterFillCallback installs the callback used to deliver fills.
	// Called once, before the first order is submitted.
	RegisterFillCallback(cb FillCallback)

	// Submit accepts or rejects an order. A false return is a soft failure.
	Submit(order event.OrderEvent) bool
}
