// Package event defines the event shapes the simulation kernel dispatches
// besides the MarketEvent (which is market.Event): SignalEvent, OrderEvent,
// FillEvent, SplitEvent, DividendEvent. Each carries its own validation;
// the engine package handles each shape through its own method, so no other
// shape can reach the dispatcher.
package event

import (
	"time"

	"github.com/epeers/backtester/internal/kernel"
)

// SignalType is the closed set of signal kinds a strategy can emit.
type SignalType string

const (
	Underweight SignalType = "Underweight"
	Overweight  SignalType = "Overweight"
	Rebalance   SignalType = "Rebalance"
	NoOp        SignalType = "NoOp"
)

// TradeAction is the direction of an order.
type TradeAction string

const (
	Buy  TradeAction = "Buy"
	Sell TradeAction = "Sell"
)

// OrderType is the closed set of order shapes the portfolio can submit.
type OrderType string

const (
	MarketOrder    OrderType = "Market"
	LimitOrder     OrderType = "Limit"
	StopOrder      OrderType = "Stop"
	StopLimitOrder OrderType = "StopLimit"
)

// RebalancingFrequency drives RebalancingBuyAndHold's schedule.
type RebalancingFrequency string

const (
	Daily     RebalancingFrequency = "Daily"
	Weekly    RebalancingFrequency = "Weekly"
	Monthly   RebalancingFrequency = "Monthly"
	Quarterly RebalancingFrequency = "Quarterly"
	Annually  RebalancingFrequency = "Annually"
)

// NextRebalanceDate computes the next scheduled rebalance date after last,
// per the named frequency.
func NextRebalanceDate(last time.Time, freq RebalancingFrequency) (time.Time, error) {
	switch freq {
	case Daily:
		return last.AddDate(0, 0, 1), nil
	case Weekly:
		return last.AddDate(0, 0, 7), nil
	case Monthly:
		return last.AddDate(0, 1, 0), nil
	case Quarterly:
		return last.AddDate(0, 3, 0), nil
	case Annually:
		return last.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, kernel.NewError(kernel.UndefinedEnum, "unknown rebalancing frequency: "+string(freq))
	}
}

// SignalEvent is emitted by a strategy once per bar; signals may be empty.
type SignalEvent struct {
	Date         time.Time
	StrategyName string
	Signals      map[string]SignalType
}

// Validate enforces that the event carries a known strategy name. The
// dispatcher is responsible for checking the name against its registry;
// this only enforces the event's own structural invariant (non-empty name).
func (e SignalEvent) Validate() error {
	if e.StrategyName == "" {
		return kernel.NewError(kernel.UnknownStrategy, "signal event carries an empty strategy name")
	}
	return nil
}

// OrderEvent is produced by the portfolio engine from a signal + sizer +
// price calculator, and submitted to the brokerage.
type OrderEvent struct {
	Date           time.Time
	StrategyName   string
	Asset          string
	Action         TradeAction
	Type           OrderType
	Quantity       int64 // always positive; Action carries direction
	PrimaryPrice   kernel.Decimal
	SecondaryPrice kernel.Decimal
}

// Validate enforces quantity > 0 and a non-negative primary/secondary price.
func (e OrderEvent) Validate() error {
	if e.Quantity <= 0 {
		return kernel.NewError(kernel.InvalidQuantity, "order quantity must be positive")
	}
	if e.PrimaryPrice.IsNegative() || e.SecondaryPrice.IsNegative() {
		return kernel.NewError(kernel.InvalidQuantity, "order prices must be non-negative")
	}
	switch e.Action {
	case Buy, Sell:
	default:
		return kernel.NewError(kernel.UndefinedEnum, "unknown trade action: "+string(e.Action))
	}
	return nil
}

// FillEvent is emitted by the brokerage in response to an OrderEvent.
// Quantity is signed and must agree with the action that produced the fill.
type FillEvent struct {
	Date         time.Time
	StrategyName string
	Asset        string
	FillPrice    kernel.Decimal
	Quantity     int64 // signed: positive for buys, negative for sells
	Commission   kernel.Decimal
}

// Validate enforces fillPrice > 0, commission >= 0, and a non-zero quantity.
func (e FillEvent) Validate() error {
	if !e.FillPrice.IsPositive() {
		return kernel.NewError(kernel.InvalidQuantity, "fill price must be positive")
	}
	if e.Commission.IsNegative() {
		return kernel.NewError(kernel.InvalidQuantity, "commission must be non-negative")
	}
	if e.Quantity == 0 {
		return kernel.NewError(kernel.InvalidQuantity, "fill quantity must be non-zero")
	}
	return nil
}

// SplitEvent is derived by the portfolio from a MarketData bar whose
// splitCoefficient is not 1.
type SplitEvent struct {
	Date  time.Time
	Asset string
	Ratio kernel.Decimal
}

// Validate enforces ratio > 0 and ratio != 1.
func (e SplitEvent) Validate() error {
	if !e.Ratio.IsPositive() {
		return kernel.NewError(kernel.InvalidQuantity, "split ratio must be positive")
	}
	if e.Ratio.Equal(kernel.One) {
		return kernel.NewError(kernel.InvalidQuantity, "split ratio of 1 is not a split")
	}
	return nil
}

// DividendEvent is derived by the portfolio from a MarketData bar whose
// dividendPerShare is greater than zero.
type DividendEvent struct {
	Date     time.Time
	Asset    string
	PerShare kernel.Decimal
}

// Validate enforces perShare > 0.
func (e DividendEvent) Validate() error {
	if !e.PerShare.IsPositive() {
		return kernel.NewError(kernel.InvalidQuantity, "dividend per share must be positive")
	}
	return nil
}
