// Package engine implements the portfolio dispatcher: the central state
// machine spec.md §4.D describes, case-splitting on event kind and carrying
// a fixed phase order per bar (corporate actions, allocation, signals,
// orders, fills). Brokerage fills are delivered through a FillCallback
// registered at construction and serialized onto the same call stack as the
// order that produced them, for any Brokerage (like SimBroker) that fills
// synchronously; an asynchronous brokerage's later fills are applied but no
// longer block the bar that submitted the order, per spec.md §4.D's
// asynchronous-fill state machine.
package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/epeers/backtester/internal/broker"
	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/history"
	"github.com/epeers/backtester/internal/kernel"
	"github.com/epeers/backtester/internal/market"
	"github.com/epeers/backtester/internal/reftables"
	"github.com/epeers/backtester/internal/strategy"
)

// AllocationPolicy decides, once per bar and before any sizer call, how much
// base-currency capital each registered strategy has to work with (§4.D.1c).
type AllocationPolicy interface {
	Allocate(date time.Time, strategies []*strategy.Strategy,
		hist *history.MarketHistory, fx *history.FXHistory) (map[string]kernel.Decimal, error)
}

// SelfFundedAllocation is the identity policy: each strategy is allocated
// exactly its own current total value, so sizers target shares against what
// the strategy already holds with no cross-strategy capital sharing.
type SelfFundedAllocation struct{}

func (SelfFundedAllocation) Allocate(date time.Time, strategies []*strategy.Strategy,
	hist *history.MarketHistory, fx *history.FXHistory) (map[string]kernel.Decimal, error) {
	out := make(map[string]kernel.Decimal, len(strategies))
	for _, s := range strategies {
		v, err := s.ComputeTotalValue(date, hist, fx)
		if err != nil {
			return nil, err
		}
		out[s.Name] = v
	}
	return out, nil
}

// FixedWeightAllocation pools every registered strategy's current total
// value and redistributes it by a fixed set of weights (need not sum to 1),
// letting strategies share one capital pool rebalanced toward target weights
// each bar rather than each growing or shrinking on its own.
type FixedWeightAllocation struct {
	Weights map[string]kernel.Decimal
}

func (a FixedWeightAllocation) Allocate(date time.Time, strategies []*strategy.Strategy,
	hist *history.MarketHistory, fx *history.FXHistory) (map[string]kernel.Decimal, error) {
	pool := kernel.Zero
	for _, s := range strategies {
		v, err := s.ComputeTotalValue(date, hist, fx)
		if err != nil {
			return nil, err
		}
		pool = pool.Add(v)
	}
	weightSum := kernel.Zero
	for _, s := range strategies {
		if w, ok := a.Weights[s.Name]; ok {
			weightSum = weightSum.Add(w)
		}
	}
	out := make(map[string]kernel.Decimal, len(strategies))
	for _, s := range strategies {
		w, ok := a.Weights[s.Name]
		if !ok || weightSum.IsZero() {
			out[s.Name] = kernel.Zero
			continue
		}
		out[s.Name] = pool.Mul(w).Div(weightSum)
	}
	return out, nil
}

// Portfolio is the dispatcher and accounting state for one side of a
// simulation run (the trading portfolio, or the benchmark). It owns its own
// historical market/FX maps, strategy registry, and equity curve.
type Portfolio struct {
	Name         string
	BaseCurrency string
	Tables       *reftables.Tables
	Broker       broker.Brokerage
	Allocation   AllocationPolicy

	MarketHistory *history.MarketHistory
	FXHistory     *history.FXHistory
	EquityCurve   []kernel.EquityPoint

	runID         string
	strategyOrder []string
	strategies    map[string]*strategy.Strategy
	fillErr       error
	log           *log.Entry
}

// New builds a Portfolio and registers its fill callback with brk. Every
// Portfolio gets its own uuid run tag so repeated runs (property 8 in
// spec.md §8, idempotent replay) can be told apart in logs without a global
// ambient ID generator.
func New(name, baseCurrency string, tables *reftables.Tables, brk broker.Brokerage, allocation AllocationPolicy) *Portfolio {
	p := &Portfolio{
		Name:          name,
		BaseCurrency:  baseCurrency,
		Tables:        tables,
		Broker:        brk,
		Allocation:    allocation,
		MarketHistory: history.NewMarketHistory(),
		FXHistory:     history.NewFXHistory(),
		runID:         uuid.NewString(),
		strategies:    make(map[string]*strategy.Strategy),
		log:           log.WithFields(log.Fields{"portfolio": name}),
	}
	brk.RegisterFillCallback(func(f event.FillEvent) {
		if err := p.handleFill(f); err != nil {
			p.fillErr = err
			p.log.WithFields(log.Fields{"runID": p.runID, "asset": f.Asset}).WithError(err).Error("fill rejected")
		}
	})
	return p
}

// RegisterStrategy adds a strategy to the dispatch registry, in the order
// strategies are registered — §4.D.1d dispatches "for each strategy in
// insertion order".
func (p *Portfolio) RegisterStrategy(s *strategy.Strategy) error {
	if s == nil || s.Name == "" {
		return kernel.NewError(kernel.EmptyInput, "strategy must have a name")
	}
	if _, exists := p.strategies[s.Name]; exists {
		return kernel.NewErrorWithContext(kernel.UnknownStrategy, "strategy already registered",
			map[string]any{"strategy": s.Name})
	}
	if p.Tables != nil {
		for asset, currency := range s.Assets {
			if known, ok := p.Tables.CurrencyOf(asset); ok && known != currency {
				return kernel.NewErrorWithContext(kernel.UndefinedEnum,
					"strategy's asset currency disagrees with the reference tables",
					map[string]any{"asset": asset, "strategyCurrency": currency, "tableCurrency": known})
			}
		}
	}
	p.strategies[s.Name] = s
	p.strategyOrder = append(p.strategyOrder, s.Name)
	return nil
}

// Assets returns the union of every registered strategy's tracked assets,
// for a simulation driver to request from its market-data fetcher.
func (p *Portfolio) Assets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range p.strategyOrder {
		for asset := range p.strategies[name].Assets {
			if seen[asset] {
				continue
			}
			seen[asset] = true
			out = append(out, asset)
		}
	}
	return out
}

// Currencies returns the distinct non-base currencies referenced by every
// registered strategy's assets, for a simulation driver to request FX
// quotes for.
func (p *Portfolio) Currencies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range p.strategyOrder {
		for _, currency := range p.strategies[name].Assets {
			if currency == p.BaseCurrency || seen[currency] {
				continue
			}
			seen[currency] = true
			out = append(out, currency)
		}
	}
	return out
}

func (p *Portfolio) orderedStrategies() []*strategy.Strategy {
	out := make([]*strategy.Strategy, 0, len(p.strategyOrder))
	for _, name := range p.strategyOrder {
		out = append(out, p.strategies[name])
	}
	return out
}

// HandleMarketEvent runs the full per-bar phase sequence: append to history,
// synthesize and dispatch splits then dividends, run the allocation policy,
// then generate and dispatch each strategy's signals — §4.D.1.
func (p *Portfolio) HandleMarketEvent(e market.Event) error {
	date := kernel.NormalizeDate(e.Date)

	for _, md := range e.Prices {
		if err := md.Validate(); err != nil {
			return p.fatal(date, "MarketEvent", err)
		}
	}

	if err := p.MarketHistory.Append(date, e.Prices); err != nil {
		return p.fatal(date, "MarketEvent", err)
	}
	if err := p.FXHistory.Append(date, e.FX); err != nil {
		return p.fatal(date, "MarketEvent", err)
	}

	for asset, md := range e.Prices {
		if !md.HasSplit() {
			continue
		}
		se := event.SplitEvent{Date: date, Asset: asset, Ratio: md.SplitCoefficient}
		if err := p.handleSplit(se); err != nil {
			return p.fatal(date, "SplitEvent", err)
		}
	}
	for asset, md := range e.Prices {
		if !md.HasDividend() {
			continue
		}
		de := event.DividendEvent{Date: date, Asset: asset, PerShare: md.DividendPerShare}
		if err := p.handleDividend(de); err != nil {
			return p.fatal(date, "DividendEvent", err)
		}
	}

	allocations, err := p.Allocation.Allocate(date, p.orderedStrategies(), p.MarketHistory, p.FXHistory)
	if err != nil {
		return p.fatal(date, "AllocationPolicy", err)
	}
	for name, amount := range allocations {
		if s, ok := p.strategies[name]; ok {
			s.AllocatedCapital = amount
		}
	}

	for _, name := range p.strategyOrder {
		sig := p.strategies[name].GenerateSignals(date, p.MarketHistory, p.FXHistory)
		if err := p.handleSignal(sig); err != nil {
			return p.fatal(date, "SignalEvent", err)
		}
	}
	return nil
}

func (p *Portfolio) handleSplit(e event.SplitEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	ratio, _ := e.Ratio.Float64()
	for _, s := range p.strategies {
		qty, ok := s.Positions[e.Asset]
		if !ok || qty == 0 {
			continue
		}
		s.Positions[e.Asset] = int64(math.Floor(float64(qty) * ratio))
	}
	p.MarketHistory.AdjustAsset(e.Asset, e.Ratio)
	return nil
}

func (p *Portfolio) handleDividend(e event.DividendEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	for _, s := range p.strategies {
		qty, ok := s.Positions[e.Asset]
		if !ok || qty == 0 {
			continue
		}
		currency, ok := s.Assets[e.Asset]
		if !ok {
			continue
		}
		amount := e.PerShare.Mul(kernel.NewFromInt(qty))
		s.Cash[currency] = s.Cash[currency].Add(amount)
	}
	return nil
}

func (p *Portfolio) handleSignal(e event.SignalEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s, ok := p.strategies[e.StrategyName]
	if !ok {
		return kernel.NewErrorWithContext(kernel.UnknownStrategy, "signal references unknown strategy",
			map[string]any{"strategy": e.StrategyName})
	}
	if len(e.Signals) == 0 {
		return nil
	}
	targets, err := s.Sizer.ComputeSizes(e.Date, e.Signals, s, p.MarketHistory, p.FXHistory)
	if err != nil {
		return err
	}
	for asset := range e.Signals {
		delta := targets[asset] - s.Positions[asset]
		if delta == 0 {
			continue
		}
		action := event.Buy
		quantity := delta
		if delta < 0 {
			action = event.Sell
			quantity = -delta
		}
		orderType, primary, secondary, err := s.PriceCalc.ComputePrice(e.Date, asset, action, p.MarketHistory)
		if err != nil {
			return err
		}
		order := event.OrderEvent{
			Date: e.Date, StrategyName: s.Name, Asset: asset,
			Action: action, Type: orderType, Quantity: quantity,
			PrimaryPrice: primary, SecondaryPrice: secondary,
		}
		if err := p.handleOrder(order); err != nil {
			return err
		}
	}
	return nil
}

func (p *Portfolio) handleOrder(e event.OrderEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	p.fillErr = nil
	if ok := p.Broker.Submit(e); !ok {
		p.log.WithFields(log.Fields{"strategy": e.StrategyName, "asset": e.Asset}).Warn("order submission rejected")
	}
	if p.fillErr != nil {
		err := p.fillErr
		p.fillErr = nil
		return err
	}
	return nil
}

func (p *Portfolio) handleFill(e event.FillEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s, ok := p.strategies[e.StrategyName]
	if !ok {
		return kernel.NewErrorWithContext(kernel.UnknownStrategy, "fill references unknown strategy",
			map[string]any{"strategy": e.StrategyName})
	}
	currency, ok := s.Assets[e.Asset]
	if !ok {
		return kernel.NewErrorWithContext(kernel.MissingMarketData, "fill references an asset the strategy does not track",
			map[string]any{"asset": e.Asset, "strategy": s.Name})
	}
	s.Positions[e.Asset] += e.Quantity
	tradeValue := e.FillPrice.Mul(kernel.NewFromInt(e.Quantity))
	s.Cash[currency] = s.Cash[currency].Sub(tradeValue.Add(e.Commission))
	return nil
}

// UpdateEquityCurve computes the sum of every registered strategy's total
// value as of date and appends it to the equity curve, which must remain
// strictly increasing on date (§4.E.5c).
func (p *Portfolio) UpdateEquityCurve(date time.Time) error {
	date = kernel.NormalizeDate(date)
	if n := len(p.EquityCurve); n > 0 && !date.After(p.EquityCurve[n-1].Date) {
		return p.fatal(date, "updateEquityCurve", kernel.NewErrorWithContext(kernel.OutOfOrderBar,
			"equity curve date must be strictly increasing", map[string]any{"date": date}))
	}
	total := kernel.Zero
	for _, name := range p.strategyOrder {
		v, err := p.strategies[name].ComputeTotalValue(date, p.MarketHistory, p.FXHistory)
		if err != nil {
			return p.fatal(date, "updateEquityCurve", err)
		}
		total = total.Add(v)
	}
	p.EquityCurve = append(p.EquityCurve, kernel.EquityPoint{Date: date, Value: total})
	return nil
}

func (p *Portfolio) fatal(date time.Time, phase string, err error) error {
	p.log.WithFields(log.Fields{"date": date, "phase": phase, "runID": p.runID}).WithError(err).Error("dispatch aborted")
	return err
}
