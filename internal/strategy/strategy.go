// Package strategy implements the strategy contract (§4.C): a strategy's
// positions, cash, and the three pluggable collaborators — PositionSizer,
// OrderPriceCalc, SignalGenerator — that decide, respectively, how much of
// each asset to hold, what order to place to get there, and when to emit
// signals at all. Concrete strategies (BuyAndHold, RebalancingBuyAndHold,
// MomentumRotation) are built by composing a Strategy with a SignalGenerator
// rather than by each implementing a separate Strategy interface, mirroring
// the teacher's preference for small collaborator interfaces over one large
// one (broker.Brokerage, market.Fetcher).
package strategy

import (
	"time"

	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/history"
	"github.com/epeers/backtester/internal/kernel"
)

// PositionSizer turns a bar's signals into target position sizes — absolute
// share counts, not deltas from the current position.
type PositionSizer interface {
	ComputeSizes(date time.Time, signals map[string]event.SignalType, s *Strategy,
		hist *history.MarketHistory, fx *history.FXHistory) (map[string]int64, error)
}

// OrderPriceCalc decides the order shape (type, primary/secondary price) used
// to move toward a target position.
type OrderPriceCalc interface {
	ComputePrice(date time.Time, asset string, action event.TradeAction,
		hist *history.MarketHistory) (event.OrderType, kernel.Decimal, kernel.Decimal, error)
}

// SignalGenerator decides, for a given bar, which assets get a signal and
// what kind. Holds whatever per-strategy-kind state that decision needs
// (BuyAndHold's one-shot flag, RebalancingBuyAndHold's schedule,
// MomentumRotation's ranking window).
type SignalGenerator interface {
	Generate(date time.Time, s *Strategy, hist *history.MarketHistory, fx *history.FXHistory) map[string]event.SignalType
}

// Strategy is the mutable state the engine dispatches events against: one
// per named strategy in a run, including the implicit benchmark strategy.
type Strategy struct {
	Name         string
	BaseCurrency string
	Assets       map[string]string // asset -> currency, immutable for the run
	Positions    map[string]int64  // asset -> signed share count
	Cash         map[string]kernel.Decimal

	// AllocatedCapital is the base-currency amount the capital-allocation
	// policy assigned this strategy for the current bar (§4.D.1c). The
	// engine sets this before calling GenerateSignals/the sizer each bar.
	AllocatedCapital kernel.Decimal

	Sizer     PositionSizer
	PriceCalc OrderPriceCalc
	Generator SignalGenerator
}

// New builds a Strategy with empty positions and the given seed cash.
func New(name, baseCurrency string, assets map[string]string, seedCash map[string]kernel.Decimal,
	sizer PositionSizer, priceCalc OrderPriceCalc, generator SignalGenerator) (*Strategy, error) {
	if name == "" {
		return nil, kernel.NewError(kernel.EmptyInput, "strategy name must not be empty")
	}
	if len(assets) == 0 {
		return nil, kernel.NewError(kernel.NullOrEmptyCollection, "strategy must track at least one asset")
	}
	cash := make(map[string]kernel.Decimal, len(seedCash))
	for k, v := range seedCash {
		cash[k] = v
	}
	return &Strategy{
		Name:         name,
		BaseCurrency: baseCurrency,
		Assets:       assets,
		Positions:    make(map[string]int64, len(assets)),
		Cash:         cash,
		Sizer:        sizer,
		PriceCalc:    priceCalc,
		Generator:    generator,
	}, nil
}

// GenerateSignals asks the strategy's SignalGenerator for this bar's signal
// map and wraps it into a SignalEvent, per §4.C's generateSignals contract.
func (s *Strategy) GenerateSignals(date time.Time, hist *history.MarketHistory, fx *history.FXHistory) event.SignalEvent {
	signals := s.Generator.Generate(date, s, hist, fx)
	if signals == nil {
		signals = map[string]event.SignalType{}
	}
	return event.SignalEvent{Date: date, StrategyName: s.Name, Signals: signals}
}

// ComputeTotalValue sums held positions (converted to base currency via the
// adjusted close and the FX snapshot for date) plus cash holdings, per
// §4.C's computeTotalValue contract.
func (s *Strategy) ComputeTotalValue(date time.Time, hist *history.MarketHistory, fx *history.FXHistory) (kernel.Decimal, error) {
	snapshot, haveMarket := hist.At(date)
	fxSnap, _ := fx.At(date)

	total := kernel.Zero
	for asset, qty := range s.Positions {
		if qty == 0 {
			continue
		}
		if !haveMarket {
			return kernel.Zero, kernel.NewErrorWithContext(kernel.MissingMarketData,
				"no market snapshot for valuation date", map[string]any{"date": date})
		}
		md, ok := snapshot[asset]
		if !ok {
			return kernel.Zero, kernel.NewErrorWithContext(kernel.MissingMarketData,
				"missing market data for held asset", map[string]any{"asset": asset, "date": date})
		}
		value := md.AdjClose.Mul(kernel.NewFromInt(qty))
		valueInBase, err := ToBase(value, s.Assets[asset], s.BaseCurrency, fxSnap)
		if err != nil {
			return kernel.Zero, err
		}
		total = total.Add(valueInBase)
	}

	for currency, amount := range s.Cash {
		if amount.IsZero() {
			continue
		}
		valueInBase, err := ToBase(amount, currency, s.BaseCurrency, fxSnap)
		if err != nil {
			return kernel.Zero, err
		}
		total = total.Add(valueInBase)
	}
	return total, nil
}

// ToBase converts an amount denominated in currency into the base currency,
// using the convention fixed in §9 / SPEC_FULL.md §C: fxSnapshot[C] is units
// of C per one unit of base currency, so valueInBase = valueInC / fxSnapshot[C].
func ToBase(amount kernel.Decimal, currency, baseCurrency string, fxSnap map[string]kernel.Decimal) (kernel.Decimal, error) {
	if currency == baseCurrency {
		return amount, nil
	}
	rate, ok := fxSnap[currency]
	if !ok || rate.IsZero() {
		return kernel.Zero, kernel.NewErrorWithContext(kernel.MissingFxRate,
			"missing fx rate to convert to base currency", map[string]any{"currency": currency, "baseCurrency": baseCurrency})
	}
	return kernel.Round(amount.Div(rate), kernel.ScalePrice), nil
}

// FromBase converts a base-currency amount into currency, the inverse of
// ToBase: valueInC = valueInBase * fxSnapshot[C].
func FromBase(amount kernel.Decimal, currency, baseCurrency string, fxSnap map[string]kernel.Decimal) (kernel.Decimal, error) {
	if currency == baseCurrency {
		return amount, nil
	}
	rate, ok := fxSnap[currency]
	if !ok {
		return kernel.Zero, kernel.NewErrorWithContext(kernel.MissingFxRate,
			"missing fx rate to convert from base currency", map[string]any{"currency": currency, "baseCurrency": baseCurrency})
	}
	return amount.Mul(rate), nil
}
