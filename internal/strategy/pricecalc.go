package strategy

import (
	"time"

	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/history"
	"github.com/epeers/backtester/internal/kernel"
)

// MarketPriceCalc submits every order at the bar's closing price as a plain
// market order — the reference price calculator used by the engine's own
// tests, standing in for the limit/stop pricing logic a real execution
// model would add.
type MarketPriceCalc struct{}

func (MarketPriceCalc) ComputePrice(date time.Time, asset string, action event.TradeAction,
	hist *history.MarketHistory) (event.OrderType, kernel.Decimal, kernel.Decimal, error) {

	snapshot, ok := hist.At(date)
	if !ok {
		return "", kernel.Zero, kernel.Zero, kernel.NewErrorWithContext(kernel.MissingMarketData,
			"no market snapshot for pricing date", map[string]any{"date": date})
	}
	md, ok := snapshot[asset]
	if !ok {
		return "", kernel.Zero, kernel.Zero, kernel.NewErrorWithContext(kernel.MissingMarketData,
			"missing market data for asset", map[string]any{"asset": asset, "date": date})
	}
	return event.MarketOrder, md.Close, kernel.Zero, nil
}
