package strategy

import (
	"time"

	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/history"
	"github.com/epeers/backtester/internal/kernel"
)

// EqualWeightSizer splits a strategy's AllocatedCapital evenly across every
// asset carrying a non-NoOp signal this bar, converts each asset's share to
// its own currency, and floors to whole shares at that asset's close price.
type EqualWeightSizer struct{}

func (EqualWeightSizer) ComputeSizes(date time.Time, signals map[string]event.SignalType, s *Strategy,
	hist *history.MarketHistory, fx *history.FXHistory) (map[string]int64, error) {

	var active []string
	for asset, sig := range signals {
		if sig != event.NoOp {
			active = append(active, asset)
		}
	}
	targets := make(map[string]int64, len(s.Positions))
	for asset, qty := range s.Positions {
		targets[asset] = qty
	}
	if len(active) == 0 {
		return targets, nil
	}

	snapshot, ok := hist.At(date)
	if !ok {
		return nil, kernel.NewErrorWithContext(kernel.MissingMarketData,
			"no market snapshot for sizing date", map[string]any{"date": date})
	}
	fxSnap, _ := fx.At(date)

	perAssetInBase := s.AllocatedCapital.Div(kernel.NewFromInt(int64(len(active))))
	for _, asset := range active {
		md, ok := snapshot[asset]
		if !ok {
			return nil, kernel.NewErrorWithContext(kernel.MissingMarketData,
				"missing market data for asset", map[string]any{"asset": asset, "date": date})
		}
		inCurrency, err := FromBase(perAssetInBase, s.Assets[asset], s.BaseCurrency, fxSnap)
		if err != nil {
			return nil, err
		}
		shares := inCurrency.Div(md.Close).Floor().IntPart()
		if shares < 0 {
			shares = 0
		}
		targets[asset] = shares
	}
	return targets, nil
}
