package strategy

import (
	"sort"
	"time"

	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/history"
)

// BuyAndHold emits Underweight for every tracked asset exactly once, on the
// first bar it sees, and an empty signal map on every bar after that — the
// sizer, not the generator, decides how large a position "taking it" means.
type BuyAndHold struct {
	fired bool
}

// NewBuyAndHold builds a fresh, unfired BuyAndHold generator.
func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

func (b *BuyAndHold) Generate(date time.Time, s *Strategy, hist *history.MarketHistory, fx *history.FXHistory) map[string]event.SignalType {
	if b.fired {
		return map[string]event.SignalType{}
	}
	b.fired = true
	signals := make(map[string]event.SignalType, len(s.Assets))
	for asset := range s.Assets {
		signals[asset] = event.Underweight
	}
	return signals
}

// RebalancingBuyAndHold emits Rebalance for every tracked asset on the first
// bar and again whenever the current date reaches the next scheduled
// rebalance date for its frequency.
type RebalancingBuyAndHold struct {
	Frequency         event.RebalancingFrequency
	fired             bool
	lastRebalanceDate time.Time
}

// NewRebalancingBuyAndHold builds a generator that rebalances on the given
// frequency, starting with the first bar it sees.
func NewRebalancingBuyAndHold(freq event.RebalancingFrequency) *RebalancingBuyAndHold {
	return &RebalancingBuyAndHold{Frequency: freq}
}

func (r *RebalancingBuyAndHold) Generate(date time.Time, s *Strategy, hist *history.MarketHistory, fx *history.FXHistory) map[string]event.SignalType {
	due := !r.fired
	if !due {
		next, err := event.NextRebalanceDate(r.lastRebalanceDate, r.Frequency)
		due = err == nil && !date.Before(next)
	}
	if !due {
		return map[string]event.SignalType{}
	}
	r.fired = true
	r.lastRebalanceDate = date
	signals := make(map[string]event.SignalType, len(s.Assets))
	for asset := range s.Assets {
		signals[asset] = event.Rebalance
	}
	return signals
}

// MomentumRotation ranks assets by trailing total return over a lookback
// window drawn from the historical market map's last-k view, and emits
// Overweight for the top TopK performers, Underweight for the rest. This is
// a supplemental strategy (not in the distilled contract) exercising the
// indexed-window design the history package exists to serve.
type MomentumRotation struct {
	Lookback int
	TopK     int
}

// NewMomentumRotation builds a momentum generator ranking over lookback bars
// and overweighting the top topK assets each time it fires.
func NewMomentumRotation(lookback, topK int) *MomentumRotation {
	return &MomentumRotation{Lookback: lookback, TopK: topK}
}

type momentumScore struct {
	asset string
	ret   float64
}

func (m *MomentumRotation) Generate(date time.Time, s *Strategy, hist *history.MarketHistory, fx *history.FXHistory) map[string]event.SignalType {
	assets := make([]string, 0, len(s.Assets))
	for asset := range s.Assets {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	var scored []momentumScore
	for _, asset := range assets {
		window := hist.Window(asset, date, m.Lookback)
		if len(window) < 2 {
			continue
		}
		first, _ := window[0].AdjClose.Float64()
		last, _ := window[len(window)-1].AdjClose.Float64()
		if first == 0 {
			continue
		}
		scored = append(scored, momentumScore{asset: asset, ret: (last - first) / first})
	}
	if len(scored) == 0 {
		return map[string]event.SignalType{}
	}
	// scored is already in asset-name order, so a stable sort on ret alone
	// resolves ties deterministically by name rather than by map order.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].ret > scored[j].ret })

	signals := make(map[string]event.SignalType, len(scored))
	for i, sc := range scored {
		if i < m.TopK {
			signals[sc.asset] = event.Overweight
		} else {
			signals[sc.asset] = event.Underweight
		}
	}
	return signals
}
