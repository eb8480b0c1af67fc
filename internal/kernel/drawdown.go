package kernel

import "time"

// EquityPoint is one bar of an ordered equity curve.
type EquityPoint struct {
	Date  time.Time
	Value Decimal
}

// DrawdownPoint is one bar of the drawdown time series: always <= 0.
type DrawdownPoint struct {
	Date     time.Time
	Drawdown float64
}

// DrawdownResult bundles the full drawdown series with the single deepest
// drawdown and the number of bars it took to realize it.
type DrawdownResult struct {
	Series              []DrawdownPoint
	MaxDrawdown         float64
	MaxDrawdownDuration int
}

// Drawdowns scans an ordered equity curve and computes the running-peak
// drawdown series plus the single deepest drawdown and its duration.
//
// Tie-breaks: when two peaks are equal, the earlier one wins (a new peak is
// only recorded on a strict improvement). When several bars share the
// deepest drawdown, the earliest realization wins (the running maximum is
// only updated on a strict improvement).
func Drawdowns(equity []EquityPoint) (DrawdownResult, error) {
	if len(equity) == 0 {
		return DrawdownResult{}, NewError(EmptyInput, "equity curve is empty")
	}

	series := make([]DrawdownPoint, len(equity))
	peak, _ := equity[0].Value.Float64()
	peakIdx := 0

	maxDD := 0.0
	maxDDPeakIdx := 0
	maxDDRealizedIdx := 0

	for i, pt := range equity {
		value, _ := pt.Value.Float64()
		if value > peak {
			peak = value
			peakIdx = i
		}
		dd := 0.0
		if peak != 0 {
			dd = (value - peak) / peak
		}
		series[i] = DrawdownPoint{Date: pt.Date, Drawdown: dd}

		if dd < maxDD {
			maxDD = dd
			maxDDPeakIdx = peakIdx
			maxDDRealizedIdx = i
		}
	}

	return DrawdownResult{
		Series:              series,
		MaxDrawdown:         maxDD,
		MaxDrawdownDuration: maxDDRealizedIdx - maxDDPeakIdx,
	}, nil
}
