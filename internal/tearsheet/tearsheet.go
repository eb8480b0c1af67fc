// Package tearsheet builds the final performance report spec.md §4.F
// describes: the trading curve's own return-based metrics, the alpha/beta/
// information-ratio comparison against a benchmark curve aligned by date,
// the drawdown series, and an echo of the equity curve itself. It is a thin
// consumer of internal/kernel; all the arithmetic lives there.
package tearsheet

import (
	"time"

	"github.com/epeers/backtester/internal/kernel"
)

// Report is the full metrics bundle a completed simulation produces.
type Report struct {
	AnnualizedReturn float64
	Sharpe           float64
	Sortino          float64
	CAGR             float64
	Volatility       float64

	Alpha            float64
	Beta             float64
	InformationRatio float64

	MaxDrawdown         float64
	MaxDrawdownDuration int
	Drawdowns           []kernel.DrawdownPoint

	EquityCurve []kernel.EquityPoint
}

// Build computes a Report from the trading and benchmark equity curves.
// tradingDaysPerYear drives annualization; riskFreeRate is subtracted before
// Sharpe/Sortino/Alpha's excess-return calculations.
func Build(trading, benchmark []kernel.EquityPoint, tradingDaysPerYear int, riskFreeRate float64) (Report, error) {
	tradingReturns, err := kernel.DailyReturns(extractValues(trading))
	if err != nil {
		return Report{}, err
	}

	annReturn, err := kernel.AnnualizedReturn(tradingReturns, tradingDaysPerYear)
	if err != nil {
		return Report{}, err
	}
	sharpe, err := kernel.Sharpe(tradingReturns, riskFreeRate)
	if err != nil {
		return Report{}, err
	}
	sortino, err := kernel.Sortino(tradingReturns, riskFreeRate)
	if err != nil {
		return Report{}, err
	}
	cagr, err := kernel.CAGR(tradingReturns, tradingDaysPerYear)
	if err != nil {
		return Report{}, err
	}
	vol, err := kernel.AnnualizedVolatility(tradingReturns, tradingDaysPerYear)
	if err != nil {
		return Report{}, err
	}

	drawdowns, err := kernel.Drawdowns(trading)
	if err != nil {
		return Report{}, err
	}

	alignedTrading, alignedBenchmark, err := alignReturns(trading, benchmark)
	if err != nil {
		return Report{}, err
	}
	beta, err := kernel.Beta(alignedTrading, alignedBenchmark)
	if err != nil {
		return Report{}, err
	}
	alpha, err := kernel.Alpha(alignedTrading, alignedBenchmark, riskFreeRate)
	if err != nil {
		return Report{}, err
	}
	infoRatio, err := kernel.InformationRatio(alignedTrading, alignedBenchmark)
	if err != nil {
		return Report{}, err
	}

	return Report{
		AnnualizedReturn:    annReturn,
		Sharpe:              sharpe,
		Sortino:             sortino,
		CAGR:                cagr,
		Volatility:          vol,
		Alpha:               alpha,
		Beta:                beta,
		InformationRatio:    infoRatio,
		MaxDrawdown:         drawdowns.MaxDrawdown,
		MaxDrawdownDuration: drawdowns.MaxDrawdownDuration,
		Drawdowns:           drawdowns.Series,
		EquityCurve:         trading,
	}, nil
}

// alignReturns converts both equity curves to daily returns and restricts
// each to the dates present in both, preserving order. A total mismatch (no
// shared dates) or a partial mismatch (some dates present in one curve but
// not the other) both fail with MisalignedCurves — §4.F: "If lengths differ
// after alignment, fail with MisalignedCurves."
func alignReturns(trading, benchmark []kernel.EquityPoint) ([]float64, []float64, error) {
	tradingReturns, err := kernel.DailyReturns(extractValues(trading))
	if err != nil {
		return nil, nil, err
	}
	benchmarkReturns, err := kernel.DailyReturns(extractValues(benchmark))
	if err != nil {
		return nil, nil, err
	}

	benchmarkDates := benchmark[1:]
	benchmarkIndex := make(map[time.Time]int, len(benchmarkDates))
	for i, pt := range benchmarkDates {
		benchmarkIndex[kernel.NormalizeDate(pt.Date)] = i
	}

	var alignedTrading, alignedBenchmark []float64
	for i, pt := range trading[1:] {
		j, ok := benchmarkIndex[kernel.NormalizeDate(pt.Date)]
		if !ok {
			continue
		}
		alignedTrading = append(alignedTrading, tradingReturns[i])
		alignedBenchmark = append(alignedBenchmark, benchmarkReturns[j])
	}

	if len(alignedTrading) == 0 ||
		len(alignedTrading) != len(tradingReturns) ||
		len(alignedBenchmark) != len(benchmarkReturns) {
		return nil, nil, kernel.NewErrorWithContext(kernel.MisalignedCurves,
			"trading and benchmark equity curves do not share the same dates",
			map[string]any{"tradingPoints": len(trading), "benchmarkPoints": len(benchmark)})
	}
	return alignedTrading, alignedBenchmark, nil
}

func extractValues(curve []kernel.EquityPoint) []kernel.Decimal {
	out := make([]kernel.Decimal, len(curve))
	for i, pt := range curve {
		out[i] = pt.Value
	}
	return out
}
