package kernel

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// VarianceKind selects the divisor used when computing variance/volatility:
// Sample uses n-1, Population uses n.
type VarianceKind int

const (
	Sample VarianceKind = iota
	Population
)

func requireMinLen(r []float64, n int) error {
	if len(r) == 0 {
		return NewError(EmptyInput, "input sequence is empty")
	}
	if len(r) < n {
		return NewError(InsufficientData, "input sequence has fewer than the required number of elements")
	}
	return nil
}

// DailyReturns produces length len(equity)-1 simple returns:
// r_i = (e_{i+1} - e_i) / e_i.
func DailyReturns(equity []Decimal) ([]float64, error) {
	if err := requireMinLen(toFloatSlice(equity), 2); err != nil {
		return nil, err
	}
	returns := make([]float64, len(equity)-1)
	for i := 0; i < len(equity)-1; i++ {
		e0, _ := equity[i].Float64()
		e1, _ := equity[i+1].Float64()
		if e0 == 0 {
			return nil, NewError(InsufficientData, "equity value is zero, cannot compute a return")
		}
		returns[i] = (e1 - e0) / e0
	}
	return returns, nil
}

// EquityCurve is the inverse of DailyReturns: produces length len(r)+1 with
// e_0 = initial, e_{i+1} = e_i*(1+r_i).
func EquityCurve(r []float64, initial Decimal) ([]Decimal, error) {
	if len(r) == 0 {
		return nil, NewError(EmptyInput, "return sequence is empty")
	}
	curve := make([]Decimal, len(r)+1)
	curve[0] = initial
	for i, ri := range r {
		factor := NewFromFloat(1 + ri)
		curve[i+1] = curve[i].Mul(factor)
	}
	return curve, nil
}

// Mean returns the arithmetic mean of r, via gonum/stat's unweighted Mean.
// Callers are expected to have already checked for EmptyInput via one of
// the higher-level functions.
func Mean(r []float64) float64 {
	return stat.Mean(r, nil)
}

// Variance computes the sample (n-1) or population (n) variance of r, via
// gonum/stat's Variance (the unbiased n-1 sample variance). Population
// variance is derived by rescaling the sample variance by (n-1)/n, since
// gonum/stat only exposes the unbiased estimator directly.
func Variance(r []float64, kind VarianceKind) (float64, error) {
	if err := requireMinLen(r, 2); err != nil {
		return 0, err
	}
	sampleVar := stat.Variance(r, nil)
	if kind == Population {
		n := float64(len(r))
		return sampleVar * (n - 1) / n, nil
	}
	return sampleVar, nil
}

// Volatility is the square root of Variance. For the Sample case this is
// exactly gonum/stat's StdDev; Population routes through Variance's rescaling.
func Volatility(r []float64, kind VarianceKind) (float64, error) {
	if kind == Sample {
		if err := requireMinLen(r, 2); err != nil {
			return 0, err
		}
		return stat.StdDev(r, nil), nil
	}
	v, err := Variance(r, kind)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// AnnualizedVolatility scales sample volatility by sqrt(tradingDaysPerYear).
func AnnualizedVolatility(r []float64, tradingDaysPerYear int) (float64, error) {
	if tradingDaysPerYear <= 0 {
		return 0, NewError(InvalidTradingDays, "tradingDaysPerYear must be > 0")
	}
	vol, err := Volatility(r, Sample)
	if err != nil {
		return 0, err
	}
	return vol * math.Sqrt(float64(tradingDaysPerYear)), nil
}

// Covariance computes the sample covariance of two equal-length sequences,
// via gonum/stat's Covariance.
func Covariance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, NewError(MisalignedCurves, "sequences must be the same length")
	}
	if err := requireMinLen(a, 2); err != nil {
		return 0, err
	}
	return stat.Covariance(a, b, nil), nil
}

// downsideDeviation is the sample stdev of min(r_i - rf, 0) taken over the
// full sequence (not only the negative entries), per §4.A.
func downsideDeviation(r []float64, rf float64) (float64, error) {
	if err := requireMinLen(r, 2); err != nil {
		return 0, err
	}
	shortfalls := make([]float64, len(r))
	for i, ri := range r {
		shortfalls[i] = math.Min(ri-rf, 0)
	}
	return Volatility(shortfalls, Sample)
}

// Sharpe is the excess mean return divided by the sample volatility of r.
// A zero-volatility series (property 7) is defined to have a Sharpe of zero,
// by convention, rather than a division-by-zero error.
func Sharpe(r []float64, rf float64) (float64, error) {
	vol, err := Volatility(r, Sample)
	if err != nil {
		return 0, err
	}
	if vol == 0 {
		return 0, nil
	}
	return (Mean(r) - rf) / vol, nil
}

// Sortino is the excess mean return divided by downside deviation. Like
// Sharpe, a zero downside deviation yields a Sortino of zero by convention.
func Sortino(r []float64, rf float64) (float64, error) {
	dd, err := downsideDeviation(r, rf)
	if err != nil {
		return 0, err
	}
	if dd == 0 {
		return 0, nil
	}
	return (Mean(r) - rf) / dd, nil
}

// CAGR is the compound annual growth rate implied by the return sequence:
// prod(1+r_i)^(N/n) - 1, with N = tradingDaysPerYear (no default is
// applied here; a non-positive value fails with InvalidTradingDays).
func CAGR(r []float64, tradingDaysPerYear int) (float64, error) {
	if err := requireMinLen(r, 1); err != nil {
		return 0, err
	}
	if tradingDaysPerYear <= 0 {
		return 0, NewError(InvalidTradingDays, "tradingDaysPerYear must be > 0")
	}
	product := 1.0
	for _, ri := range r {
		product *= 1 + ri
	}
	exponent := float64(tradingDaysPerYear) / float64(len(r))
	return math.Pow(product, exponent) - 1, nil
}

// AnnualizedReturn is (1 + mean(r))^N - 1.
func AnnualizedReturn(r []float64, tradingDaysPerYear int) (float64, error) {
	if err := requireMinLen(r, 1); err != nil {
		return 0, err
	}
	if tradingDaysPerYear <= 0 {
		return 0, NewError(InvalidTradingDays, "tradingDaysPerYear must be > 0")
	}
	return math.Pow(1+Mean(r), float64(tradingDaysPerYear)) - 1, nil
}

// Beta is cov(rp,rb) / var(rb, Sample). A non-constant rb compared against
// itself yields a Beta of exactly 1 (property 6). A degenerate
// zero-variance benchmark yields a Beta of zero, by the same
// zero-denominator convention used by Sharpe/Sortino.
func Beta(rp, rb []float64) (float64, error) {
	cov, err := Covariance(rp, rb)
	if err != nil {
		return 0, err
	}
	varB, err := Variance(rb, Sample)
	if err != nil {
		return 0, err
	}
	if varB == 0 {
		return 0, nil
	}
	return cov / varB, nil
}

// Alpha is mean(rp) - (rf + beta(rp,rb)*(mean(rb) - rf)).
func Alpha(rp, rb []float64, rf float64) (float64, error) {
	b, err := Beta(rp, rb)
	if err != nil {
		return 0, err
	}
	return Mean(rp) - (rf + b*(Mean(rb)-rf)), nil
}

// InformationRatio is mean(rp - rb) / stdev(rp - rb, Sample).
func InformationRatio(rp, rb []float64) (float64, error) {
	if len(rp) != len(rb) {
		return 0, NewError(MisalignedCurves, "portfolio and benchmark returns must be the same length")
	}
	if err := requireMinLen(rp, 2); err != nil {
		return 0, err
	}
	diff := make([]float64, len(rp))
	for i := range rp {
		diff[i] = rp[i] - rb[i]
	}
	vol, err := Volatility(diff, Sample)
	if err != nil {
		return 0, err
	}
	if vol == 0 {
		return 0, nil
	}
	return Mean(diff) / vol, nil
}

func toFloatSlice(d []Decimal) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		f, _ := v.Float64()
		out[i] = f
	}
	return out
}
