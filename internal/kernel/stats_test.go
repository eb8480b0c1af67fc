package kernel

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestDailyReturnsAndEquityCurveRoundTrip(t *testing.T) {
	equity := []Decimal{
		NewFromFloat(1000), NewFromFloat(1100), NewFromFloat(1200),
	}
	returns, err := DailyReturns(equity)
	if err != nil {
		t.Fatalf("DailyReturns: %v", err)
	}
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(returns))
	}
	if !almostEqual(returns[0], 0.10, 1e-9) {
		t.Errorf("returns[0] = %v, want 0.10", returns[0])
	}
	if !almostEqual(returns[1], 0.0909090909, 1e-6) {
		t.Errorf("returns[1] = %v, want ~0.0909090909", returns[1])
	}

	curve, err := EquityCurve(returns, equity[0])
	if err != nil {
		t.Fatalf("EquityCurve: %v", err)
	}
	if len(curve) != len(equity) {
		t.Fatalf("round-trip length mismatch: got %d want %d", len(curve), len(equity))
	}
	for i := range equity {
		want, _ := equity[i].Float64()
		got, _ := curve[i].Float64()
		if !almostEqual(got, want, 1e-6) {
			t.Errorf("curve[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestDailyReturnsInsufficientData(t *testing.T) {
	_, err := DailyReturns([]Decimal{NewFromFloat(1000)})
	kind, ok := KindOf(err)
	if !ok || kind != InsufficientData {
		t.Fatalf("expected InsufficientData, got %v", err)
	}
}

func TestDailyReturnsEmptyInput(t *testing.T) {
	_, err := DailyReturns(nil)
	kind, ok := KindOf(err)
	if !ok || kind != EmptyInput {
		t.Fatalf("expected EmptyInput, got %v", err)
	}
}

func TestBetaIdentity(t *testing.T) {
	r := []float64{0.01, -0.02, 0.03}
	b, err := Beta(r, r)
	if err != nil {
		t.Fatalf("Beta: %v", err)
	}
	if !almostEqual(b, 1.0, 1e-9) {
		t.Errorf("Beta(r,r) = %v, want 1", b)
	}
}

func TestAlphaIdentityZero(t *testing.T) {
	r := []float64{0.01, -0.02, 0.03}
	a, err := Alpha(r, r, 0)
	if err != nil {
		t.Fatalf("Alpha: %v", err)
	}
	if !almostEqual(a, 0.0, 1e-9) {
		t.Errorf("Alpha(r,r,0) = %v, want 0", a)
	}
}

func TestSharpeAndSortinoOfConstantEquityAreZero(t *testing.T) {
	r := []float64{0, 0, 0, 0}
	sh, err := Sharpe(r, 0)
	if err != nil {
		t.Fatalf("Sharpe: %v", err)
	}
	if sh != 0 {
		t.Errorf("Sharpe of zero series = %v, want 0", sh)
	}
	so, err := Sortino(r, 0)
	if err != nil {
		t.Fatalf("Sortino: %v", err)
	}
	if so != 0 {
		t.Errorf("Sortino of zero series = %v, want 0", so)
	}
}

func TestAnnualizedVolatilityInvalidTradingDays(t *testing.T) {
	_, err := AnnualizedVolatility([]float64{0.01, 0.02, -0.01}, 0)
	kind, ok := KindOf(err)
	if !ok || kind != InvalidTradingDays {
		t.Fatalf("expected InvalidTradingDays, got %v", err)
	}
}

func TestInformationRatioMisaligned(t *testing.T) {
	_, err := InformationRatio([]float64{0.01, 0.02}, []float64{0.01})
	kind, ok := KindOf(err)
	if !ok || kind != MisalignedCurves {
		t.Fatalf("expected MisalignedCurves, got %v", err)
	}
}

func TestDrawdownsS5Scenario(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{1000, 1020, 1010, 1030, 950, 1100, 900}
	equity := make([]EquityPoint, len(values))
	for i, v := range values {
		equity[i] = EquityPoint{Date: base.AddDate(0, 0, i), Value: NewFromFloat(v)}
	}

	result, err := Drawdowns(equity)
	if err != nil {
		t.Fatalf("Drawdowns: %v", err)
	}

	wantDD := []float64{0, 0, -0.0098039216, 0, -0.0776699029, 0, -0.1818181818}
	for i, want := range wantDD {
		if !almostEqual(result.Series[i].Drawdown, want, 1e-6) {
			t.Errorf("drawdown[%d] = %v, want %v", i, result.Series[i].Drawdown, want)
		}
	}

	if !almostEqual(result.MaxDrawdown, -0.1818181818, 1e-6) {
		t.Errorf("MaxDrawdown = %v, want -0.1818...", result.MaxDrawdown)
	}
	if result.MaxDrawdownDuration != 1 {
		t.Errorf("MaxDrawdownDuration = %d, want 1 (peak at index 5, realized at index 6)", result.MaxDrawdownDuration)
	}
}

func TestDrawdownsEmptyInput(t *testing.T) {
	_, err := Drawdowns(nil)
	kind, ok := KindOf(err)
	if !ok || kind != EmptyInput {
		t.Fatalf("expected EmptyInput, got %v", err)
	}
}
