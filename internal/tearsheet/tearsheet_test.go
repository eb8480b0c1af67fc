package tearsheet

import (
	"testing"
	"time"

	"github.com/epeers/backtester/internal/kernel"
)

func curve(base time.Time, values []float64) []kernel.EquityPoint {
	out := make([]kernel.EquityPoint, len(values))
	for i, v := range values {
		out[i] = kernel.EquityPoint{Date: base.AddDate(0, 0, i), Value: kernel.NewFromFloat(v)}
	}
	return out
}

func TestBuildIdenticalCurvesHaveBetaOneAlphaZero(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{1000, 1010, 990, 1020}
	trading := curve(base, values)
	benchmark := curve(base, values)

	report, err := Build(trading, benchmark, 252, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := report.Beta - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Beta = %v, want 1", report.Beta)
	}
	if diff := report.Alpha; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Alpha = %v, want 0", report.Alpha)
	}
	if len(report.EquityCurve) != len(trading) {
		t.Errorf("EquityCurve length = %d, want %d", len(report.EquityCurve), len(trading))
	}
}

func TestBuildS5DrawdownScenario(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{1000, 1020, 1010, 1030, 950, 1100, 900}
	trading := curve(base, values)

	report, err := Build(trading, trading, 252, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := report.MaxDrawdown - (-0.1818181818); diff > 1e-6 || diff < -1e-6 {
		t.Errorf("MaxDrawdown = %v, want ~-0.1818", report.MaxDrawdown)
	}
	if report.MaxDrawdownDuration != 1 {
		t.Errorf("MaxDrawdownDuration = %d, want 1", report.MaxDrawdownDuration)
	}
	if len(report.Drawdowns) != len(values) {
		t.Errorf("Drawdowns length = %d, want %d", len(report.Drawdowns), len(values))
	}
}

func TestBuildRejectsMismatchedDates(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trading := curve(base, []float64{1000, 1010, 1020})
	benchmark := curve(base.AddDate(0, 0, 30), []float64{500, 505, 510})

	_, err := Build(trading, benchmark, 252, 0)
	if kind, ok := kernel.KindOf(err); !ok || kind != kernel.MisalignedCurves {
		t.Fatalf("expected MisalignedCurves, got %v", err)
	}
}

func TestBuildRejectsEmptyTradingCurve(t *testing.T) {
	_, err := Build(nil, nil, 252, 0)
	if kind, ok := kernel.KindOf(err); !ok || kind != kernel.EmptyInput {
		t.Fatalf("expected EmptyInput, got %v", err)
	}
}
