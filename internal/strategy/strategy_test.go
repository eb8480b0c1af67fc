package strategy

import (
	"testing"
	"time"

	"github.com/epeers/backtester/internal/event"
	"github.com/epeers/backtester/internal/history"
	"github.com/epeers/backtester/internal/kernel"
	"github.com/epeers/backtester/internal/market"
)

func mustStrategy(t *testing.T, gen SignalGenerator) *Strategy {
	t.Helper()
	s, err := New("s1", "USD", map[string]string{"AAPL": "USD"},
		map[string]kernel.Decimal{"USD": kernel.NewFromFloat(10000)},
		EqualWeightSizer{}, MarketPriceCalc{}, gen)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New("", "USD", map[string]string{"AAPL": "USD"}, nil, EqualWeightSizer{}, MarketPriceCalc{}, NewBuyAndHold())
	if kind, ok := kernel.KindOf(err); !ok || kind != kernel.EmptyInput {
		t.Fatalf("expected EmptyInput, got %v", err)
	}
}

func TestNewRejectsEmptyAssets(t *testing.T) {
	_, err := New("s1", "USD", nil, nil, EqualWeightSizer{}, MarketPriceCalc{}, NewBuyAndHold())
	if kind, ok := kernel.KindOf(err); !ok || kind != kernel.NullOrEmptyCollection {
		t.Fatalf("expected NullOrEmptyCollection, got %v", err)
	}
}

func TestBuyAndHoldFiresOnce(t *testing.T) {
	s := mustStrategy(t, NewBuyAndHold())
	hist := history.NewMarketHistory()
	fx := history.NewFXHistory()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	first := s.GenerateSignals(d0, hist, fx)
	if first.Signals["AAPL"] != event.Underweight {
		t.Fatalf("expected Underweight on first bar, got %v", first.Signals)
	}
	second := s.GenerateSignals(d1, hist, fx)
	if len(second.Signals) != 0 {
		t.Fatalf("expected empty signals on second bar, got %v", second.Signals)
	}
}

func TestRebalancingBuyAndHoldSchedule(t *testing.T) {
	s := mustStrategy(t, NewRebalancingBuyAndHold(event.Weekly))
	hist := history.NewMarketHistory()
	fx := history.NewFXHistory()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := s.GenerateSignals(d0, hist, fx)
	if first.Signals["AAPL"] != event.Rebalance {
		t.Fatalf("expected Rebalance on first bar, got %v", first.Signals)
	}
	tooSoon := s.GenerateSignals(d0.AddDate(0, 0, 3), hist, fx)
	if len(tooSoon.Signals) != 0 {
		t.Fatalf("expected no rebalance before next scheduled date, got %v", tooSoon.Signals)
	}
	dueDate := d0.AddDate(0, 0, 7)
	due := s.GenerateSignals(dueDate, hist, fx)
	if due.Signals["AAPL"] != event.Rebalance {
		t.Fatalf("expected Rebalance on scheduled date, got %v", due.Signals)
	}
}

func TestMomentumRotationRanksByTrailingReturn(t *testing.T) {
	s, err := New("momo", "USD", map[string]string{"A": "USD", "B": "USD"},
		map[string]kernel.Decimal{"USD": kernel.NewFromFloat(10000)},
		EqualWeightSizer{}, MarketPriceCalc{}, NewMomentumRotation(3, 1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hist := history.NewMarketHistory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	aCloses := []float64{10, 11, 12}
	bCloses := []float64{10, 9, 8}
	for i := 0; i < 3; i++ {
		snap := map[string]market.MarketData{
			"A": mkBar(aCloses[i]),
			"B": mkBar(bCloses[i]),
		}
		if err := hist.Append(base.AddDate(0, 0, i), snap); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	fx := history.NewFXHistory()

	sig := s.GenerateSignals(base.AddDate(0, 0, 2), hist, fx)
	if sig.Signals["A"] != event.Overweight {
		t.Errorf("expected A Overweight, got %v", sig.Signals["A"])
	}
	if sig.Signals["B"] != event.Underweight {
		t.Errorf("expected B Underweight, got %v", sig.Signals["B"])
	}
}

func mkBar(close float64) market.MarketData {
	return market.MarketData{
		Open: kernel.NewFromFloat(close), High: kernel.NewFromFloat(close),
		Low: kernel.NewFromFloat(close), Close: kernel.NewFromFloat(close),
		AdjClose: kernel.NewFromFloat(close), Volume: 100,
		DividendPerShare: kernel.Zero, SplitCoefficient: kernel.One,
	}
}

func TestComputeTotalValueConvertsCurrency(t *testing.T) {
	s, err := New("s1", "USD", map[string]string{"SAP": "EUR"},
		map[string]kernel.Decimal{"USD": kernel.NewFromFloat(100)},
		EqualWeightSizer{}, MarketPriceCalc{}, NewBuyAndHold())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Positions["SAP"] = 10

	hist := history.NewMarketHistory()
	fx := history.NewFXHistory()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := hist.Append(d0, map[string]market.MarketData{"SAP": mkBar(20)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := fx.Append(d0, map[string]kernel.Decimal{"EUR": kernel.NewFromFloat(0.9)}); err != nil {
		t.Fatalf("append fx: %v", err)
	}

	total, err := s.ComputeTotalValue(d0, hist, fx)
	if err != nil {
		t.Fatalf("ComputeTotalValue: %v", err)
	}
	// 10 shares * 20 EUR = 200 EUR; 200 / 0.9 = 222.22... USD; plus 100 cash.
	got, _ := total.Float64()
	want := 200.0/0.9 + 100.0
	if diff := got - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("total = %v, want ~%v", got, want)
	}
}

func TestComputeTotalValueMissingFxRate(t *testing.T) {
	s, err := New("s1", "USD", map[string]string{"SAP": "EUR"}, nil,
		EqualWeightSizer{}, MarketPriceCalc{}, NewBuyAndHold())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Positions["SAP"] = 10

	hist := history.NewMarketHistory()
	fx := history.NewFXHistory()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := hist.Append(d0, map[string]market.MarketData{"SAP": mkBar(20)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err = s.ComputeTotalValue(d0, hist, fx)
	if kind, ok := kernel.KindOf(err); !ok || kind != kernel.MissingFxRate {
		t.Fatalf("expected MissingFxRate, got %v", err)
	}
}
