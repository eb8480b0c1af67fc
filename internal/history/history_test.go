package history

import (
	"testing"
	"time"

	"github.com/epeers/backtester/internal/kernel"
	"github.com/epeers/backtester/internal/market"
)

func mkMD(close float64) market.MarketData {
	return market.MarketData{
		Open: kernel.NewFromFloat(close), High: kernel.NewFromFloat(close),
		Low: kernel.NewFromFloat(close), Close: kernel.NewFromFloat(close),
		AdjClose: kernel.NewFromFloat(close), Volume: 100,
		DividendPerShare: kernel.Zero, SplitCoefficient: kernel.One,
	}
}

func TestMarketHistoryRejectsOutOfOrder(t *testing.T) {
	h := NewMarketHistory()
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := h.Append(d0, map[string]market.MarketData{"A": mkMD(10)}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	err := h.Append(d1, map[string]market.MarketData{"A": mkMD(11)})
	kind, ok := kernel.KindOf(err)
	if !ok || kind != kernel.OutOfOrderBar {
		t.Fatalf("expected OutOfOrderBar, got %v", err)
	}
}

func TestMarketHistoryWindow(t *testing.T) {
	h := NewMarketHistory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := []float64{10, 11, 12, 13, 14}
	for i, p := range prices {
		if err := h.Append(base.AddDate(0, 0, i), map[string]market.MarketData{"A": mkMD(p)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	window := h.Window("A", base.AddDate(0, 0, 4), 3)
	if len(window) != 3 {
		t.Fatalf("expected window of 3, got %d", len(window))
	}
	wantCloses := []float64{12, 13, 14}
	for i, md := range window {
		got, _ := md.Close.Float64()
		if got != wantCloses[i] {
			t.Errorf("window[%d] = %v, want %v", i, got, wantCloses[i])
		}
	}
}

func TestMarketHistoryAdjustAsset(t *testing.T) {
	h := NewMarketHistory()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := h.Append(d0, map[string]market.MarketData{"A": mkMD(10)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	h.AdjustAsset("A", kernel.NewFromFloat(2))

	snap, ok := h.At(d0)
	if !ok {
		t.Fatal("expected snapshot to exist")
	}
	got, _ := snap["A"].Close.Float64()
	if got != 5 {
		t.Errorf("adjusted close = %v, want 5", got)
	}
}

func TestMarketHistoryLatest(t *testing.T) {
	h := NewMarketHistory()
	if _, _, ok := h.Latest(); ok {
		t.Fatal("expected Latest to report false on empty history")
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := h.Append(base, map[string]market.MarketData{"A": mkMD(10)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := h.Append(base.AddDate(0, 0, 1), map[string]market.MarketData{"A": mkMD(11)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	date, snap, ok := h.Latest()
	if !ok || !date.Equal(base.AddDate(0, 0, 1)) {
		t.Fatalf("Latest date = %v, ok=%v, want %v", date, ok, base.AddDate(0, 0, 1))
	}
	got, _ := snap["A"].Close.Float64()
	if got != 11 {
		t.Errorf("Latest close = %v, want 11", got)
	}
}

func TestFXHistoryAtAndOutOfOrder(t *testing.T) {
	h := NewFXHistory()
	d0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := h.Append(d0, map[string]kernel.Decimal{"EUR": kernel.NewFromFloat(0.9)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := h.Append(d1, map[string]kernel.Decimal{"EUR": kernel.NewFromFloat(1.0)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	snap, ok := h.At(d0)
	if !ok {
		t.Fatal("expected snapshot at d0")
	}
	rate, _ := snap["EUR"].Float64()
	if rate != 0.9 {
		t.Errorf("rate = %v, want 0.9", rate)
	}

	err := h.Append(d0, map[string]kernel.Decimal{"EUR": kernel.NewFromFloat(0.95)})
	if kind, ok := kernel.KindOf(err); !ok || kind != kernel.OutOfOrderBar {
		t.Fatalf("expected OutOfOrderBar, got %v", err)
	}
}
