// Package market defines the bar-shaped data the simulation consumes and
// the abstract MarketDataFetcher contract the core depends on but never
// implements. Vendor clients, CSV readers, and caches are deliberately
// external collaborators (spec §1) — this package only describes the shape
// they must produce.
package market

import (
	"time"

	"github.com/epeers/backtester/internal/kernel"
)

// MarketData is one (asset, date) observation.
type MarketData struct {
	Date             time.Time
	Open             kernel.Decimal
	High             kernel.Decimal
	Low              kernel.Decimal
	Close            kernel.Decimal
	AdjClose         kernel.Decimal
	Volume           int64
	DividendPerShare kernel.Decimal
	SplitCoefficient kernel.Decimal
}

// Validate enforces the invariants from the data model: all prices > 0,
// volume >= 0, dividendPerShare >= 0, splitCoefficient > 0 (1 = no split).
func (m MarketData) Validate() error {
	for _, p := range []kernel.Decimal{m.Open, m.High, m.Low, m.Close, m.AdjClose} {
		if !p.IsPositive() {
			return kernel.NewError(kernel.InvalidQuantity, "market data prices must be positive")
		}
	}
	if m.Volume < 0 {
		return kernel.NewError(kernel.InvalidQuantity, "market data volume must be non-negative")
	}
	if m.DividendPerShare.IsNegative() {
		return kernel.NewError(kernel.InvalidQuantity, "dividendPerShare must be non-negative")
	}
	if !m.SplitCoefficient.IsPositive() {
		return kernel.NewError(kernel.InvalidQuantity, "splitCoefficient must be positive")
	}
	return nil
}

// HasSplit reports whether this bar carries a non-trivial split.
func (m MarketData) HasSplit() bool {
	return !m.SplitCoefficient.Equal(kernel.One)
}

// HasDividend reports whether this bar carries a dividend payment.
func (m MarketData) HasDividend() bool {
	return m.DividendPerShare.IsPositive()
}

// Adjusted returns a copy of m with open/high/low/close/adjClose divided by
// ratio and volume multiplied by ratio — the retroactive split adjustment
// applied to every historical bar on a split event (§4.D step 5b, §9 open
// question 4: this core adopts retroactive adjustment).
func (m MarketData) Adjusted(ratio kernel.Decimal) MarketData {
	adjusted := m
	adjusted.Open = kernel.Round(m.Open.Div(ratio), kernel.ScalePrice)
	adjusted.High = kernel.Round(m.High.Div(ratio), kernel.ScalePrice)
	adjusted.Low = kernel.Round(m.Low.Div(ratio), kernel.ScalePrice)
	adjusted.Close = kernel.Round(m.Close.Div(ratio), kernel.ScalePrice)
	adjusted.AdjClose = kernel.Round(m.AdjClose.Div(ratio), kernel.ScalePrice)
	ratioFloat, _ := ratio.Float64()
	adjusted.Volume = int64(float64(m.Volume) * ratioFloat)
	return adjusted
}

// Event is one bar's worth of observations across every tracked asset, plus
// the FX snapshot needed to value non-base-currency positions that day.
type Event struct {
	Date   time.Time
	Prices map[string]MarketData
	FX     map[string]kernel.Decimal // currency code -> rate, keyed per fxSnapshot convention
}

// Fetcher is the abstract market-data source the simulation driver consumes.
// Implementations (vendor clients, CSV readers, caches) live outside the
// core; this interface is the only contract the core depends on.
type Fetcher interface {
	// FetchMarketData returns a channel of bars for the given assets, sorted
	// strictly ascending by date. The channel is closed when the stream is
	// exhausted. A non-nil error sent on the error channel aborts the run.
	FetchMarketData(assets []string) (<-chan DatedPrices, <-chan error)

	// FetchFxRates returns a channel of FX snapshots for the given currency
	// pairs, sorted strictly ascending by date.
	FetchFxRates(pairs []CurrencyPair) (<-chan DatedRates, <-chan error)
}

// DatedPrices is one bar of the price stream.
type DatedPrices struct {
	Date   time.Time
	Prices map[string]MarketData
}

// DatedRates is one bar of the FX stream.
type DatedRates struct {
	Date  time.Time
	Rates map[string]kernel.Decimal
}

// CurrencyPair names a base/quote pair requested from the FX stream. The
// base currency is implied by the caller (the portfolio's base currency);
// Quote is the non-base currency being priced against it.
type CurrencyPair struct {
	Base  string
	Quote string
}
