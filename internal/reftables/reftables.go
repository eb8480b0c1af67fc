// Package reftables holds the immutable reference master the simulation
// consumes but never persists: asset to currency, exchange metadata and
// holiday calendars, and currency code lookups. Persistence of this master
// is an external collaborator's job (spec §1); this package only supplies
// an in-memory, constructor-built view of it, adapted from the teacher's
// exchange_repo.go / security_type_repo.go lookup-table shape.
package reftables

import (
	"sort"
	"time"

	"github.com/epeers/backtester/internal/kernel"
)

// Exchange describes a trading venue's city, country, and holiday calendar.
type Exchange struct {
	Name     string
	City     string
	Country  string
	Holidays map[string]bool // "YYYY-MM-DD" -> observed
}

// Currency describes an ISO 4217 currency code's numeric code and symbol.
type Currency struct {
	Code   string
	Number int
	Symbol string
}

// Tables is the immutable, read-only lookup set the core depends on. All
// fields are populated once at construction and never mutated afterward,
// so Tables is safe to share across strategies and portfolios without
// synchronization.
type Tables struct {
	assetCurrency map[string]string
	exchanges     map[string]Exchange
	currencies    map[string]Currency
}

// New builds a Tables from plain maps/slices — the shape a persistence
// layer (out of scope for the core) would hand back after loading the
// reference master.
func New(assetCurrency map[string]string, exchanges []Exchange, currencies []Currency) *Tables {
	t := &Tables{
		assetCurrency: make(map[string]string, len(assetCurrency)),
		exchanges:     make(map[string]Exchange, len(exchanges)),
		currencies:    make(map[string]Currency, len(currencies)),
	}
	for k, v := range assetCurrency {
		t.assetCurrency[k] = v
	}
	for _, e := range exchanges {
		t.exchanges[e.Name] = e
	}
	for _, c := range currencies {
		t.currencies[c.Code] = c
	}
	return t
}

// CurrencyOf returns the currency an asset is priced in.
func (t *Tables) CurrencyOf(asset string) (string, bool) {
	c, ok := t.assetCurrency[asset]
	return c, ok
}

// Exchange looks up an exchange by name.
func (t *Tables) Exchange(name string) (Exchange, bool) {
	e, ok := t.exchanges[name]
	return e, ok
}

// Currency looks up a currency by ISO 4217 code.
func (t *Tables) Currency(code string) (Currency, bool) {
	c, ok := t.currencies[code]
	return c, ok
}

// IsHoliday reports whether date is on the exchange's holiday calendar.
// Weekends are not in the calendar and report false.
func (e Exchange) IsHoliday(date time.Time) bool {
	return e.Holidays[date.Format("2006-01-02")]
}

// NextTradingDay returns the next business day on which the exchange is
// open, skipping weekends and the exchange's holiday calendar. Adapted
// from the teacher's util.NextMarketDate, generalized from a hardcoded
// America/New_York 4:30pm cutoff to a pure calendar-date walk since the
// core never reasons about wall-clock time (spec §3: "A calendar date (no
// wall-clock time)").
func (e Exchange) NextTradingDay(after time.Time) time.Time {
	next := kernel.NormalizeDate(after).AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday || e.IsHoliday(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// SortedHolidays returns the exchange's holiday dates in ascending order,
// for diagnostics and tests.
func (e Exchange) SortedHolidays() []string {
	out := make([]string, 0, len(e.Holidays))
	for d := range e.Holidays {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
