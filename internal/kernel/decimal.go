// Package kernel implements the fixed-point decimal type and the statistical
// primitives the rest of the simulation is built on. Every function here is
// pure: no I/O, no logging, no context.Context.
package kernel

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decimal is the fixed-scale decimal type used throughout the accounting
// paths of the simulation (prices, FX rates, cash, positions' monetary
// value). Binary floating point is never used for money.
type Decimal = decimal.Decimal

// Scale conventions from the data model: prices carry 2-6 digits after the
// point, FX rates 6, and returns at least 10 for the round-trip property
// (equityCurve(dailyReturns(e)) == e) to hold up to documented precision.
const (
	ScalePrice  int32 = 6
	ScaleFX     int32 = 6
	ScaleReturn int32 = 12
)

// Zero and One are convenience constants mirroring decimal.Zero/decimal.New(1,0).
var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)
)

// NewFromFloat builds a Decimal from a float64 literal (used for literal
// test fixtures and config values, never for accumulated accounting state).
func NewFromFloat(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// NewFromInt builds a Decimal from an integer share count or similar.
func NewFromInt(i int64) Decimal {
	return decimal.NewFromInt(i)
}

// Round rounds d to the given scale, rounding halves away from zero. It is
// applied to decimal prices and currency-converted amounts; the float64
// statistical outputs do not pass through it.
func Round(d Decimal, scale int32) Decimal {
	return d.Round(scale)
}

// NormalizeDate truncates a timestamp to a calendar date at UTC midnight.
// The simulation keys everything on date, never wall-clock time; this keeps
// map lookups (historical market/FX maps, equity curve) consistent no
// matter what time-of-day a caller's timestamp carries.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
