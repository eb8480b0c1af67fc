// Package history implements the append-only, date-ordered containers that
// back a portfolio's historical market and FX maps (§3, §9: "Historical
// maps as append-only ordered containers with O(log n) lookup by date;
// indexed views over the last-k entries used by the sizer for
// momentum-style strategies"). Both containers reject an out-of-order
// append rather than silently reordering, matching §4.D.1a.
package history

import (
	"sort"
	"time"

	"github.com/epeers/backtester/internal/kernel"
	"github.com/epeers/backtester/internal/market"
)

// MarketHistory is the portfolio's append-only record of every MarketEvent
// price snapshot it has seen, keyed by strictly increasing date.
type MarketHistory struct {
	dates     []time.Time
	snapshots []map[string]market.MarketData
}

// NewMarketHistory builds an empty market history.
func NewMarketHistory() *MarketHistory {
	return &MarketHistory{}
}

// Append records a bar's price snapshot. The date must be strictly after
// the most recently appended date.
func (h *MarketHistory) Append(date time.Time, snapshot map[string]market.MarketData) error {
	date = kernel.NormalizeDate(date)
	if len(h.dates) > 0 && !date.After(h.dates[len(h.dates)-1]) {
		return kernel.NewErrorWithContext(kernel.OutOfOrderBar, "market bar is not strictly after the last recorded date",
			map[string]any{"date": date, "lastDate": h.dates[len(h.dates)-1]})
	}
	// Store a private copy: AdjustAsset rewrites stored bars in place, and the
	// caller's map may be shared with other portfolios.
	owned := make(map[string]market.MarketData, len(snapshot))
	for asset, md := range snapshot {
		owned[asset] = md
	}
	h.dates = append(h.dates, date)
	h.snapshots = append(h.snapshots, owned)
	return nil
}

// indexOf returns the position of date via binary search over the ordered
// date slice, since Append guarantees ascending order.
func (h *MarketHistory) indexOf(date time.Time) (int, bool) {
	date = kernel.NormalizeDate(date)
	i := sort.Search(len(h.dates), func(i int) bool { return !h.dates[i].Before(date) })
	if i < len(h.dates) && h.dates[i].Equal(date) {
		return i, true
	}
	return 0, false
}

// At returns the price snapshot recorded for date, if any.
func (h *MarketHistory) At(date time.Time) (map[string]market.MarketData, bool) {
	i, ok := h.indexOf(date)
	if !ok {
		return nil, false
	}
	return h.snapshots[i], true
}

// Latest returns the most recently appended date and snapshot.
func (h *MarketHistory) Latest() (time.Time, map[string]market.MarketData, bool) {
	if len(h.dates) == 0 {
		return time.Time{}, nil, false
	}
	last := len(h.dates) - 1
	return h.dates[last], h.snapshots[last], true
}

// Window returns up to the last n MarketData observations for asset, in
// ascending date order, ending at (and including) asOf. Missing bars for
// that asset are skipped. Used by momentum-style sizers that need a
// trailing lookback window rather than a single bar.
func (h *MarketHistory) Window(asset string, asOf time.Time, n int) []market.MarketData {
	end, ok := h.indexOf(asOf)
	if !ok {
		return nil
	}
	var out []market.MarketData
	for i := end; i >= 0 && len(out) < n; i-- {
		if md, ok := h.snapshots[i][asset]; ok {
			out = append(out, md)
		}
	}
	// reverse into ascending order
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// AdjustAsset retroactively divides open/high/low/close/adjClose by ratio
// and multiplies volume by ratio for every historical bar of asset, per
// §4.D step 5b's retroactive split-adjustment policy.
func (h *MarketHistory) AdjustAsset(asset string, ratio kernel.Decimal) {
	for i, snapshot := range h.snapshots {
		if md, ok := snapshot[asset]; ok {
			h.snapshots[i][asset] = md.Adjusted(ratio)
		}
	}
}

// FXHistory is the portfolio's append-only record of every MarketEvent's
// FX snapshot, keyed by strictly increasing date.
type FXHistory struct {
	dates     []time.Time
	snapshots []map[string]kernel.Decimal
}

// NewFXHistory builds an empty FX history.
func NewFXHistory() *FXHistory {
	return &FXHistory{}
}

// Append records a bar's FX snapshot. The date must be strictly after the
// most recently appended date.
func (h *FXHistory) Append(date time.Time, snapshot map[string]kernel.Decimal) error {
	date = kernel.NormalizeDate(date)
	if len(h.dates) > 0 && !date.After(h.dates[len(h.dates)-1]) {
		return kernel.NewErrorWithContext(kernel.OutOfOrderBar, "fx bar is not strictly after the last recorded date",
			map[string]any{"date": date, "lastDate": h.dates[len(h.dates)-1]})
	}
	h.dates = append(h.dates, date)
	h.snapshots = append(h.snapshots, snapshot)
	return nil
}

func (h *FXHistory) indexOf(date time.Time) (int, bool) {
	date = kernel.NormalizeDate(date)
	i := sort.Search(len(h.dates), func(i int) bool { return !h.dates[i].Before(date) })
	if i < len(h.dates) && h.dates[i].Equal(date) {
		return i, true
	}
	return 0, false
}

// At returns the FX snapshot recorded for date, if any.
func (h *FXHistory) At(date time.Time) (map[string]kernel.Decimal, bool) {
	i, ok := h.indexOf(date)
	if !ok {
		return nil, false
	}
	return h.snapshots[i], true
}
