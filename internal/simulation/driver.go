// Package simulation implements the driver described in spec.md §4.E: it
// merges a market-data fetcher's price and FX streams by date, builds one
// MarketEvent per bar, and dispatches it to a trading portfolio and a
// benchmark portfolio. Cross-portfolio dispatch may run concurrently via
// golang.org/x/sync/errgroup, mirroring the teacher's own use of errgroup
// for concurrent request fan-out, since the two portfolios only share
// read-only historical tables and immutable market events (§5).
package simulation

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/epeers/backtester/internal/engine"
	"github.com/epeers/backtester/internal/kernel"
	"github.com/epeers/backtester/internal/market"
)

// Driver runs one backtest: a bounded date range over a market-data fetcher,
// dispatched to a trading portfolio and a benchmark portfolio.
type Driver struct {
	Fetcher      market.Fetcher
	BaseCurrency string
	Start        time.Time
	End          time.Time
	// Parallel dispatches the trading and benchmark portfolios concurrently
	// for each bar, via errgroup, instead of sequentially.
	Parallel bool

	log *log.Entry
}

// New builds a Driver over the given date range (inclusive on both ends).
func New(fetcher market.Fetcher, baseCurrency string, start, end time.Time, parallel bool) *Driver {
	return &Driver{
		Fetcher:      fetcher,
		BaseCurrency: baseCurrency,
		Start:        kernel.NormalizeDate(start),
		End:          kernel.NormalizeDate(end),
		Parallel:     parallel,
		log:          log.WithFields(log.Fields{"component": "simulation.Driver"}),
	}
}

// Run executes the full simulation: collects the union of assets and
// currency pairs both portfolios need, pre-materializes the FX stream into a
// map, then iterates the price stream in date order dispatching a
// MarketEvent per bar to both portfolios and sampling each one's equity
// curve afterward (§4.E steps 1-6).
func (d *Driver) Run(ctx context.Context, trading, benchmark *engine.Portfolio) error {
	assets := unionAssets(trading, benchmark)
	pairs := currencyPairs(d.BaseCurrency, trading, benchmark)

	fxByDate, err := d.materializeFx(pairs)
	if err != nil {
		return err
	}

	priceCh, priceErrCh := d.Fetcher.FetchMarketData(assets)
	for priceCh != nil || priceErrCh != nil {
		select {
		case bar, ok := <-priceCh:
			if !ok {
				priceCh = nil
				continue
			}
			date := kernel.NormalizeDate(bar.Date)
			if date.Before(d.Start) || date.After(d.End) {
				continue
			}
			fx := fxByDate[date]
			if fx == nil {
				fx = map[string]kernel.Decimal{}
			}
			me := market.Event{Date: date, Prices: bar.Prices, FX: fx}
			if err := d.dispatch(ctx, me, trading, benchmark); err != nil {
				return err
			}
		case err, ok := <-priceErrCh:
			if !ok {
				priceErrCh = nil
				continue
			}
			if err != nil {
				return d.fetchFailure("market data", err)
			}
		}
	}
	return nil
}

func (d *Driver) materializeFx(pairs []market.CurrencyPair) (map[time.Time]map[string]kernel.Decimal, error) {
	fxCh, fxErrCh := d.Fetcher.FetchFxRates(pairs)
	fxByDate := make(map[time.Time]map[string]kernel.Decimal)
	for fxCh != nil || fxErrCh != nil {
		select {
		case rates, ok := <-fxCh:
			if !ok {
				fxCh = nil
				continue
			}
			fxByDate[kernel.NormalizeDate(rates.Date)] = rates.Rates
		case err, ok := <-fxErrCh:
			if !ok {
				fxErrCh = nil
				continue
			}
			if err != nil {
				return nil, d.fetchFailure("fx rates", err)
			}
		}
	}
	return fxByDate, nil
}

func (d *Driver) dispatch(ctx context.Context, me market.Event, trading, benchmark *engine.Portfolio) error {
	if !d.Parallel {
		if err := trading.HandleMarketEvent(me); err != nil {
			return err
		}
		if err := benchmark.HandleMarketEvent(me); err != nil {
			return err
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() error { return trading.HandleMarketEvent(me) })
		g.Go(func() error { return benchmark.HandleMarketEvent(me) })
		if err := g.Wait(); err != nil {
			return err
		}
	}
	if err := trading.UpdateEquityCurve(me.Date); err != nil {
		return err
	}
	return benchmark.UpdateEquityCurve(me.Date)
}

func (d *Driver) fetchFailure(stream string, cause error) error {
	d.log.WithError(cause).Errorf("%s fetch failed", stream)
	return kernel.NewErrorWithContext(kernel.FetcherFailure, stream+" fetch failed", map[string]any{"cause": cause.Error()})
}

func unionAssets(portfolios ...*engine.Portfolio) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range portfolios {
		for _, asset := range p.Assets() {
			if seen[asset] {
				continue
			}
			seen[asset] = true
			out = append(out, asset)
		}
	}
	return out
}

func currencyPairs(baseCurrency string, portfolios ...*engine.Portfolio) []market.CurrencyPair {
	seen := make(map[string]bool)
	var out []market.CurrencyPair
	for _, p := range portfolios {
		for _, currency := range p.Currencies() {
			if seen[currency] {
				continue
			}
			seen[currency] = true
			out = append(out, market.CurrencyPair{Base: baseCurrency, Quote: currency})
		}
	}
	return out
}
