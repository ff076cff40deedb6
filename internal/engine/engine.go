// Package engine implements the per-cycle NAV estimation and discount
// pipeline: reset, accrued interest, the return estimators, the hierarchy
// resolver, corporate-action adjustments and statistical scoring, all
// writing into each security's forecast record.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/corporate"
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/proxy"
	"github.com/fundscope/navcast/internal/store"
	"github.com/fundscope/navcast/internal/telemetry"
)

// Engine runs the valuation pipeline over the tracked universe. It is
// batch-sequential: one ticker at a time, reading the shared tables and
// writing only to that ticker's forecast. Overlapping Calculate calls are
// the caller's responsibility to prevent (see scheduler).
type Engine struct {
	store    *store.Store
	resolver *proxy.Resolver
	metrics  *telemetry.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// CycleResult summarizes one Calculate pass.
type CycleResult struct {
	CycleID    string
	Calculated int
	Failed     int
	Duration   time.Duration
}

// New wires an engine over its store. metrics may be nil in tests.
func New(st *store.Store, metrics *telemetry.Metrics, log zerolog.Logger) *Engine {
	return &Engine{
		store:    st,
		resolver: proxy.NewResolver(st, log),
		metrics:  metrics,
		log:      log.With().Str("component", "engine").Logger(),
		now:      time.Now,
	}
}

// SetClock overrides the engine clock; tests pin time with it.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Store exposes the underlying entity store to collaborators (loaders,
// HTTP snapshot handlers).
func (e *Engine) Store() *store.Store { return e.store }

// Start is the slow initialization pass: it drops and rebuilds the proxy
// dependency caches from the current formula strings and makes sure every
// tracked security has a forecast record. Run after definitional changes
// (new or edited formulas, offers) and at process start.
func (e *Engine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tickers := e.store.Securities.Keys()
	e.resolver.Invalidate()
	parsed := e.resolver.Warm(tickers)
	for _, t := range tickers {
		e.store.ForecastFor(t)
	}
	e.log.Info().Int("securities", len(tickers)).Int("formulas_parsed", parsed).
		Msg("dependency maps rebuilt")
	return nil
}

// MarkProxyDirty forces a reparse of one ticker's formula of the given
// kind on the next pass. Write paths that edit formulas or offer terms
// call these so the next Calculate picks the change up.
func (e *Engine) MarkProxyDirty(ticker string, kind domain.ProxyKind) {
	e.store.MarkFormulaDirty(ticker, kind)
}

// Calculate runs one full pass over every tracked security. Per-ticker
// failures are logged and isolated; the pass always visits the whole
// universe.
func (e *Engine) Calculate(ctx context.Context) (CycleResult, error) {
	start := e.now()
	cycleID := uuid.NewString()

	tickers := e.store.Securities.Keys()
	sort.Strings(tickers)

	res := CycleResult{CycleID: cycleID}
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := e.calculateOne(cycleID, ticker); err != nil {
			res.Failed++
			e.log.Error().Err(err).Str("ticker", ticker).Str("cycle_id", cycleID).
				Msg("ticker calculation failed, keeping previous values")
			continue
		}
		res.Calculated++
	}
	res.Duration = e.now().Sub(start)
	e.metrics.ObserveCycle(res.Duration, res.Calculated, res.Failed)

	e.log.Info().Str("cycle_id", cycleID).
		Int("calculated", res.Calculated).Int("failed", res.Failed).
		Dur("duration", res.Duration).Msg("calculate pass complete")
	return res, nil
}

// calculateOne runs the full stage sequence for a single ticker.
func (e *Engine) calculateOne(cycleID, ticker string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	sec, ok := e.store.Securities.Get(ticker)
	if !ok {
		return fmt.Errorf("no security master for %s", ticker)
	}
	f := e.store.ForecastFor(ticker)
	f.ResetCycle()

	nav, hasNav := e.store.Navs.Get(ticker)

	e.reset(sec, nav, hasNav, f)
	e.accrueInterest(sec, nav, hasNav, f)
	e.runEstimators(sec, f)
	e.resolveHierarchy(sec, nav, hasNav, f)
	e.applyRightsOffer(sec, f)
	e.computeDiscounts(sec, nav, hasNav, f)
	e.scoreDiscount(sec, nav, f)
	e.computeRedemptionIRR(sec, f)
	e.applyTenderOffer(sec, f)
	e.computeExpectedAlpha(sec, f)

	f.CycleID = cycleID
	f.CalculatedAt = e.now()
	e.store.PublishSnapshot(f)
	return nil
}

// applyRightsOffer delegates to the corporate adjuster. No offer on file
// clears the adjusted set.
func (e *Engine) applyRightsOffer(sec domain.SecurityMaster, f *domain.Forecast) {
	offer, ok := e.store.RightsOffers.Get(sec.Ticker)
	if !ok {
		f.Rights = nil
		return
	}
	nav, _ := e.store.Navs.Get(sec.Ticker)
	last, _, _ := e.stackedQuotes(sec)
	f.Rights = corporate.AdjustRightsOffer(offer, nav.SharesOutstanding, f.EstNav, last)
}

// applyTenderOffer delegates to the corporate adjuster.
func (e *Engine) applyTenderOffer(sec domain.SecurityMaster, f *domain.Forecast) {
	offer, ok := e.store.TenderOffers.Get(sec.Ticker)
	if !ok {
		f.Tender = nil
		return
	}
	last, bid, ask := e.stackedQuotes(sec)
	f.Tender = corporate.AdjustTenderOffer(offer, f.EstNav, last, bid, ask, e.now())
}

// computeRedemptionIRR solves the XIRR for securities with a scheduled
// redemption ahead of them.
func (e *Engine) computeRedemptionIRR(sec domain.SecurityMaster, f *domain.Forecast) {
	red, ok := e.store.Redemptions.Get(sec.Ticker)
	if !ok {
		return
	}
	price, ok := e.store.PriceFor(sec.Ticker)
	if !ok || price.Last == nil {
		return
	}
	f.RedemptionIRR = corporate.RedemptionIRR(red, *price.Last, f.EstNav, e.now())
}
