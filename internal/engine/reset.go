package engine

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// reset re-seeds the forecast's per-cycle baseline from the latest
// published NAV: copies the NAV fields, folds preferred redemption value
// into the dividend-adjusted baseline when it is not already embedded,
// backs out dividends declared since the NAV date, derives the
// UNII-to-NAV ratio and the fund's market value in USD. Missing inputs
// leave fields unset.
func (e *Engine) reset(sec domain.SecurityMaster, nav domain.PublishedNav, hasNav bool, f *domain.Forecast) {
	if !hasNav || nav.Nav == nil {
		f.LastNav = nil
		f.DivAdjNav = nil
		f.UNIIToNav = nil
		e.computeMarketValue(sec, nav, f)
		return
	}

	f.LastNav = nav.Nav
	f.LastNavDate = nav.NavDate

	divAdj := *nav.Nav
	if red, ok := e.store.Redemptions.Get(sec.Ticker); ok && !red.IncludedInNav {
		if red.PrefRedemptionVal != nil && red.PrefRatio != nil {
			divAdj += *red.PrefRedemptionVal * *red.PrefRatio
		}
	}
	if nav.ExDivSinceNav != nil {
		divAdj -= *nav.ExDivSinceNav
	}
	f.DivAdjNav = finmath.Ptr(divAdj)

	if nav.UNIIBalance != nil {
		if r, ok := finmath.SafeDiv(*nav.UNIIBalance, *nav.Nav); ok {
			f.UNIIToNav = finmath.Ptr(r)
		}
	}

	e.computeMarketValue(sec, nav, f)
}

// computeMarketValue sets MktValUSD = shares outstanding (millions) x last
// price, converted into USD with the GBp pence special case.
func (e *Engine) computeMarketValue(sec domain.SecurityMaster, nav domain.PublishedNav, f *domain.Forecast) {
	f.MktValUSD = nil
	if nav.SharesOutstanding == nil {
		return
	}
	price, ok := e.store.PriceFor(sec.Ticker)
	if !ok || price.Last == nil {
		return
	}
	local := *nav.SharesOutstanding * *price.Last
	usd, ok := e.store.Fx().ToUSD(local, sec.Currency)
	if !ok || !finmath.Finite(usd) {
		return
	}
	f.MktValUSD = finmath.Ptr(usd)
}
