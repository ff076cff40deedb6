package engine

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// bdcExceptionTicker also gets the discount-to-published-NAV set despite
// not being classified as a BDC.
const bdcExceptionTicker = "ACP"

// stackedQuotes returns last/bid/ask for a security with the
// preferred-share price stacked on at its conversion ratio when the
// security carries a convertible preferred line.
func (e *Engine) stackedQuotes(sec domain.SecurityMaster) (last, bid, ask *float64) {
	price, ok := e.store.PriceFor(sec.Ticker)
	if !ok {
		return nil, nil, nil
	}
	last, bid, ask = price.Last, price.Bid, price.Ask

	red, ok := e.store.Redemptions.Get(sec.Ticker)
	if !ok || red.PreferredTicker == "" || red.ConvRatio == nil {
		return last, bid, ask
	}
	pref, ok := e.store.PriceFor(red.PreferredTicker)
	if !ok || pref.Last == nil {
		return last, bid, ask
	}
	addOn := *pref.Last * *red.ConvRatio
	stack := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		return finmath.Ptr(*p + addOn)
	}
	return stack(last), stack(bid), stack(ask)
}

// computeDiscounts derives the live discount set: last/bid/ask discounts
// to estimated NAV (intrinsic value as fallback), a leverage-unwound
// variant, the parallel published-NAV set for BDCs, and the
// discount-change against the prior valuation date.
func (e *Engine) computeDiscounts(sec domain.SecurityMaster, nav domain.PublishedNav, hasNav bool, f *domain.Forecast) {
	navVal := f.EstNav
	if navVal == nil && hasNav {
		navVal = nav.IntrinsicValue
	}
	if navVal == nil {
		return
	}

	last, bid, ask := e.stackedQuotes(sec)
	f.Discount = discountTo(last, *navVal)
	f.BidDiscount = discountTo(bid, *navVal)
	f.AskDiscount = discountTo(ask, *navVal)

	if f.Discount != nil {
		if d, ok := finmath.SafeDiv(*f.Discount, 1+sec.LeverageRatio); ok {
			f.UnleveredDiscount = finmath.Ptr(d)
		}
	}

	if (sec.AssetType == domain.AssetBDC || sec.Ticker == bdcExceptionTicker) && f.DivAdjNav != nil {
		f.PubDiscount = discountTo(last, *f.DivAdjNav)
		f.PubBidDiscount = discountTo(bid, *f.DivAdjNav)
		f.PubAskDiscount = discountTo(ask, *f.DivAdjNav)
	}

	e.computeDiscountChange(nav, hasNav, f)
}

// computeDiscountChange compares the live discount with the discount
// recorded on the prior valuation date. When the published NAV date has
// not rolled since that valuation, the raw delta would only reflect price
// drift against a stale NAV, so the externally supplied baseline discount
// is used instead.
func (e *Engine) computeDiscountChange(nav domain.PublishedNav, hasNav bool, f *domain.Forecast) {
	if !hasNav || f.Discount == nil || nav.PriorDiscount == nil {
		return
	}
	ref := *nav.PriorDiscount
	if nav.NavDate.Equal(nav.PriorNavDate) && nav.BaselineDiscount != nil {
		ref = *nav.BaselineDiscount
	}
	chg := *f.Discount - ref
	if finmath.Finite(chg) {
		f.DiscountChg = finmath.Ptr(chg)
	}
}

func discountTo(price *float64, nav float64) *float64 {
	if price == nil {
		return nil
	}
	d, ok := finmath.Discount(*price, nav)
	if !ok {
		return nil
	}
	return finmath.Ptr(d)
}
