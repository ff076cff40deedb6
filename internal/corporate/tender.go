package corporate

import (
	"time"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// settlementLagDays is the trade-settlement lag for the IRR entry leg.
const settlementLagDays = 2

// AdjustTenderOffer computes the economics for a holder tendering their
// full position: how much of the float is presented, accepted and
// prorated back, the post-tender NAV after buyback accretion and expense
// drag, the blended per-share proceeds, and annualized IRRs from each
// live quote (buy at settlement, receive the blend at tender end).
func AdjustTenderOffer(offer domain.TenderOffer, estNav, last, bid, ask *float64, now time.Time) *domain.TenderResult {
	if estNav == nil || *estNav == 0 {
		return nil
	}

	presented := offer.InstHoldingPct*offer.InstTenderRate +
		offer.RetailHoldingPct*offer.RetailTenderRate
	if presented <= 0 {
		return nil
	}
	accepted := offer.SharesSoughtPct
	if presented < accepted {
		accepted = presented
	}
	returnedFrac := (presented - accepted) / presented
	acceptedFrac := 1 - returnedFrac

	tenderPrice := *estNav * (1 - offer.TenderDiscount)

	// Per-share accretion on a normalized share count of 1.
	remaining := 1 - accepted
	if remaining <= 0 {
		return nil
	}
	postNav := (*estNav - tenderPrice*accepted) / remaining * (1 - offer.ExpenseDrag)
	postPrice := postNav * (1 + offer.PostTenderDiscount)

	finalPrice := acceptedFrac*tenderPrice + returnedFrac*postPrice
	if !finmath.AllFinite(presented, accepted, returnedFrac, tenderPrice, postNav, postPrice, finalPrice) {
		return nil
	}

	res := &domain.TenderResult{
		TenderedPct: presented,
		AcceptedPct: accepted,
		ReturnedPct: returnedFrac,
		PostNav:     postNav,
		FinalPrice:  finalPrice,
	}

	settle := finmath.AddBusinessDays(now, settlementLagDays)
	if offer.EndDate.After(settle) {
		res.IRRLast = tenderIRR(last, finalPrice, settle, offer.EndDate)
		res.IRRBid = tenderIRR(bid, finalPrice, settle, offer.EndDate)
		res.IRRAsk = tenderIRR(ask, finalPrice, settle, offer.EndDate)
	}
	return res
}

// tenderIRR solves the two-flow XIRR: pay price at settlement, receive
// the blended proceeds at tender end.
func tenderIRR(price *float64, finalPrice float64, settle, end time.Time) *float64 {
	if price == nil || *price <= 0 {
		return nil
	}
	irr, err := finmath.XIRR([]finmath.CashFlow{
		{Date: settle, Amount: -*price},
		{Date: end, Amount: finalPrice},
	})
	if err != nil || !finmath.Finite(irr) {
		return nil
	}
	return finmath.Ptr(irr)
}
