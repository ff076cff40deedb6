// Package corporate models corporate-action economics: rights-offer
// dilution, tender-offer proration and IRR, and scheduled-redemption IRR.
package corporate

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// AdjustRightsOffer computes the dilution-adjusted post-offer valuation
// set: shares issued, subscription price, post-offer NAV and price, NAV
// dilution and post-offer discount. The whole set is discarded when any
// required input is missing or any intermediate goes non-finite.
func AdjustRightsOffer(offer domain.RightsOffer, shares, estNav, price *float64) *domain.RightsResult {
	if shares == nil || estNav == nil || price == nil {
		return nil
	}
	if *shares <= 0 || *estNav == 0 {
		return nil
	}

	subPrice, ok := subscriptionPrice(offer, *estNav, *price)
	if !ok {
		return nil
	}

	issued := *shares * offer.SubRatio * (1 + offer.OverSubRatio)
	totalShares := *shares + issued
	if totalShares <= 0 {
		return nil
	}

	postNav := (*shares**estNav + issued*subPrice) / totalShares
	postPrice := (*shares**price + issued*subPrice) / totalShares
	dilution, ok := finmath.SafeDiv(postNav, *estNav)
	if !ok {
		return nil
	}
	dilution -= 1
	postDiscount, ok := finmath.Discount(postPrice, postNav)
	if !ok {
		return nil
	}

	if !finmath.AllFinite(issued, subPrice, postNav, postPrice, dilution, postDiscount) {
		return nil
	}
	return &domain.RightsResult{
		SharesIssued: issued,
		SubPrice:     subPrice,
		PostNav:      postNav,
		PostPrice:    postPrice,
		DilutionPct:  dilution,
		PostDiscount: postDiscount,
	}
}

// subscriptionPrice resolves the strike: the announced price when known,
// otherwise the discount applied to the configured basis.
func subscriptionPrice(offer domain.RightsOffer, estNav, price float64) (float64, bool) {
	if offer.KnownSubPrice != nil {
		return *offer.KnownSubPrice, finmath.Finite(*offer.KnownSubPrice)
	}
	basis := price
	if offer.Basis == domain.BasisNAV {
		basis = estNav
	}
	sub := basis * (1 - offer.DiscountPct)
	return sub, finmath.Finite(sub)
}
