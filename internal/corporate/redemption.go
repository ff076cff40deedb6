package corporate

import (
	"time"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// RedemptionIRR solves the annualized return from buying at the live
// price (settling T+2) and holding to the next scheduled redemption. The
// redemption proceeds are the preferred redemption value when the terms
// fix one, otherwise the current estimated NAV. Returns nil when the
// ticker is not eligible this cycle.
func RedemptionIRR(red domain.Redemption, lastPrice float64, estNav *float64, now time.Time) *float64 {
	if red.NextRedemptionDate.IsZero() || !red.NextRedemptionDate.After(now) {
		return nil
	}
	if lastPrice <= 0 {
		return nil
	}

	var proceeds float64
	switch {
	case red.PrefRedemptionVal != nil:
		proceeds = *red.PrefRedemptionVal
	case estNav != nil:
		proceeds = *estNav
	default:
		return nil
	}
	if proceeds <= 0 {
		return nil
	}

	settle := finmath.AddBusinessDays(now, settlementLagDays)
	if !red.NextRedemptionDate.After(settle) {
		return nil
	}

	irr, err := finmath.XIRR([]finmath.CashFlow{
		{Date: settle, Amount: -lastPrice},
		{Date: red.NextRedemptionDate, Amount: proceeds},
	})
	if err != nil || !finmath.Finite(irr) {
		return nil
	}
	return finmath.Ptr(irr)
}
