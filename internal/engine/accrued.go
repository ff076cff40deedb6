package engine

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// accrueInterest estimates the daily-accrued NAV add-on for
// income-accruing structures: BDCs, and any security with a configured
// accrual rate. Without an explicit rate the implied rate is derived from
// annualized quarterly NII over fund equity and persisted back onto the
// forecast.
func (e *Engine) accrueInterest(sec domain.SecurityMaster, nav domain.PublishedNav, hasNav bool, f *domain.Forecast) {
	if sec.AssetType != domain.AssetBDC && sec.AccrualRate == nil {
		return
	}
	if !hasNav || nav.Nav == nil {
		return
	}

	rate := 0.0
	switch {
	case sec.AccrualRate != nil:
		rate = *sec.AccrualRate
	case sec.QuarterlyNII != nil && nav.SharesOutstanding != nil:
		r, ok := finmath.SafeDiv(*sec.QuarterlyNII*4, *nav.SharesOutstanding**nav.Nav)
		if !ok {
			return
		}
		rate = r
		f.ImpliedAccrualRate = finmath.Ptr(rate)
	default:
		return
	}

	days := finmath.DaysBetween(nav.NavDate, e.now())
	accrued := days / 366 * *nav.Nav * rate
	if finmath.Finite(accrued) {
		f.AccruedInterest = finmath.Ptr(accrued)
	}
}
