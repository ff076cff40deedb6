package engine

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// resolveHierarchy selects the canonical EstNav/EstRtn from the estimator
// slots. Precedence: an explicit user NAV override beats everything; then
// the security's configured method; if that produced nothing and an
// ETF-regression estimate exists, fall back to it. Tax and management-fee
// drag apply only to positive estimated returns, and the manual additive
// NAV adjustment is applied last, from the unadjusted value.
func (e *Engine) resolveHierarchy(sec domain.SecurityMaster, nav domain.PublishedNav, hasNav bool, f *domain.Forecast) {
	if hasNav && nav.UserNavOverride != nil {
		est := *nav.UserNavOverride
		f.EstNav = finmath.Ptr(est)
		f.UnadjEstNav = finmath.Ptr(est)
		f.NavEstMthd = domain.MethodUserOverride
		if f.DivAdjNav != nil {
			if r, ok := finmath.SafeDiv(est, *f.DivAdjNav); ok {
				f.EstRtn = finmath.Ptr(r - 1)
			}
		}
		e.metrics.ObserveMethod(string(domain.MethodUserOverride))
		return
	}

	method := sec.NavEstMethod
	if method == "" {
		method = domain.MethodPublished
	}

	rtn, ok := e.selectReturn(method, f)
	if !ok {
		if _, hasETF := f.GetEstimate(domain.MethodETFReg); hasETF {
			method = domain.MethodETFReg
			rtn, ok = e.selectReturn(method, f)
		}
	}
	if !ok || f.DivAdjNav == nil {
		return
	}

	if rtn > 0 {
		rtn *= 1 - sec.TaxRate
		days := finmath.DaysBetween(f.LastNavDate, e.now())
		rtn -= sec.MgmtFeeRate * days / 365
	}

	accrued := 0.0
	if f.AccruedInterest != nil {
		accrued = *f.AccruedInterest
	}
	unadj := *f.DivAdjNav*(1+rtn) + accrued
	if !finmath.Finite(unadj) {
		return
	}

	est := unadj
	if hasNav && nav.NavAdjustment != nil {
		est = unadj + *nav.NavAdjustment
	}

	f.UnadjEstNav = finmath.Ptr(unadj)
	f.EstNav = finmath.Ptr(est)
	f.EstRtn = finmath.Ptr(rtn)
	f.NavEstMthd = method
	e.metrics.ObserveMethod(string(method))
}

// selectReturn yields the configured method's estimated return.
func (e *Engine) selectReturn(method domain.EstimationMethod, f *domain.Forecast) (float64, bool) {
	switch method {
	case domain.MethodPublished:
		if f.DivAdjNav == nil {
			return 0, false
		}
		return 0, true
	case domain.MethodHoldings, domain.MethodETFReg, domain.MethodProxy,
		domain.MethodCondProxy, domain.MethodNumisEstNav, domain.MethodAltProxy,
		domain.MethodCryptoNav:
		est, ok := f.GetEstimate(method)
		if !ok {
			return 0, false
		}
		return est.Rtn, true
	default:
		return 0, false
	}
}
