package engine

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
	"github.com/fundscope/navcast/internal/proxy"
	"github.com/fundscope/navcast/internal/store"
)

// runEstimators computes every independently available estimate for the
// ticker and parks each in its method slot. The hierarchy resolver picks
// among them afterwards. An estimator with missing prerequisites is
// skipped silently for the cycle.
func (e *Engine) runEstimators(sec domain.SecurityMaster, f *domain.Forecast) {
	e.estimateETFRegression(sec, f)
	e.estimateProxy(sec, f, domain.ProxyPrimary, store.ReturnsProxy, domain.MethodProxy)
	e.estimateProxy(sec, f, domain.ProxyAlt, store.ReturnsAlt, domain.MethodAltProxy)
	e.estimateProxy(sec, f, domain.ProxyPortFI, store.ReturnsPort, domain.MethodPortProxy)
	e.estimateConditionalProxy(sec, f)
	e.loadExternalEstimates(sec, f)
}

// estimateETFRegression applies stored regression coefficients to live
// ETF/basket returns.
func (e *Engine) estimateETFRegression(sec domain.SecurityMaster, f *domain.Forecast) {
	if f.DivAdjNav == nil {
		return
	}
	model, ok := e.store.Regressions.Get(sec.Ticker)
	if !ok || len(model.Terms) == 0 {
		return
	}

	rtn := model.Intercept
	found := 0
	for _, t := range model.Terms {
		r, ok := e.store.Return(store.ReturnsETF, t.Ticker)
		if !ok {
			continue
		}
		rtn += t.Coef * r
		found++
	}
	if found == 0 {
		e.log.Debug().Str("ticker", sec.Ticker).Msg("etf regression skipped, no reference returns")
		return
	}

	nav := *f.DivAdjNav * (1 + rtn)
	if finmath.AllFinite(rtn, nav) {
		f.SetEstimate(domain.MethodETFReg, nav, rtn)
	}
}

// estimateProxy applies one proxy formula's coefficients to its reference
// securities' live returns.
func (e *Engine) estimateProxy(sec domain.SecurityMaster, f *domain.Forecast,
	kind domain.ProxyKind, returns store.ReturnKind, slot domain.EstimationMethod) {

	if f.DivAdjNav == nil {
		return
	}
	deps := e.resolver.Deps(sec.Ticker, kind)
	if len(deps) == 0 {
		return
	}

	rtn, ok := e.basketReturn(deps, returns)
	if !ok {
		e.log.Debug().Str("ticker", sec.Ticker).Str("kind", string(kind)).
			Msg("proxy estimate skipped, no reference returns")
		return
	}

	nav := *f.DivAdjNav * (1 + rtn)
	if finmath.AllFinite(rtn, nav) {
		f.SetEstimate(slot, nav, rtn)
	}
}

// basketReturn sums coefficient-weighted reference returns. At least one
// reference must resolve; missing references drop out of the sum.
func (e *Engine) basketReturn(deps []proxy.Term, kind store.ReturnKind) (float64, bool) {
	rtn := 0.0
	found := 0
	for _, d := range deps {
		r, ok := e.store.Return(kind, d.Ticker)
		if !ok {
			continue
		}
		rtn += d.Coef * r
		found++
	}
	return rtn, found > 0
}

// estimateConditionalProxy picks between the primary and
// portfolio-fixed-income proxy estimates: while the home market is closed
// the portfolio-FI basket (built from US-listed references) tracks the
// book better, otherwise the primary formula wins. The branch taken is
// recorded on the forecast.
func (e *Engine) estimateConditionalProxy(sec domain.SecurityMaster, f *domain.Forecast) {
	price, ok := e.store.PriceFor(sec.Ticker)
	marketClosed := ok && price.MarketClosed

	branch := domain.ProxyPrimary
	est, ok := f.GetEstimate(domain.MethodProxy)
	if marketClosed {
		if portEst, portOK := f.GetEstimate(domain.MethodPortProxy); portOK {
			est, ok = portEst, true
			branch = domain.ProxyPortFI
		}
	}
	if !ok {
		return
	}
	f.SetEstimate(domain.MethodCondProxy, est.Nav, est.Rtn)
	f.CondBranch = branch
}

// loadExternalEstimates copies the externally computed NAV feeds
// (holdings roll-forward, Numis estimates, crypto-basket valuations)
// into their slots so the hierarchy resolver sees one uniform shape.
func (e *Engine) loadExternalEstimates(sec domain.SecurityMaster, f *domain.Forecast) {
	load := func(tbl *store.Table[float64], slot domain.EstimationMethod) {
		nav, ok := tbl.Get(sec.Ticker)
		if !ok || !finmath.Finite(nav) {
			return
		}
		rtn := 0.0
		if f.DivAdjNav != nil {
			if r, ok := finmath.SafeDiv(nav, *f.DivAdjNav); ok {
				rtn = r - 1
			}
		}
		f.SetEstimate(slot, nav, rtn)
	}
	load(e.store.HoldingsNavs, domain.MethodHoldings)
	load(e.store.NumisNavs, domain.MethodNumisEstNav)
	load(e.store.CryptoNavs, domain.MethodCryptoNav)
}
