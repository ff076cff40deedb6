package engine

import (
	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
)

// scoreDiscount computes per-window D- and Z-scores of the live discount
// against its historical distribution. The scored discount is the
// manual-adjustment-unwound discount when a NAV adjustment is in force,
// or the rights-offer-adjusted discount when that offer is flagged for
// display. Windows with no stats are skipped; a zero stddev leaves the
// Z-score absent.
func (e *Engine) scoreDiscount(sec domain.SecurityMaster, nav domain.PublishedNav, f *domain.Forecast) {
	disc, ok := e.scoredDiscount(sec, nav, f)
	if !ok {
		return
	}

	stats, found := e.store.DiscountStats.Get(sec.Ticker)
	if !found && sec.PeerGroup != "" {
		stats, found = e.store.DiscountStats.Get(sec.PeerGroup)
	}
	if !found {
		return
	}

	for _, w := range domain.StatWindows {
		stat, ok := stats.Windows[w]
		if !ok {
			continue
		}
		score := domain.Score{D: disc - stat.Mean}
		if stat.StdDev > 0 {
			if z, ok := finmath.SafeDiv(score.D, stat.StdDev); ok {
				score.Z = finmath.Ptr(z)
			}
		}
		f.Scores[w] = score
	}
}

// scoredDiscount selects which discount the statistical scorer sees.
func (e *Engine) scoredDiscount(sec domain.SecurityMaster, nav domain.PublishedNav, f *domain.Forecast) (float64, bool) {
	if nav.NavAdjustment != nil && f.UnadjEstNav != nil {
		if last, _, _ := e.stackedQuotes(sec); last != nil {
			if d, ok := finmath.Discount(*last, *f.UnadjEstNav); ok {
				return d, true
			}
		}
	}
	if offer, ok := e.store.RightsOffers.Get(sec.Ticker); ok && offer.Display && f.Rights != nil {
		return f.Rights.PostDiscount, true
	}
	if f.Discount != nil {
		return *f.Discount, true
	}
	return 0, false
}

// computeExpectedAlpha evaluates the downstream expected-alpha model.
// Coefficients arrive as data and are applied as a black box over the 3M
// scores and the sector discount gap.
func (e *Engine) computeExpectedAlpha(sec domain.SecurityMaster, f *domain.Forecast) {
	model, ok := e.store.AlphaModels.Get(sec.Ticker)
	if !ok || f.Discount == nil {
		return
	}
	score, ok := f.Scores[domain.Win3M]
	if !ok || score.Z == nil {
		return
	}

	alpha := model.Intercept +
		model.ZCoef**score.Z +
		model.DCoef*score.D +
		model.SectorCoef*(model.SectorMean-*f.Discount)
	if finmath.Finite(alpha) {
		f.ExpectedAlpha = finmath.Ptr(alpha)
	}
}
