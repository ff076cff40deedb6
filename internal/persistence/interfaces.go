// Package persistence defines the data-access contracts the valuation
// engine needs from the warehouse, plus the edit service that keeps the
// in-memory store and dirty revisions in step with writes.
package persistence

import (
	"context"
	"time"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/store"
)

// External NAV feed names for Loader.ExternalNavs.
const (
	FeedHoldings = "holdings"
	FeedNumis    = "numis"
	FeedCrypto   = "crypto"
)

// FormulaRow is one stored proxy formula string.
type FormulaRow struct {
	Ticker  string
	Kind    domain.ProxyKind
	Formula string
}

// Loader reads full entity collections for wholesale store refreshes.
// Implementations are blocking and assumed fast; the engine never calls
// them mid-pass.
type Loader interface {
	Securities(ctx context.Context) (map[string]domain.SecurityMaster, error)
	PublishedNavs(ctx context.Context) (map[string]domain.PublishedNav, error)
	Prices(ctx context.Context) (map[string]domain.SecurityPrice, error)
	FxRates(ctx context.Context) (domain.FxTable, error)
	TickerMap(ctx context.Context) (domain.TickerMap, error)
	Redemptions(ctx context.Context) (map[string]domain.Redemption, error)
	RightsOffers(ctx context.Context) (map[string]domain.RightsOffer, error)
	TenderOffers(ctx context.Context) (map[string]domain.TenderOffer, error)
	DiscountStats(ctx context.Context) (map[string]domain.DiscountStats, error)
	Regressions(ctx context.Context) (map[string]domain.RegressionModel, error)
	AlphaModels(ctx context.Context) (map[string]domain.AlphaModel, error)
	ProxyFormulas(ctx context.Context) ([]FormulaRow, error)
	ReferenceReturns(ctx context.Context, kind store.ReturnKind) (map[string]float64, error)
	ExternalNavs(ctx context.Context, feed string) (map[string]float64, error)
}

// Writer persists user edits. Every write path must be paired with the
// matching dirty trigger; callers go through EditService rather than a
// Writer directly.
type Writer interface {
	SaveUserNavOverride(ctx context.Context, ticker string, value *float64, asOf time.Time) error
	SaveNavAdjustment(ctx context.Context, ticker string, value *float64) error
	SaveProxyFormula(ctx context.Context, ticker string, kind domain.ProxyKind, formula string) error
	SaveRightsOffer(ctx context.Context, offer domain.RightsOffer) error
	DeleteRightsOffer(ctx context.Context, ticker string) error
	SaveTenderOffer(ctx context.Context, offer domain.TenderOffer) error
	DeleteTenderOffer(ctx context.Context, ticker string) error
}
