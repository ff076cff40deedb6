// Package postgres implements the persistence contracts against the
// reference-data warehouse.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/persistence"
	"github.com/fundscope/navcast/internal/store"
)

// Loader reads entity collections with a per-query timeout.
type Loader struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewLoader creates a postgres-backed loader.
func NewLoader(db *sqlx.DB, timeout time.Duration) *Loader {
	return &Loader{db: db, timeout: timeout}
}

func (l *Loader) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, l.timeout)
}

type securityRow struct {
	Ticker        string   `db:"ticker"`
	Name          string   `db:"name"`
	Country       string   `db:"country"`
	Currency      string   `db:"currency"`
	AssetType     string   `db:"asset_type"`
	PaymentRank   string   `db:"payment_rank"`
	LeverageRatio float64  `db:"leverage_ratio"`
	ExpenseRatio  float64  `db:"expense_ratio"`
	MgmtFeeRate   float64  `db:"mgmt_fee_rate"`
	TaxRate       float64  `db:"tax_rate"`
	AccrualRate   *float64 `db:"accrual_rate"`
	QuarterlyNII  *float64 `db:"quarterly_nii"`
	NavEstMethod  string   `db:"nav_est_method"`
	AssetLevel1   string   `db:"asset_level1"`
	AssetLevel2   string   `db:"asset_level2"`
	GeoLevel1     string   `db:"geo_level1"`
	GeoLevel2     string   `db:"geo_level2"`
	PeerGroup     string   `db:"peer_group"`
}

// Securities loads the security master. Rows with an unknown estimation
// method fail the load: a typo in reference data must surface at refresh
// time, not as a silent Published fallback.
func (l *Loader) Securities(parent context.Context) (map[string]domain.SecurityMaster, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []securityRow
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, name, country, currency, asset_type, payment_rank,
		       leverage_ratio, expense_ratio, mgmt_fee_rate, tax_rate,
		       accrual_rate, quarterly_nii, nav_est_method,
		       asset_level1, asset_level2, geo_level1, geo_level2, peer_group
		FROM securities`)
	if err != nil {
		return nil, fmt.Errorf("failed to load securities: %w", err)
	}

	out := make(map[string]domain.SecurityMaster, len(rows))
	for _, r := range rows {
		method, err := domain.ParseEstimationMethod(r.NavEstMethod)
		if err != nil {
			return nil, fmt.Errorf("security %s: %w", r.Ticker, err)
		}
		out[r.Ticker] = domain.SecurityMaster{
			Ticker:        r.Ticker,
			Name:          r.Name,
			Country:       r.Country,
			Currency:      r.Currency,
			AssetType:     domain.AssetType(r.AssetType),
			PaymentRank:   r.PaymentRank,
			LeverageRatio: r.LeverageRatio,
			ExpenseRatio:  r.ExpenseRatio,
			MgmtFeeRate:   r.MgmtFeeRate,
			TaxRate:       r.TaxRate,
			AccrualRate:   r.AccrualRate,
			QuarterlyNII:  r.QuarterlyNII,
			NavEstMethod:  method,
			AssetLevel1:   r.AssetLevel1,
			AssetLevel2:   r.AssetLevel2,
			GeoLevel1:     r.GeoLevel1,
			GeoLevel2:     r.GeoLevel2,
			PeerGroup:     r.PeerGroup,
		}
	}
	return out, nil
}

type navRow struct {
	Ticker            string     `db:"ticker"`
	Nav               *float64   `db:"nav"`
	NavDate           time.Time  `db:"nav_date"`
	Source            string     `db:"source"`
	SharesOutstanding *float64   `db:"shares_outstanding"`
	ExDivSinceNav     *float64   `db:"ex_div_since_nav"`
	UNIIBalance       *float64   `db:"unii_balance"`
	UserNavOverride   *float64   `db:"user_nav_override"`
	OverrideDate      *time.Time `db:"override_date"`
	IntrinsicValue    *float64   `db:"intrinsic_value"`
	NavAdjustment     *float64   `db:"nav_adjustment"`
	PriorDiscount     *float64   `db:"prior_discount"`
	PriorNavDate      *time.Time `db:"prior_nav_date"`
	BaselineDiscount  *float64   `db:"baseline_discount"`
}

// PublishedNavs loads the latest published NAV per ticker, override
// fields included so they persist across refreshes.
func (l *Loader) PublishedNavs(parent context.Context) (map[string]domain.PublishedNav, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []navRow
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, nav, nav_date, source, shares_outstanding,
		       ex_div_since_nav, unii_balance,
		       user_nav_override, override_date, intrinsic_value, nav_adjustment,
		       prior_discount, prior_nav_date, baseline_discount
		FROM published_navs`)
	if err != nil {
		return nil, fmt.Errorf("failed to load published navs: %w", err)
	}

	out := make(map[string]domain.PublishedNav, len(rows))
	for _, r := range rows {
		nav := domain.PublishedNav{
			Ticker:            r.Ticker,
			Nav:               r.Nav,
			NavDate:           r.NavDate,
			Source:            r.Source,
			SharesOutstanding: r.SharesOutstanding,
			ExDivSinceNav:     r.ExDivSinceNav,
			UNIIBalance:       r.UNIIBalance,
			UserNavOverride:   r.UserNavOverride,
			IntrinsicValue:    r.IntrinsicValue,
			NavAdjustment:     r.NavAdjustment,
			PriorDiscount:     r.PriorDiscount,
			BaselineDiscount:  r.BaselineDiscount,
		}
		if r.OverrideDate != nil {
			nav.OverrideDate = *r.OverrideDate
		}
		if r.PriorNavDate != nil {
			nav.PriorNavDate = *r.PriorNavDate
		}
		out[r.Ticker] = nav
	}
	return out, nil
}

type priceRow struct {
	Ticker       string    `db:"ticker"`
	Last         *float64  `db:"last"`
	Bid          *float64  `db:"bid"`
	Ask          *float64  `db:"ask"`
	PriceReturn  *float64  `db:"price_return"`
	MarketClosed bool      `db:"market_closed"`
	Source       string    `db:"source"`
	AsOf         time.Time `db:"as_of"`
}

// Prices loads live quotes keyed by market-data ticker.
func (l *Loader) Prices(parent context.Context) (map[string]domain.SecurityPrice, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []priceRow
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, last, bid, ask, price_return, market_closed, source, as_of
		FROM security_prices`)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	out := make(map[string]domain.SecurityPrice, len(rows))
	for _, r := range rows {
		out[r.Ticker] = domain.SecurityPrice(r)
	}
	return out, nil
}

// FxRates loads the current FX table.
func (l *Loader) FxRates(parent context.Context) (domain.FxTable, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Currency string    `db:"currency"`
		Rate     float64   `db:"rate"`
		PrevRate float64   `db:"prev_rate"`
		AsOf     time.Time `db:"as_of"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT currency, rate, prev_rate, as_of FROM fx_rates`)
	if err != nil {
		return nil, fmt.Errorf("failed to load fx rates: %w", err)
	}

	out := make(domain.FxTable, len(rows))
	for _, r := range rows {
		out[r.Currency] = domain.FxRate(r)
	}
	return out, nil
}

// TickerMap loads the entity-to-market ticker translation table.
func (l *Loader) TickerMap(parent context.Context) (domain.TickerMap, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		EntityTicker string `db:"entity_ticker"`
		MarketTicker string `db:"market_ticker"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT entity_ticker, market_ticker FROM ticker_map`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticker map: %w", err)
	}

	out := make(domain.TickerMap, len(rows))
	for _, r := range rows {
		out[r.EntityTicker] = r.MarketTicker
	}
	return out, nil
}

// Redemptions loads redemption terms.
func (l *Loader) Redemptions(parent context.Context) (map[string]domain.Redemption, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker             string    `db:"ticker"`
		NextRedemptionDate time.Time `db:"next_redemption_date"`
		PrefRedemptionVal  *float64  `db:"pref_redemption_val"`
		PrefRatio          *float64  `db:"pref_ratio"`
		IncludedInNav      bool      `db:"included_in_nav"`
		PreferredTicker    string    `db:"preferred_ticker"`
		ConvRatio          *float64  `db:"conv_ratio"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, next_redemption_date, pref_redemption_val, pref_ratio,
		       included_in_nav, preferred_ticker, conv_ratio
		FROM redemptions`)
	if err != nil {
		return nil, fmt.Errorf("failed to load redemptions: %w", err)
	}

	out := make(map[string]domain.Redemption, len(rows))
	for _, r := range rows {
		out[r.Ticker] = domain.Redemption(r)
	}
	return out, nil
}

// RightsOffers loads open rights offers.
func (l *Loader) RightsOffers(parent context.Context) (map[string]domain.RightsOffer, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker        string    `db:"ticker"`
		SubRatio      float64   `db:"sub_ratio"`
		OverSubRatio  float64   `db:"over_sub_ratio"`
		Basis         string    `db:"basis"`
		DiscountPct   float64   `db:"discount_pct"`
		KnownSubPrice *float64  `db:"known_sub_price"`
		ExpiryDate    time.Time `db:"expiry_date"`
		Display       bool      `db:"display"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, sub_ratio, over_sub_ratio, basis, discount_pct,
		       known_sub_price, expiry_date, display
		FROM rights_offers`)
	if err != nil {
		return nil, fmt.Errorf("failed to load rights offers: %w", err)
	}

	out := make(map[string]domain.RightsOffer, len(rows))
	for _, r := range rows {
		out[r.Ticker] = domain.RightsOffer{
			Ticker:        r.Ticker,
			SubRatio:      r.SubRatio,
			OverSubRatio:  r.OverSubRatio,
			Basis:         domain.DiscountBasis(r.Basis),
			DiscountPct:   r.DiscountPct,
			KnownSubPrice: r.KnownSubPrice,
			ExpiryDate:    r.ExpiryDate,
			Display:       r.Display,
		}
	}
	return out, nil
}

// TenderOffers loads open tender offers.
func (l *Loader) TenderOffers(parent context.Context) (map[string]domain.TenderOffer, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker             string    `db:"ticker"`
		SharesSoughtPct    float64   `db:"shares_sought_pct"`
		InstHoldingPct     float64   `db:"inst_holding_pct"`
		RetailHoldingPct   float64   `db:"retail_holding_pct"`
		InstTenderRate     float64   `db:"inst_tender_rate"`
		RetailTenderRate   float64   `db:"retail_tender_rate"`
		TenderDiscount     float64   `db:"tender_discount"`
		PostTenderDiscount float64   `db:"post_tender_discount"`
		ExpenseDrag        float64   `db:"expense_drag"`
		EndDate            time.Time `db:"end_date"`
		Display            bool      `db:"display"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, shares_sought_pct, inst_holding_pct, retail_holding_pct,
		       inst_tender_rate, retail_tender_rate, tender_discount,
		       post_tender_discount, expense_drag, end_date, display
		FROM tender_offers`)
	if err != nil {
		return nil, fmt.Errorf("failed to load tender offers: %w", err)
	}

	out := make(map[string]domain.TenderOffer, len(rows))
	for _, r := range rows {
		out[r.Ticker] = domain.TenderOffer(r)
	}
	return out, nil
}

// DiscountStats loads per-window historical discount statistics, grouped
// per key (ticker or peer group).
func (l *Loader) DiscountStats(parent context.Context) (map[string]domain.DiscountStats, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Key    string  `db:"key"`
		Window string  `db:"window"`
		Mean   float64 `db:"mean"`
		StdDev float64 `db:"stddev"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT key, "window", mean, stddev FROM discount_stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to load discount stats: %w", err)
	}

	out := make(map[string]domain.DiscountStats)
	for _, r := range rows {
		stats, ok := out[r.Key]
		if !ok {
			stats = domain.DiscountStats{Key: r.Key, Windows: make(map[domain.StatWindow]domain.WindowStat)}
		}
		stats.Windows[domain.StatWindow(r.Window)] = domain.WindowStat{Mean: r.Mean, StdDev: r.StdDev}
		out[r.Key] = stats
	}
	return out, nil
}

// Regressions loads ETF-regression models with their term lists.
func (l *Loader) Regressions(parent context.Context) (map[string]domain.RegressionModel, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker    string  `db:"ticker"`
		Intercept float64 `db:"intercept"`
		RefTicker string  `db:"ref_ticker"`
		Coef      float64 `db:"coef"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT m.ticker, m.intercept, t.ref_ticker, t.coef
		FROM regression_models m
		JOIN regression_terms t ON t.ticker = m.ticker
		ORDER BY m.ticker, t.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load regressions: %w", err)
	}

	out := make(map[string]domain.RegressionModel)
	for _, r := range rows {
		model, ok := out[r.Ticker]
		if !ok {
			model = domain.RegressionModel{Ticker: r.Ticker, Intercept: r.Intercept}
		}
		model.Terms = append(model.Terms, domain.RegressionTerm{Coef: r.Coef, Ticker: r.RefTicker})
		out[r.Ticker] = model
	}
	return out, nil
}

// AlphaModels loads expected-alpha coefficients.
func (l *Loader) AlphaModels(parent context.Context) (map[string]domain.AlphaModel, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker     string  `db:"ticker"`
		Intercept  float64 `db:"intercept"`
		ZCoef      float64 `db:"z_coef"`
		DCoef      float64 `db:"d_coef"`
		SectorCoef float64 `db:"sector_coef"`
		SectorMean float64 `db:"sector_mean"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, intercept, z_coef, d_coef, sector_coef, sector_mean
		FROM alpha_models`)
	if err != nil {
		return nil, fmt.Errorf("failed to load alpha models: %w", err)
	}

	out := make(map[string]domain.AlphaModel, len(rows))
	for _, r := range rows {
		out[r.Ticker] = domain.AlphaModel(r)
	}
	return out, nil
}

// ProxyFormulas loads every stored formula string.
func (l *Loader) ProxyFormulas(parent context.Context) ([]persistence.FormulaRow, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker  string `db:"ticker"`
		Kind    string `db:"kind"`
		Formula string `db:"formula"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, kind, formula FROM proxy_formulas`)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxy formulas: %w", err)
	}

	out := make([]persistence.FormulaRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, persistence.FormulaRow{
			Ticker:  r.Ticker,
			Kind:    domain.ProxyKind(r.Kind),
			Formula: r.Formula,
		})
	}
	return out, nil
}

// ReferenceReturns loads one reference-return table.
func (l *Loader) ReferenceReturns(parent context.Context, kind store.ReturnKind) (map[string]float64, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker string  `db:"ticker"`
		Rtn    float64 `db:"rtn"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, rtn FROM reference_returns WHERE kind = $1`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s returns: %w", kind, err)
	}

	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r.Rtn
	}
	return out, nil
}

// ExternalNavs loads one externally computed NAV feed.
func (l *Loader) ExternalNavs(parent context.Context, feed string) (map[string]float64, error) {
	ctx, cancel := l.ctx(parent)
	defer cancel()

	var rows []struct {
		Ticker string  `db:"ticker"`
		Nav    float64 `db:"nav"`
	}
	err := l.db.SelectContext(ctx, &rows, `
		SELECT ticker, nav FROM external_navs WHERE feed = $1`, feed)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s navs: %w", feed, err)
	}

	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r.Nav
	}
	return out, nil
}
