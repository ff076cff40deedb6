package persistence

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/store"
)

// Refresher pulls entity collections from a Loader into the in-memory
// store, wholesale per table. Tables that fail to load keep their prior
// generation.
type Refresher struct {
	loader Loader
	store  *store.Store
	log    zerolog.Logger
}

// NewRefresher wires a refresher over its loader and target store.
func NewRefresher(l Loader, s *store.Store, log zerolog.Logger) *Refresher {
	return &Refresher{
		loader: l,
		store:  s,
		log:    log.With().Str("component", "refresher").Logger(),
	}
}

// RefreshAll reloads every table. The first hard failure aborts; a NAV
// refresh reapplies persisted override fields, which arrive inside the
// loaded rows by contract.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	secs, err := r.loader.Securities(ctx)
	if err != nil {
		return fmt.Errorf("refresh securities: %w", err)
	}
	r.store.Securities.ReplaceAll(secs)

	navs, err := r.loader.PublishedNavs(ctx)
	if err != nil {
		return fmt.Errorf("refresh navs: %w", err)
	}
	r.store.Navs.ReplaceAll(navs)

	if err := r.RefreshMarketData(ctx); err != nil {
		return err
	}

	reds, err := r.loader.Redemptions(ctx)
	if err != nil {
		return fmt.Errorf("refresh redemptions: %w", err)
	}
	r.store.Redemptions.ReplaceAll(reds)

	ros, err := r.loader.RightsOffers(ctx)
	if err != nil {
		return fmt.Errorf("refresh rights offers: %w", err)
	}
	r.store.RightsOffers.ReplaceAll(ros)

	tos, err := r.loader.TenderOffers(ctx)
	if err != nil {
		return fmt.Errorf("refresh tender offers: %w", err)
	}
	r.store.TenderOffers.ReplaceAll(tos)

	stats, err := r.loader.DiscountStats(ctx)
	if err != nil {
		return fmt.Errorf("refresh discount stats: %w", err)
	}
	r.store.DiscountStats.ReplaceAll(stats)

	regs, err := r.loader.Regressions(ctx)
	if err != nil {
		return fmt.Errorf("refresh regressions: %w", err)
	}
	r.store.Regressions.ReplaceAll(regs)

	alphas, err := r.loader.AlphaModels(ctx)
	if err != nil {
		return fmt.Errorf("refresh alpha models: %w", err)
	}
	r.store.AlphaModels.ReplaceAll(alphas)

	formulas, err := r.loader.ProxyFormulas(ctx)
	if err != nil {
		return fmt.Errorf("refresh proxy formulas: %w", err)
	}
	for _, row := range formulas {
		r.store.SetFormula(row.Ticker, row.Kind, row.Formula)
	}

	for feed, tbl := range map[string]*store.Table[float64]{
		FeedHoldings: r.store.HoldingsNavs,
		FeedNumis:    r.store.NumisNavs,
		FeedCrypto:   r.store.CryptoNavs,
	} {
		navs, err := r.loader.ExternalNavs(ctx, feed)
		if err != nil {
			return fmt.Errorf("refresh %s navs: %w", feed, err)
		}
		tbl.ReplaceAll(navs)
	}

	r.log.Info().Int("securities", r.store.Securities.Len()).
		Int("formulas", len(formulas)).Msg("full store refresh complete")
	return nil
}

// RefreshMarketData reloads only the fast-moving tables: prices, fx,
// ticker map and the reference-return tables.
func (r *Refresher) RefreshMarketData(ctx context.Context) error {
	tm, err := r.loader.TickerMap(ctx)
	if err != nil {
		return fmt.Errorf("refresh ticker map: %w", err)
	}
	r.store.SetTickerMap(tm)

	prices, err := r.loader.Prices(ctx)
	if err != nil {
		return fmt.Errorf("refresh prices: %w", err)
	}
	r.store.Prices.ReplaceAll(prices)

	fx, err := r.loader.FxRates(ctx)
	if err != nil {
		return fmt.Errorf("refresh fx: %w", err)
	}
	r.store.SetFx(fx)

	for _, kind := range []store.ReturnKind{
		store.ReturnsETF, store.ReturnsProxy, store.ReturnsAlt, store.ReturnsPort,
	} {
		table, err := r.loader.ReferenceReturns(ctx, kind)
		if err != nil {
			return fmt.Errorf("refresh %s returns: %w", kind, err)
		}
		r.store.SetReturns(kind, table)
	}
	return nil
}
