package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/store"
)

// EditService is the single write path for user overrides and
// corporate-action term edits. Every edit persists through the Writer,
// updates the live store, and triggers the dirty state the next Calculate
// pass needs — so a persisted edit can never be silently invisible until
// the next full refresh.
type EditService struct {
	writer Writer
	store  *store.Store
	log    zerolog.Logger
}

// NewEditService wires the edit service.
func NewEditService(w Writer, s *store.Store, log zerolog.Logger) *EditService {
	return &EditService{
		writer: w,
		store:  s,
		log:    log.With().Str("component", "edit_service").Logger(),
	}
}

// SetUserNavOverride persists and applies a user NAV override; nil clears
// it. Override fields survive published-NAV refreshes by contract, so the
// store copy is patched rather than replaced.
func (s *EditService) SetUserNavOverride(ctx context.Context, ticker string, value *float64) error {
	asOf := time.Now()
	if err := s.writer.SaveUserNavOverride(ctx, ticker, value, asOf); err != nil {
		return fmt.Errorf("save nav override for %s: %w", ticker, err)
	}
	nav, ok := s.store.Navs.Get(ticker)
	if !ok {
		nav = domain.PublishedNav{Ticker: ticker}
	}
	nav.UserNavOverride = value
	nav.OverrideDate = asOf
	s.store.Navs.Put(ticker, nav)
	s.log.Info().Str("ticker", ticker).Msg("user nav override updated")
	return nil
}

// SetNavAdjustment persists and applies the manual additive NAV
// adjustment; nil clears it.
func (s *EditService) SetNavAdjustment(ctx context.Context, ticker string, value *float64) error {
	if err := s.writer.SaveNavAdjustment(ctx, ticker, value); err != nil {
		return fmt.Errorf("save nav adjustment for %s: %w", ticker, err)
	}
	nav, ok := s.store.Navs.Get(ticker)
	if !ok {
		nav = domain.PublishedNav{Ticker: ticker}
	}
	nav.NavAdjustment = value
	s.store.Navs.Put(ticker, nav)
	return nil
}

// SetProxyFormula persists a formula edit and bumps its revision so the
// resolver reparses on the next pass.
func (s *EditService) SetProxyFormula(ctx context.Context, ticker string, kind domain.ProxyKind, formula string) error {
	if err := s.writer.SaveProxyFormula(ctx, ticker, kind, formula); err != nil {
		return fmt.Errorf("save %s formula for %s: %w", kind, ticker, err)
	}
	s.store.SetFormula(ticker, kind, formula)
	s.log.Info().Str("ticker", ticker).Str("kind", string(kind)).Msg("proxy formula updated")
	return nil
}

// SetRightsOffer persists rights-offer terms; presence of the record is
// what triggers the adjustment next pass.
func (s *EditService) SetRightsOffer(ctx context.Context, offer domain.RightsOffer) error {
	if err := s.writer.SaveRightsOffer(ctx, offer); err != nil {
		return fmt.Errorf("save rights offer for %s: %w", offer.Ticker, err)
	}
	s.store.RightsOffers.Put(offer.Ticker, offer)
	return nil
}

// ClearRightsOffer removes a rights offer; the next pass clears the
// adjusted fields.
func (s *EditService) ClearRightsOffer(ctx context.Context, ticker string) error {
	if err := s.writer.DeleteRightsOffer(ctx, ticker); err != nil {
		return fmt.Errorf("delete rights offer for %s: %w", ticker, err)
	}
	s.store.RightsOffers.Delete(ticker)
	return nil
}

// SetTenderOffer persists tender-offer terms.
func (s *EditService) SetTenderOffer(ctx context.Context, offer domain.TenderOffer) error {
	if err := s.writer.SaveTenderOffer(ctx, offer); err != nil {
		return fmt.Errorf("save tender offer for %s: %w", offer.Ticker, err)
	}
	s.store.TenderOffers.Put(offer.Ticker, offer)
	return nil
}

// ClearTenderOffer removes a tender offer.
func (s *EditService) ClearTenderOffer(ctx context.Context, ticker string) error {
	if err := s.writer.DeleteTenderOffer(ctx, ticker); err != nil {
		return fmt.Errorf("delete tender offer for %s: %w", ticker, err)
	}
	s.store.TenderOffers.Delete(ticker)
	return nil
}
