package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fundscope/navcast/internal/domain"
)

// Writer persists user edits with upsert semantics.
type Writer struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewWriter creates a postgres-backed writer.
func NewWriter(db *sqlx.DB, timeout time.Duration) *Writer {
	return &Writer{db: db, timeout: timeout}
}

func (w *Writer) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, w.timeout)
}

// SaveUserNavOverride upserts the override fields on the ticker's NAV row.
func (w *Writer) SaveUserNavOverride(parent context.Context, ticker string, value *float64, asOf time.Time) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	_, err := w.db.ExecContext(ctx, `
		UPDATE published_navs
		SET user_nav_override = $2, override_date = $3
		WHERE ticker = $1`, ticker, value, asOf)
	if err != nil {
		return fmt.Errorf("failed to save nav override: %w", err)
	}
	return nil
}

// SaveNavAdjustment upserts the manual additive NAV adjustment.
func (w *Writer) SaveNavAdjustment(parent context.Context, ticker string, value *float64) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	_, err := w.db.ExecContext(ctx, `
		UPDATE published_navs SET nav_adjustment = $2 WHERE ticker = $1`,
		ticker, value)
	if err != nil {
		return fmt.Errorf("failed to save nav adjustment: %w", err)
	}
	return nil
}

// SaveProxyFormula upserts one formula string.
func (w *Writer) SaveProxyFormula(parent context.Context, ticker string, kind domain.ProxyKind, formula string) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO proxy_formulas (ticker, kind, formula)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, kind) DO UPDATE SET formula = EXCLUDED.formula`,
		ticker, string(kind), formula)
	if err != nil {
		return fmt.Errorf("failed to save proxy formula: %w", err)
	}
	return nil
}

// SaveRightsOffer upserts rights-offer terms.
func (w *Writer) SaveRightsOffer(parent context.Context, offer domain.RightsOffer) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO rights_offers (ticker, sub_ratio, over_sub_ratio, basis,
		                           discount_pct, known_sub_price, expiry_date, display)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker) DO UPDATE SET
			sub_ratio = EXCLUDED.sub_ratio,
			over_sub_ratio = EXCLUDED.over_sub_ratio,
			basis = EXCLUDED.basis,
			discount_pct = EXCLUDED.discount_pct,
			known_sub_price = EXCLUDED.known_sub_price,
			expiry_date = EXCLUDED.expiry_date,
			display = EXCLUDED.display`,
		offer.Ticker, offer.SubRatio, offer.OverSubRatio, string(offer.Basis),
		offer.DiscountPct, offer.KnownSubPrice, offer.ExpiryDate, offer.Display)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("unknown ticker %s: %w", offer.Ticker, err)
		}
		return fmt.Errorf("failed to save rights offer: %w", err)
	}
	return nil
}

// DeleteRightsOffer removes a rights offer.
func (w *Writer) DeleteRightsOffer(parent context.Context, ticker string) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	if _, err := w.db.ExecContext(ctx, `DELETE FROM rights_offers WHERE ticker = $1`, ticker); err != nil {
		return fmt.Errorf("failed to delete rights offer: %w", err)
	}
	return nil
}

// SaveTenderOffer upserts tender-offer terms.
func (w *Writer) SaveTenderOffer(parent context.Context, offer domain.TenderOffer) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO tender_offers (ticker, shares_sought_pct, inst_holding_pct,
		                           retail_holding_pct, inst_tender_rate, retail_tender_rate,
		                           tender_discount, post_tender_discount, expense_drag,
		                           end_date, display)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticker) DO UPDATE SET
			shares_sought_pct = EXCLUDED.shares_sought_pct,
			inst_holding_pct = EXCLUDED.inst_holding_pct,
			retail_holding_pct = EXCLUDED.retail_holding_pct,
			inst_tender_rate = EXCLUDED.inst_tender_rate,
			retail_tender_rate = EXCLUDED.retail_tender_rate,
			tender_discount = EXCLUDED.tender_discount,
			post_tender_discount = EXCLUDED.post_tender_discount,
			expense_drag = EXCLUDED.expense_drag,
			end_date = EXCLUDED.end_date,
			display = EXCLUDED.display`,
		offer.Ticker, offer.SharesSoughtPct, offer.InstHoldingPct,
		offer.RetailHoldingPct, offer.InstTenderRate, offer.RetailTenderRate,
		offer.TenderDiscount, offer.PostTenderDiscount, offer.ExpenseDrag,
		offer.EndDate, offer.Display)
	if err != nil {
		return fmt.Errorf("failed to save tender offer: %w", err)
	}
	return nil
}

// DeleteTenderOffer removes a tender offer.
func (w *Writer) DeleteTenderOffer(parent context.Context, ticker string) error {
	ctx, cancel := w.ctx(parent)
	defer cancel()

	if _, err := w.db.ExecContext(ctx, `DELETE FROM tender_offers WHERE ticker = $1`, ticker); err != nil {
		return fmt.Errorf("failed to delete tender offer: %w", err)
	}
	return nil
}

// Connect opens the warehouse connection pool.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
