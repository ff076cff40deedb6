// Package snapshotcache publishes read-only forecast snapshots to redis
// after each calculation pass, for the report/UI layer to consume without
// touching the engine's live store.
package snapshotcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fundscope/navcast/internal/domain"
)

const keyPrefix = "navcast:forecast:"

// Snapshot is the flat JSON view of a forecast handed to consumers. The
// per-method estimate slots are flattened into the mirror fields report
// code expects.
type Snapshot struct {
	Ticker       string    `json:"ticker"`
	CycleID      string    `json:"cycle_id"`
	CalculatedAt time.Time `json:"calculated_at"`

	LastNav     *float64 `json:"last_nav,omitempty"`
	LastNavDate string   `json:"last_nav_date,omitempty"`
	DivAdjNav   *float64 `json:"div_adj_nav,omitempty"`
	UNIIToNav   *float64 `json:"unii_to_nav,omitempty"`
	MktValUSD   *float64 `json:"mkt_val_usd,omitempty"`

	EstNav      *float64 `json:"est_nav,omitempty"`
	EstRtn      *float64 `json:"est_rtn,omitempty"`
	UnadjEstNav *float64 `json:"unadj_est_nav,omitempty"`
	NavEstMthd  string   `json:"nav_est_mthd,omitempty"`
	CondBranch  string   `json:"cond_branch,omitempty"`

	ProxyNav    *float64 `json:"proxy_nav,omitempty"`
	AltProxyNav *float64 `json:"alt_proxy_nav,omitempty"`
	PortProxyNav *float64 `json:"port_proxy_nav,omitempty"`
	ETFNav      *float64 `json:"etf_nav,omitempty"`
	ETFRtn      *float64 `json:"etf_rtn,omitempty"`

	AccruedInterest    *float64 `json:"accrued_interest,omitempty"`
	ImpliedAccrualRate *float64 `json:"implied_accrual_rate,omitempty"`

	Discount          *float64 `json:"discount,omitempty"`
	BidDiscount       *float64 `json:"bid_discount,omitempty"`
	AskDiscount       *float64 `json:"ask_discount,omitempty"`
	UnleveredDiscount *float64 `json:"unlevered_discount,omitempty"`
	PubDiscount       *float64 `json:"pub_discount,omitempty"`
	DiscountChg       *float64 `json:"discount_chg,omitempty"`

	Scores map[string]ScoreView `json:"scores,omitempty"`

	Rights        *domain.RightsResult `json:"rights,omitempty"`
	Tender        *domain.TenderResult `json:"tender,omitempty"`
	RedemptionIRR *float64             `json:"redemption_irr,omitempty"`
	ExpectedAlpha *float64             `json:"expected_alpha,omitempty"`
}

// ScoreView is one window's scores in the snapshot.
type ScoreView struct {
	D float64  `json:"d"`
	Z *float64 `json:"z,omitempty"`
}

// FromForecast flattens a forecast into its snapshot view.
func FromForecast(f *domain.Forecast) Snapshot {
	s := Snapshot{
		Ticker:             f.Ticker,
		CycleID:            f.CycleID,
		CalculatedAt:       f.CalculatedAt,
		LastNav:            f.LastNav,
		DivAdjNav:          f.DivAdjNav,
		UNIIToNav:          f.UNIIToNav,
		MktValUSD:          f.MktValUSD,
		EstNav:             f.EstNav,
		EstRtn:             f.EstRtn,
		UnadjEstNav:        f.UnadjEstNav,
		NavEstMthd:         string(f.NavEstMthd),
		CondBranch:         string(f.CondBranch),
		AccruedInterest:    f.AccruedInterest,
		ImpliedAccrualRate: f.ImpliedAccrualRate,
		Discount:           f.Discount,
		BidDiscount:        f.BidDiscount,
		AskDiscount:        f.AskDiscount,
		UnleveredDiscount:  f.UnleveredDiscount,
		PubDiscount:        f.PubDiscount,
		DiscountChg:        f.DiscountChg,
		Rights:             f.Rights,
		Tender:             f.Tender,
		RedemptionIRR:      f.RedemptionIRR,
		ExpectedAlpha:      f.ExpectedAlpha,
	}
	if !f.LastNavDate.IsZero() {
		s.LastNavDate = f.LastNavDate.Format("2006-01-02")
	}
	if e, ok := f.GetEstimate(domain.MethodProxy); ok {
		v := e.Nav
		s.ProxyNav = &v
	}
	if e, ok := f.GetEstimate(domain.MethodAltProxy); ok {
		v := e.Nav
		s.AltProxyNav = &v
	}
	if e, ok := f.GetEstimate(domain.MethodPortProxy); ok {
		v := e.Nav
		s.PortProxyNav = &v
	}
	if e, ok := f.GetEstimate(domain.MethodETFReg); ok {
		nav, rtn := e.Nav, e.Rtn
		s.ETFNav = &nav
		s.ETFRtn = &rtn
	}
	if len(f.Scores) > 0 {
		s.Scores = make(map[string]ScoreView, len(f.Scores))
		for w, sc := range f.Scores {
			s.Scores[string(w)] = ScoreView{D: sc.D, Z: sc.Z}
		}
	}
	return s
}

// Publisher is the narrow redis surface the cache uses; tests fake it.
type Publisher interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache writes forecast snapshots to redis with a TTL.
type Cache struct {
	client Publisher
	ttl    time.Duration
	log    zerolog.Logger
}

// New builds a snapshot cache over a redis client.
func New(client Publisher, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "snapshot_cache").Logger(),
	}
}

// PublishAll writes one snapshot per forecast. Individual write failures
// are logged and counted but do not abort the batch.
func (c *Cache) PublishAll(ctx context.Context, forecasts []*domain.Forecast) error {
	failed := 0
	for _, f := range forecasts {
		payload, err := json.Marshal(FromForecast(f))
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", f.Ticker, err)
		}
		if err := c.client.Set(ctx, keyPrefix+f.Ticker, payload, c.ttl).Err(); err != nil {
			failed++
			c.log.Warn().Err(err).Str("ticker", f.Ticker).Msg("snapshot publish failed")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d snapshots failed to publish", failed, len(forecasts))
	}
	return nil
}
