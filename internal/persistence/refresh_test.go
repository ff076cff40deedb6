package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
	"github.com/fundscope/navcast/internal/store"
)

type fakeLoader struct {
	secErr error
}

func (l *fakeLoader) Securities(context.Context) (map[string]domain.SecurityMaster, error) {
	if l.secErr != nil {
		return nil, l.secErr
	}
	return map[string]domain.SecurityMaster{
		"PDI": {Ticker: "PDI", NavEstMethod: domain.MethodProxy},
	}, nil
}

func (l *fakeLoader) PublishedNavs(context.Context) (map[string]domain.PublishedNav, error) {
	return map[string]domain.PublishedNav{
		"PDI": {Ticker: "PDI", Nav: finmath.Ptr(9.5)},
	}, nil
}

func (l *fakeLoader) Prices(context.Context) (map[string]domain.SecurityPrice, error) {
	return map[string]domain.SecurityPrice{
		"PDI US EQUITY": {Ticker: "PDI US EQUITY", Last: finmath.Ptr(9.0)},
	}, nil
}

func (l *fakeLoader) FxRates(context.Context) (domain.FxTable, error) {
	return domain.FxTable{"GBP": {Currency: "GBP", Rate: 1.25}}, nil
}

func (l *fakeLoader) TickerMap(context.Context) (domain.TickerMap, error) {
	return domain.TickerMap{"PDI": "PDI US EQUITY"}, nil
}

func (l *fakeLoader) Redemptions(context.Context) (map[string]domain.Redemption, error) {
	return nil, nil
}

func (l *fakeLoader) RightsOffers(context.Context) (map[string]domain.RightsOffer, error) {
	return nil, nil
}

func (l *fakeLoader) TenderOffers(context.Context) (map[string]domain.TenderOffer, error) {
	return nil, nil
}

func (l *fakeLoader) DiscountStats(context.Context) (map[string]domain.DiscountStats, error) {
	return nil, nil
}

func (l *fakeLoader) Regressions(context.Context) (map[string]domain.RegressionModel, error) {
	return nil, nil
}

func (l *fakeLoader) AlphaModels(context.Context) (map[string]domain.AlphaModel, error) {
	return nil, nil
}

func (l *fakeLoader) ProxyFormulas(context.Context) ([]FormulaRow, error) {
	return []FormulaRow{
		{Ticker: "PDI", Kind: domain.ProxyPrimary, Formula: "0.6*BKLN US+0.4*SJNK US"},
	}, nil
}

func (l *fakeLoader) ReferenceReturns(_ context.Context, kind store.ReturnKind) (map[string]float64, error) {
	if kind == store.ReturnsProxy {
		return map[string]float64{"BKLN US": 0.01}, nil
	}
	return nil, nil
}

func (l *fakeLoader) ExternalNavs(_ context.Context, feed string) (map[string]float64, error) {
	if feed == FeedCrypto {
		return map[string]float64{"BTCF": 12.0}, nil
	}
	return nil, nil
}

func TestRefreshAll_PopulatesEveryTable(t *testing.T) {
	st := store.New()
	r := NewRefresher(&fakeLoader{}, st, zerolog.Nop())

	require.NoError(t, r.RefreshAll(context.Background()))

	_, ok := st.Securities.Get("PDI")
	assert.True(t, ok)
	_, ok = st.Navs.Get("PDI")
	assert.True(t, ok)

	// Prices land under the market ticker and resolve through the map.
	_, ok = st.PriceFor("PDI")
	assert.True(t, ok)

	f, ok := st.Formula("PDI", domain.ProxyPrimary)
	require.True(t, ok)
	assert.Equal(t, "0.6*BKLN US+0.4*SJNK US", f.Text)

	rtn, ok := st.Return(store.ReturnsProxy, "BKLN US")
	require.True(t, ok)
	assert.Equal(t, 0.01, rtn)

	nav, ok := st.CryptoNavs.Get("BTCF")
	require.True(t, ok)
	assert.Equal(t, 12.0, nav)
}

func TestRefreshAll_AbortsOnLoadFailure(t *testing.T) {
	st := store.New()
	st.Securities.Put("OLD", domain.SecurityMaster{Ticker: "OLD"})
	r := NewRefresher(&fakeLoader{secErr: errors.New("timeout")}, st, zerolog.Nop())

	err := r.RefreshAll(context.Background())
	assert.Error(t, err)

	// The prior generation survives a failed load.
	_, ok := st.Securities.Get("OLD")
	assert.True(t, ok)
}
