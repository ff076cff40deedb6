package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscope/navcast/internal/domain"
	"github.com/fundscope/navcast/internal/finmath"
	"github.com/fundscope/navcast/internal/store"
)

type fakeWriter struct {
	err       error
	overrides map[string]*float64
	formulas  map[string]string
	deleted   []string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		overrides: make(map[string]*float64),
		formulas:  make(map[string]string),
	}
}

func (w *fakeWriter) SaveUserNavOverride(_ context.Context, ticker string, value *float64, _ time.Time) error {
	if w.err != nil {
		return w.err
	}
	w.overrides[ticker] = value
	return nil
}

func (w *fakeWriter) SaveNavAdjustment(context.Context, string, *float64) error { return w.err }

func (w *fakeWriter) SaveProxyFormula(_ context.Context, ticker string, kind domain.ProxyKind, formula string) error {
	if w.err != nil {
		return w.err
	}
	w.formulas[ticker+"|"+string(kind)] = formula
	return nil
}

func (w *fakeWriter) SaveRightsOffer(context.Context, domain.RightsOffer) error { return w.err }

func (w *fakeWriter) DeleteRightsOffer(_ context.Context, ticker string) error {
	w.deleted = append(w.deleted, ticker)
	return w.err
}

func (w *fakeWriter) SaveTenderOffer(context.Context, domain.TenderOffer) error { return w.err }

func (w *fakeWriter) DeleteTenderOffer(_ context.Context, ticker string) error {
	w.deleted = append(w.deleted, ticker)
	return w.err
}

func TestEditService_SetUserNavOverridePatchesStore(t *testing.T) {
	st := store.New()
	st.Navs.Put("PDI", domain.PublishedNav{Ticker: "PDI", Nav: finmath.Ptr(9.5)})
	w := newFakeWriter()
	svc := NewEditService(w, st, zerolog.Nop())

	require.NoError(t, svc.SetUserNavOverride(context.Background(), "PDI", finmath.Ptr(10.0)))

	nav, ok := st.Navs.Get("PDI")
	require.True(t, ok)
	require.NotNil(t, nav.UserNavOverride)
	assert.Equal(t, 10.0, *nav.UserNavOverride)
	// The published NAV itself is untouched.
	require.NotNil(t, nav.Nav)
	assert.Equal(t, 9.5, *nav.Nav)

	// Clearing writes a nil through.
	require.NoError(t, svc.SetUserNavOverride(context.Background(), "PDI", nil))
	nav, _ = st.Navs.Get("PDI")
	assert.Nil(t, nav.UserNavOverride)
}

func TestEditService_WriteFailureLeavesStoreUntouched(t *testing.T) {
	st := store.New()
	w := newFakeWriter()
	w.err = errors.New("db down")
	svc := NewEditService(w, st, zerolog.Nop())

	err := svc.SetUserNavOverride(context.Background(), "PDI", finmath.Ptr(10.0))
	assert.Error(t, err)
	_, ok := st.Navs.Get("PDI")
	assert.False(t, ok)

	err = svc.SetProxyFormula(context.Background(), "PDI", domain.ProxyPrimary, "1*SPY US")
	assert.Error(t, err)
	_, ok = st.Formula("PDI", domain.ProxyPrimary)
	assert.False(t, ok)
}

func TestEditService_SetProxyFormulaBumpsRevision(t *testing.T) {
	st := store.New()
	st.SetFormula("PDI", domain.ProxyPrimary, "1*BKLN US")
	before, _ := st.Formula("PDI", domain.ProxyPrimary)

	svc := NewEditService(newFakeWriter(), st, zerolog.Nop())
	require.NoError(t, svc.SetProxyFormula(context.Background(), "PDI", domain.ProxyPrimary, "1*SPY US"))

	after, ok := st.Formula("PDI", domain.ProxyPrimary)
	require.True(t, ok)
	assert.Equal(t, "1*SPY US", after.Text)
	assert.Greater(t, after.Rev, before.Rev)
}

func TestEditService_OfferLifecycle(t *testing.T) {
	st := store.New()
	svc := NewEditService(newFakeWriter(), st, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.SetRightsOffer(ctx, domain.RightsOffer{Ticker: "GAB", SubRatio: 0.2}))
	_, ok := st.RightsOffers.Get("GAB")
	assert.True(t, ok)

	require.NoError(t, svc.ClearRightsOffer(ctx, "GAB"))
	_, ok = st.RightsOffers.Get("GAB")
	assert.False(t, ok)

	require.NoError(t, svc.SetTenderOffer(ctx, domain.TenderOffer{Ticker: "HQH", SharesSoughtPct: 0.25}))
	_, ok = st.TenderOffers.Get("HQH")
	assert.True(t, ok)

	require.NoError(t, svc.ClearTenderOffer(ctx, "HQH"))
	_, ok = st.TenderOffers.Get("HQH")
	assert.False(t, ok)
}
