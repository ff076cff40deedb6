package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEstimationMethod(t *testing.T) {
	m, err := ParseEstimationMethod("ETF Reg")
	require.NoError(t, err)
	assert.Equal(t, MethodETFReg, m)

	// Unconfigured securities default to the published NAV.
	m, err = ParseEstimationMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodPublished, m)

	_, err = ParseEstimationMethod("Prox")
	assert.Error(t, err)

	// The portfolio-FI slot is never a configurable method.
	_, err = ParseEstimationMethod(string(MethodPortProxy))
	assert.Error(t, err)
}

func TestFxTable_ToUSD(t *testing.T) {
	fx := FxTable{
		"GBP": {Currency: "GBP", Rate: 1.25},
		"EUR": {Currency: "EUR", Rate: 1.10},
	}

	got, ok := fx.ToUSD(100, "EUR")
	require.True(t, ok)
	assert.InDelta(t, 110, got, 1e-9)

	// Pence quotes convert at the pound rate after the /100 scale.
	got, ok = fx.ToUSD(500, "GBp")
	require.True(t, ok)
	assert.InDelta(t, 6.25, got, 1e-9)

	got, ok = fx.ToUSD(500, "GBX")
	require.True(t, ok)
	assert.InDelta(t, 6.25, got, 1e-9)

	got, ok = fx.ToUSD(42, "USD")
	require.True(t, ok)
	assert.Equal(t, 42.0, got)

	got, ok = fx.ToUSD(42, "")
	require.True(t, ok)
	assert.Equal(t, 42.0, got)

	_, ok = fx.ToUSD(100, "JPY")
	assert.False(t, ok)
}

func TestTickerMap_Resolve(t *testing.T) {
	m := TickerMap{"PDI": "PDI US EQUITY", "EMPTY": ""}
	assert.Equal(t, "PDI US EQUITY", m.Resolve("PDI"))
	assert.Equal(t, "UNMAPPED", m.Resolve("UNMAPPED"))
	assert.Equal(t, "EMPTY", m.Resolve("EMPTY"))
}

func TestForecast_ResetCycleKeepsCryptoSlot(t *testing.T) {
	f := NewForecast("BTCF")
	f.SetEstimate(MethodProxy, 10.1, 0.01)
	f.SetEstimate(MethodCryptoNav, 12.0, 0.2)
	f.EstNav = new(float64)
	f.Scores[Win1M] = Score{D: 0.01}

	f.ResetCycle()

	_, ok := f.GetEstimate(MethodProxy)
	assert.False(t, ok)
	est, ok := f.GetEstimate(MethodCryptoNav)
	require.True(t, ok)
	assert.Equal(t, 12.0, est.Nav)

	assert.Nil(t, f.EstNav)
	assert.Empty(t, f.Scores)
}
